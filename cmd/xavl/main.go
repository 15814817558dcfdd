package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xavl/xlog"
)

var version = "v0.1.0"

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		cfg     *Config
		logger  xlog.XLogger
	)

	rootCmd := &cobra.Command{
		Use:           "xavl",
		Version:       version,
		Short:         "Build, inspect and replay operations on AVL trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = LoadConfig(cfgPath); err != nil {
				return err
			}
			logger = cfg.NewLogger()
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/"+defaultConfigName+")")

	flags := buildFlags{}
	cmdBuild := &cobra.Command{
		Use:   "build KEY...",
		Short: "Build a tree by sequential insertion and print its traversals",
		Args:  cobra.MinimumNArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunBuild(cmd.OutOrStdout(), flags, args, cfg, logger)
		},
	}
	cmdBuild.Flags().StringVar(&flags.keyType, "type", keyTypeInt, "key type, int or string")
	cmdBuild.Flags().StringArrayVar(&flags.removes, "remove", nil, "key to remove after the build, repeatable")
	cmdBuild.Flags().BoolVar(&flags.check, "check", false, "validate the AVL invariants")
	cmdBuild.Flags().BoolVar(&flags.dump, "dump", false, "print the tree sideways")

	var scriptPath string
	cmdReplay := &cobra.Command{
		Use:   "replay",
		Short: "Replay a YAML script of tree operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := LoadScript(scriptPath)
			if err != nil {
				return err
			}
			logger.Info("replay script loaded")
			return RunReplay(cmd.OutOrStdout(), script, cfg, logger)
		},
	}
	cmdReplay.Flags().StringVarP(&scriptPath, "file", "f", "", "replay script file")
	_ = cmdReplay.MarkFlagRequired("file")

	var initCfg bool
	cmdConfig := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if initCfg {
				created, err := WriteDefaultConfig(cfgPath)
				if err != nil {
					return err
				}
				if created {
					logger.Info("default config created")
				}
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmdConfig.Flags().BoolVar(&initCfg, "init", false, "create the config file with defaults if missing")

	cmdVersion := &cobra.Command{
		Use:   "version",
		Short: "Print xavl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(cmdBuild, cmdReplay, cmdConfig, cmdVersion)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
