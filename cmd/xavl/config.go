package main

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/safeopen"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/xlog"
)

const defaultConfigName = ".xavl.yaml"

type LogConfig struct {
	Level   string `yaml:"level"`
	Encoder string `yaml:"encoder"`
}

type TreeConfig struct {
	Desc             bool   `yaml:"desc"`
	RemoveBorrowSucc bool   `yaml:"removeBorrowSucc"`
	DuplicatePolicy  string `yaml:"duplicatePolicy"`
}

type Config struct {
	Log  LogConfig  `yaml:"log"`
	Tree TreeConfig `yaml:"tree"`
}

func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:   xlog.LogLevelInfo.String(),
			Encoder: "plaintext",
		},
		Tree: TreeConfig{
			DuplicatePolicy: tree.DuplicateIgnore.String(),
		},
	}
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(homeDir, defaultConfigName)
}

// readFileBeneath keeps the read inside the file's own directory,
// symlinks escaping it are refused.
func readFileBeneath(path string) ([]byte, error) {
	f, err := safeopen.OpenBeneath(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return io.ReadAll(f)
}

// LoadConfig returns the defaults when the file does not exist. Fields
// absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	data, err := readFileBeneath(path)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "read config "+path)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "parse config "+path)
	}
	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) validate() error {
	if _, err := xlog.ParseEncoder(cfg.Log.Encoder); err != nil {
		return err
	}
	if _, err := tree.ParseDuplicatePolicy(cfg.Tree.DuplicatePolicy); err != nil {
		return err
	}
	return nil
}

// WriteDefaultConfig creates the config file with the defaults, an
// existing file is left untouched.
func WriteDefaultConfig(path string) (bool, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return false, infra.WrapErrorStack(err)
	}
	f, err := safeopen.OpenFileBeneath(filepath.Dir(path), filepath.Base(path), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, infra.WrapErrorStackWithMessage(err, "create config "+path)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err = f.Write(data); err != nil {
		return false, infra.WrapErrorStack(err)
	}
	return true, nil
}

// NewLogger writes to stderr, stdout is kept for the command results.
func (cfg *Config) NewLogger() xlog.XLogger {
	// Validated on load.
	enc, _ := xlog.ParseEncoder(cfg.Log.Encoder)
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.Log.Level)),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerWriter(xlog.StdErr),
	)
}

func treeOptions[K any](cfg TreeConfig) []tree.AVLTreeOpt[K] {
	opts := make([]tree.AVLTreeOpt[K], 0, 3)
	if cfg.Desc {
		opts = append(opts, tree.WithAVLTreeDesc[K]())
	}
	if cfg.RemoveBorrowSucc {
		opts = append(opts, tree.WithAVLTreeRemoveBorrowSucc[K]())
	}
	policy, _ := tree.ParseDuplicatePolicy(cfg.DuplicatePolicy)
	return append(opts, tree.WithAVLTreeDuplicatePolicy[K](policy))
}
