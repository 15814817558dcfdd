package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/xlog"
)

type opType string

const (
	opInsert   opType = "insert"
	opRemove   opType = "remove"
	opGet      opType = "get"
	opContains opType = "contains"
	opDepth    opType = "depth"
	opClear    opType = "clear"
)

var knownOps = []opType{opInsert, opRemove, opGet, opContains, opDepth, opClear}

const (
	keyTypeInt    = "int"
	keyTypeString = "string"
)

// Op keys are decoded as strings and parsed with the script key type.
type Op struct {
	Op   opType   `yaml:"op"`
	Keys []string `yaml:"keys"`
}

type Script struct {
	KeyType  string `yaml:"keyType"`
	FailFast bool   `yaml:"failFast"`
	Ops      []Op   `yaml:"ops"`
}

func (s *Script) validate() error {
	if s.KeyType == "" {
		s.KeyType = keyTypeInt
	}
	if s.KeyType != keyTypeInt && s.KeyType != keyTypeString {
		return infra.WrapErrorStackWithMessage(tree.ErrInvalidArgument, "unknown key type "+s.KeyType)
	}
	for i, op := range s.Ops {
		if !lo.Contains(knownOps, op.Op) {
			return infra.WrapErrorStackWithMessage(tree.ErrInvalidArgument,
				fmt.Sprintf("op #%d: unknown op %q", i, op.Op))
		}
		if op.Op == opClear && len(op.Keys) > 0 {
			return infra.WrapErrorStackWithMessage(tree.ErrInvalidArgument,
				fmt.Sprintf("op #%d: clear takes no keys", i))
		}
	}
	return nil
}

func ParseScript(data []byte) (*Script, error) {
	script := &Script{}
	if err := yaml.Unmarshal(data, script); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "parse replay script")
	}
	if err := script.validate(); err != nil {
		return nil, err
	}
	return script, nil
}

func LoadScript(path string) (*Script, error) {
	data, err := readFileBeneath(path)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "read replay script "+path)
	}
	return ParseScript(data)
}

type ReplayStats struct {
	Ops     int
	Applied int
	Failed  int
}

// Missing keys, rejected duplicates and absent keys are expected
// outcomes of a script step, everything else is fatal.
func isRecoverable(err error) bool {
	return errors.Is(err, tree.ErrNotFound) ||
		errors.Is(err, tree.ErrInvalidArgument) ||
		errors.Is(err, tree.ErrDuplicateKey)
}

type replayer[K any] struct {
	tree     tree.AVLTree[K]
	parse    func(string) (K, error)
	logger   xlog.XLogger
	failFast bool
	stats    ReplayStats
}

func (r *replayer[K]) apply(idx int, op Op) error {
	r.stats.Ops++
	if op.Op == opClear {
		r.tree.Clear()
		r.stats.Applied++
		r.logger.Info("replay clear", zap.Int("op", idx))
		return nil
	}
	for _, raw := range op.Keys {
		key, err := r.parse(raw)
		if err != nil {
			return infra.WrapErrorStackWithMessage(err, fmt.Sprintf("op #%d: parse key %q", idx, raw))
		}
		fields := []zap.Field{zap.Int("op", idx), zap.String("key", raw)}
		switch op.Op {
		case opInsert:
			err = r.tree.Insert(key)
		case opRemove:
			_, err = r.tree.Remove(key)
		case opGet:
			var got K
			if got, err = r.tree.Get(key); err == nil {
				fields = append(fields, zap.Any("got", got))
			}
		case opContains:
			var ok bool
			if ok, err = r.tree.Contains(key); err == nil {
				fields = append(fields, zap.Bool("contains", ok))
			}
		case opDepth:
			var depth int
			if depth, err = r.tree.Depth(key); err == nil {
				fields = append(fields, zap.Int("depth", depth))
			}
		default:
		}
		fields = append(fields, zap.Int64("len", r.tree.Len()), zap.Int("height", r.tree.Height()))
		if err != nil {
			r.stats.Failed++
			if r.failFast || !isRecoverable(err) {
				r.logger.ErrorStack(err, "replay "+string(op.Op)+" failed", fields...)
				return err
			}
			r.logger.Warn("replay "+string(op.Op)+" failed", append(fields, zap.String("error", err.Error()))...)
			continue
		}
		r.stats.Applied++
		r.logger.Info("replay "+string(op.Op), fields...)
	}
	return nil
}

func replay[K any](
	script *Script,
	cmp infra.KeyComparator[K],
	parse func(string) (K, error),
	logger xlog.XLogger,
	opts ...tree.AVLTreeOpt[K],
) (tree.AVLTree[K], ReplayStats, error) {
	t, err := tree.NewAVLTreeFunc[K](cmp, opts...)
	if err != nil {
		return nil, ReplayStats{}, err
	}
	r := &replayer[K]{
		tree:     t,
		parse:    parse,
		logger:   logger,
		failFast: script.FailFast,
	}
	for i, op := range script.Ops {
		if err = r.apply(i, op); err != nil {
			return t, r.stats, err
		}
	}
	return t, r.stats, nil
}

func parseIntKey(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

func parseStringKey(raw string) (string, error) {
	return raw, nil
}

func printSummary[K any](w io.Writer, t tree.AVLTree[K], stats ReplayStats) {
	_, _ = fmt.Fprintf(w, "ops: %d, applied: %d, failed: %d\n", stats.Ops, stats.Applied, stats.Failed)
	_, _ = fmt.Fprintf(w, "size: %d\nheight: %d\n", t.Len(), t.Height())
	_, _ = fmt.Fprintf(w, "inorder: %v\n", t.Inorder())
}

// RunReplay replays the script and prints the summary of the final tree.
func RunReplay(w io.Writer, script *Script, cfg *Config, logger xlog.XLogger) error {
	switch script.KeyType {
	case keyTypeString:
		t, stats, err := replay[string](script, infra.OrderedKeyCompare[string], parseStringKey, logger,
			treeOptions[string](cfg.Tree)...)
		if t != nil {
			printSummary[string](w, t, stats)
		}
		return err
	default:
	}
	t, stats, err := replay[int](script, infra.OrderedKeyCompare[int], parseIntKey, logger,
		treeOptions[int](cfg.Tree)...)
	if t != nil {
		printSummary[int](w, t, stats)
	}
	return err
}
