package main

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/xlog"
)

type buildFlags struct {
	keyType string
	removes []string
	check   bool
	dump    bool
}

func buildTree[K any](
	w io.Writer,
	flags buildFlags,
	keys []string,
	cmp infra.KeyComparator[K],
	parse func(string) (K, error),
	logger xlog.XLogger,
	opts ...tree.AVLTreeOpt[K],
) error {
	parseAll := func(raws []string) ([]K, error) {
		res := make([]K, 0, len(raws))
		for _, raw := range raws {
			k, err := parse(raw)
			if err != nil {
				return nil, infra.WrapErrorStackWithMessage(tree.ErrInvalidArgument, fmt.Sprintf("key %q: %v", raw, err))
			}
			res = append(res, k)
		}
		return res, nil
	}
	inserts, err := parseAll(keys)
	if err != nil {
		return err
	}
	removes, err := parseAll(flags.removes)
	if err != nil {
		return err
	}

	t, err := tree.NewAVLTreeFuncFrom[K](cmp, inserts, opts...)
	if err != nil {
		return err
	}
	logger.Debug("tree built", zap.Int64("len", t.Len()), zap.Int("height", t.Height()))
	for _, k := range removes {
		if _, err = t.Remove(k); err != nil {
			logger.Warn("remove failed", zap.Any("key", k), zap.String("error", err.Error()))
			continue
		}
		logger.Debug("removed", zap.Any("key", k), zap.Int64("len", t.Len()))
	}

	_, _ = fmt.Fprintf(w, "size: %d\nheight: %d\n", t.Len(), t.Height())
	for _, line := range []lo.Tuple2[string, []K]{
		lo.T2("preorder", t.Preorder()),
		lo.T2("inorder", t.Inorder()),
		lo.T2("postorder", t.Postorder()),
		lo.T2("levelorder", t.Levelorder()),
	} {
		_, _ = fmt.Fprintf(w, "%s: %v\n", line.A, line.B)
	}
	if flags.dump {
		tree.Dump[K](w, t)
	}
	if flags.check {
		if err = tree.AVLViolationValidate[K](t); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, "check: ok")
	}
	return nil
}

// RunBuild builds the tree of the positional keys then removes the
// --remove ones.
func RunBuild(w io.Writer, flags buildFlags, keys []string, cfg *Config, logger xlog.XLogger) error {
	switch flags.keyType {
	case keyTypeString:
		return buildTree[string](w, flags, keys, infra.OrderedKeyCompare[string], parseStringKey, logger,
			treeOptions[string](cfg.Tree)...)
	case keyTypeInt, "":
		return buildTree[int](w, flags, keys, infra.OrderedKeyCompare[int], parseIntKey, logger,
			treeOptions[int](cfg.Tree)...)
	default:
	}
	return infra.WrapErrorStackWithMessage(tree.ErrInvalidArgument, "unknown key type "+flags.keyType)
}
