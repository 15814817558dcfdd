package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/lib/tree"
	"github.com/benz9527/xavl/xlog"
)

const replayScript = `
keyType: int
failFast: false
ops:
  - op: insert
    keys: [38, 43, 29, 59, 83, 23]
  - op: remove
    keys: [38, 100]
  - op: contains
    keys: [29]
  - op: depth
    keys: [83]
`

func testLogger() xlog.XLogger {
	logger := xlog.NewXLogger(xlog.WithXLoggerWriter(xlog.StdErr))
	logger.IncreaseLogLevel(zapcore.ErrorLevel)
	return logger
}

func TestParseScript(t *testing.T) {
	script, err := ParseScript([]byte(replayScript))
	require.NoError(t, err)
	require.Equal(t, keyTypeInt, script.KeyType)
	require.Len(t, script.Ops, 4)
	require.Equal(t, []string{"38", "100"}, script.Ops[1].Keys)

	_, err = ParseScript([]byte("ops:\n  - op: merge\n    keys: [1]\n"))
	require.ErrorIs(t, err, tree.ErrInvalidArgument)
	_, err = ParseScript([]byte("ops:\n  - op: clear\n    keys: [1]\n"))
	require.ErrorIs(t, err, tree.ErrInvalidArgument)
	_, err = ParseScript([]byte("keyType: float\n"))
	require.ErrorIs(t, err, tree.ErrInvalidArgument)

	script, err = ParseScript([]byte("ops: []\n"))
	require.NoError(t, err)
	require.Equal(t, keyTypeInt, script.KeyType)
}

func TestReplay(t *testing.T) {
	script, err := ParseScript([]byte(replayScript))
	require.NoError(t, err)

	tr, stats, err := replay[int](script, infra.OrderedKeyCompare[int], parseIntKey, testLogger())
	require.NoError(t, err)
	require.Equal(t, ReplayStats{Ops: 4, Applied: 9, Failed: 1}, stats)
	require.Equal(t, []int{23, 29, 43, 59, 83}, tr.Inorder())
	// Predecessor 29 took the place of 38.
	require.Equal(t, 29, tr.Root().Key())
	require.NoError(t, tree.AVLViolationValidate[int](tr))
}

func TestReplay_FailFast(t *testing.T) {
	script, err := ParseScript([]byte(replayScript))
	require.NoError(t, err)
	script.FailFast = true

	tr, stats, err := replay[int](script, infra.OrderedKeyCompare[int], parseIntKey, testLogger())
	require.ErrorIs(t, err, tree.ErrNotFound)
	require.Equal(t, 2, stats.Ops)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, int64(5), tr.Len())
}

func TestReplay_BadKey(t *testing.T) {
	script, err := ParseScript([]byte("ops:\n  - op: insert\n    keys: [1, x]\n"))
	require.NoError(t, err)
	tr, stats, err := replay[int](script, infra.OrderedKeyCompare[int], parseIntKey, testLogger())
	require.Error(t, err)
	require.Equal(t, 1, stats.Applied)
	require.Equal(t, int64(1), tr.Len())
}

func TestRunReplay_StringKeys(t *testing.T) {
	script, err := ParseScript([]byte(`
keyType: string
ops:
  - op: insert
    keys: [b, a, c, a]
  - op: get
    keys: [a]
  - op: clear
  - op: insert
    keys: [z]
`))
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	require.NoError(t, RunReplay(buf, script, defaultConfig(), testLogger()))
	require.Equal(t,
		"ops: 4, applied: 7, failed: 0\n"+
			"size: 1\n"+
			"height: 0\n"+
			"inorder: [z]\n",
		buf.String(),
	)
}

func TestRunReplay_DuplicateReject(t *testing.T) {
	script, err := ParseScript([]byte("ops:\n  - op: insert\n    keys: [1, 1, 2]\n"))
	require.NoError(t, err)
	cfg := defaultConfig()
	cfg.Tree.DuplicatePolicy = tree.DuplicateReject.String()

	buf := &bytes.Buffer{}
	require.NoError(t, RunReplay(buf, script, cfg, testLogger()))
	require.Contains(t, buf.String(), "ops: 1, applied: 2, failed: 1\n")
	require.Contains(t, buf.String(), "inorder: [1 2]\n")
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ops.yaml", replayScript)
	script, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, script.Ops, 4)

	_, err = LoadScript(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}
