package infra

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var errTestCause = errors.New("cause")

func TestFrameFormat(t *testing.T) {
	frames := callers(2)
	require.NotEmpty(t, frames)
	frame := frames[0]

	require.Equal(t, "err_stack_test.go", fmt.Sprintf("%s", frame))
	require.Equal(t, "TestFrameFormat", fmt.Sprintf("%n", frame))
	require.True(t, strings.HasPrefix(fmt.Sprintf("%v", frame), "err_stack_test.go:"))
	require.True(t, strings.HasPrefix(fmt.Sprintf("%+s", frame), "github.com/benz9527/xavl/lib/infra.TestFrameFormat\n\t"))

	require.Equal(t, "unknownFile", fmt.Sprintf("%s", Frame(0)))
	require.Equal(t, "unknownFunc", fmt.Sprintf("%n", Frame(0)))
	require.Equal(t, "0", fmt.Sprintf("%d", Frame(0)))
}

func TestFrameMarshalText(t *testing.T) {
	text, err := Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))

	text, err = callers(2)[0].MarshalText()
	require.NoError(t, err)
	require.Contains(t, string(text), "infra.TestFrameMarshalText ")
	require.Contains(t, string(text), "err_stack_test.go:")
}

func TestNewErrorStack(t *testing.T) {
	err := NewErrorStack("boom")
	require.EqualError(t, err, "boom")

	var es ErrorStack
	require.True(t, errors.As(err, &es))
	require.Nil(t, es.Unwrap())
	require.NotEmpty(t, es.Frames())
	require.Equal(t, "TestNewErrorStack", fmt.Sprintf("%n", es.Frames()[0]))
}

func TestWrapErrorStack(t *testing.T) {
	require.Nil(t, WrapErrorStack(nil))
	require.Nil(t, WrapErrorStackWithMessage(nil, "ignored"))

	err := WrapErrorStack(errTestCause)
	require.EqualError(t, err, "cause")
	require.ErrorIs(t, err, errTestCause)

	err = WrapErrorStackWithMessage(errTestCause, "op failed")
	require.EqualError(t, err, "op failed: cause")
	require.ErrorIs(t, err, errTestCause)

	verbose := fmt.Sprintf("%+v", err)
	require.True(t, strings.HasPrefix(verbose, "op failed: cause\n"))
	require.Contains(t, verbose, "err_stack_test.go:")
	require.Equal(t, "op failed: cause", fmt.Sprintf("%v", err))
	require.Equal(t, `"op failed: cause"`, fmt.Sprintf("%q", err))
}

func TestErrorStackMarshalLogObject(t *testing.T) {
	err := WrapErrorStackWithMessage(errTestCause, "op failed")
	es := err.(ErrorStack)

	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, es.MarshalLogObject(enc))
	require.Equal(t, "op failed: cause", enc.Fields["error"])
	frames, ok := enc.Fields["errorStack"].([]any)
	require.True(t, ok)
	require.Len(t, frames, len(es.Frames()))
}
