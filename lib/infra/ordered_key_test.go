package infra

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKeyCompare(t *testing.T) {
	assert.Equal(t, int64(0), OrderedKeyCompare(1, 1))
	assert.Equal(t, int64(-1), OrderedKeyCompare(1, 2))
	assert.Equal(t, int64(1), OrderedKeyCompare(uint8(3), uint8(2)))
	assert.Equal(t, int64(-1), OrderedKeyCompare("abc", "abd"))
	assert.Equal(t, int64(1), OrderedKeyCompare(2.5, -0.5))
}

func TestOrderedKeyCompare_NaN(t *testing.T) {
	nan := math.NaN()
	require.Equal(t, int64(0), OrderedKeyCompare(nan, nan))
	require.Equal(t, int64(-1), OrderedKeyCompare(nan, math.Inf(-1)))
	require.Equal(t, int64(1), OrderedKeyCompare(0.0, nan))
}

func TestReverseComparator(t *testing.T) {
	require.Nil(t, ReverseComparator[int](nil))

	desc := ReverseComparator[int](OrderedKeyCompare[int])
	require.Equal(t, int64(1), desc(1, 2))
	require.Equal(t, int64(-1), desc(2, 1))
	require.Equal(t, int64(0), desc(7, 7))
}
