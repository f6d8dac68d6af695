package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}, got)
}

func TestSplitRangeUneven(t *testing.T) {
	got, err := SplitRange(10, 14, 3)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: 10, To: 12}, {From: 13, To: 14}}, got)
	assert.Equal(t, uint64(2), got[1].Blocks())
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []BlockRange{{From: 5, To: 5}}, got)
	assert.Equal(t, uint64(1), got[0].Blocks())
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	assert.Error(t, err)

	_, err = SplitRange(1, 10, 0)
	assert.Error(t, err)
}
