package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatrixPairs(t *testing.T) {
	pairs, err := parseMatrixPairs("30:1440, 120:2880,240:4320")
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{30, 1440}, {120, 2880}, {240, 4320}}, pairs)
}

func TestParseMatrixPairsEmpty(t *testing.T) {
	pairs, err := parseMatrixPairs("  ")
	require.NoError(t, err)
	assert.Nil(t, pairs)
}

func TestParseMatrixPairsMalformed(t *testing.T) {
	cases := []string{
		"30",
		"30:1440:99",
		"abc:1440",
		"30:def",
	}
	for _, raw := range cases {
		_, err := parseMatrixPairs(raw)
		assert.Errorf(t, err, "input %q", raw)
	}
}
