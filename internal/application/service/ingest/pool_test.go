package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSymbols(n int) []string {
	symbols := make([]string, n)
	for i := range symbols {
		symbols[i] = fmt.Sprintf("SYM%03d-USD", i)
	}
	return symbols
}

func TestPartitionNearEqualGroups(t *testing.T) {
	symbols := makeSymbols(197)

	groups := Partition(symbols, 10)
	require.Len(t, groups, 10)

	seen := make(map[string]int)
	minSize, maxSize := len(symbols), 0
	for _, group := range groups {
		require.NotEmpty(t, group)
		if len(group) < minSize {
			minSize = len(group)
		}
		if len(group) > maxSize {
			maxSize = len(group)
		}
		for _, symbol := range group {
			seen[symbol]++
		}
	}

	assert.LessOrEqual(t, maxSize-minSize, 1, "group sizes differ by at most 1")
	require.Len(t, seen, len(symbols), "union covers the full symbol set")
	for symbol, count := range seen {
		require.Equal(t, 1, count, "symbol %s assigned once", symbol)
	}
}

func TestPartitionDeterministic(t *testing.T) {
	symbols := makeSymbols(53)
	require.Equal(t, Partition(symbols, 4), Partition(symbols, 4))
}

func TestPartitionMoreGroupsThanSymbols(t *testing.T) {
	groups := Partition(makeSymbols(3), 10)
	require.Len(t, groups, 3)
	for _, group := range groups {
		require.Len(t, group, 1)
	}
}

func TestPartitionEmpty(t *testing.T) {
	require.Nil(t, Partition(nil, 5))
}

func TestPartitionContiguous(t *testing.T) {
	symbols := makeSymbols(10)
	groups := Partition(symbols, 3)

	flattened := make([]string, 0, len(symbols))
	for _, group := range groups {
		flattened = append(flattened, group...)
	}
	require.Equal(t, symbols, flattened, "concatenated groups preserve input order")
}
