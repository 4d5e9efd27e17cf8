package ingest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketdata "main/internal/domain/entity/marketdata"
)

func bufferTick(symbol string, seconds, nanos uint32, price float32) marketdata.Tick {
	return marketdata.Tick{
		Symbol:  symbol,
		Seconds: seconds,
		Nanos:   nanos,
		Price:   price,
	}
}

func TestBufferDrainSortedRegardlessOfInsertOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	buf := NewBuffer()
	const n = 5000
	symbols := []string{"BTC-USD", "ETH-USD", "SOL-USD", "DOGE-USD"}
	for i := 0; i < n; i++ {
		buf.Insert(bufferTick(
			symbols[rng.Intn(len(symbols))],
			uint32(rng.Intn(1000)),
			uint32(rng.Intn(1_000_000_000)),
			rng.Float32(),
		))
	}
	require.Equal(t, n, buf.Len())

	drained := buf.Drain()
	require.Len(t, drained, n)
	require.Equal(t, 0, buf.Len())

	for i := 1; i < len(drained); i++ {
		prev, cur := drained[i-1], drained[i]
		ordered := prev.Seconds < cur.Seconds ||
			(prev.Seconds == cur.Seconds && prev.Nanos < cur.Nanos) ||
			(prev.Seconds == cur.Seconds && prev.Nanos == cur.Nanos)
		assert.True(t, ordered, "entry %d out of order", i)
	}
}

func TestBufferRetainsDuplicateKeys(t *testing.T) {
	buf := NewBuffer()

	first := bufferTick("BTC-USD", 100, 500, 1.0)
	second := bufferTick("BTC-USD", 100, 500, 2.0)
	buf.Insert(first)
	buf.Insert(second)

	drained := buf.Drain()
	require.Len(t, drained, 2, "same-timestamp updates are both retained")
	assert.Equal(t, float32(1.0), drained[0].Price, "duplicates drain in arrival order")
	assert.Equal(t, float32(2.0), drained[1].Price)
}

func TestBufferDrainEmpty(t *testing.T) {
	buf := NewBuffer()
	require.Nil(t, buf.Drain())
	require.Equal(t, 0, buf.Len())
}

func TestBufferSymbolBreaksTimestampTies(t *testing.T) {
	buf := NewBuffer()
	buf.Insert(bufferTick("ETH-USD", 100, 0, 1.0))
	buf.Insert(bufferTick("BTC-USD", 100, 0, 2.0))

	drained := buf.Drain()
	require.Len(t, drained, 2)
	assert.Equal(t, "BTC-USD", drained[0].Symbol)
	assert.Equal(t, "ETH-USD", drained[1].Symbol)
}
