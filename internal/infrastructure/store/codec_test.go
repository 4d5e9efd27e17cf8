package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketdata "main/internal/domain/entity/marketdata"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tick := marketdata.Tick{
		Symbol:  "BTC-USD",
		Seconds: 1717430400,
		Nanos:   987654321,
		Price:   68123.45,
		Volume:  0.00042,
		Side:    marketdata.SideBuy,
		BestBid: 68123.44,
		BestAsk: 68123.46,
	}

	decoded := Decode(Encode(&tick))

	assert.Equal(t, tick.Seconds, decoded.Seconds)
	assert.Equal(t, tick.Nanos, decoded.Nanos)
	assert.Equal(t, tick.Price, decoded.Price)
	assert.Equal(t, tick.Volume, decoded.Volume)
	assert.Equal(t, tick.Side, decoded.Side)
	assert.Equal(t, tick.BestBid, decoded.BestBid)
	assert.Equal(t, tick.BestAsk, decoded.BestAsk)
}

func TestEncodeLittleEndianLayout(t *testing.T) {
	tick := marketdata.Tick{
		Symbol:  "ETH-USD",
		Seconds: 1,
		Nanos:   0x01020304,
		Side:    marketdata.SideBuy,
	}

	record := Encode(&tick)

	require.Equal(t, [RecordWidth]byte{1, 0, 0, 0}, record[0], "seconds")
	require.Equal(t, [RecordWidth]byte{0x04, 0x03, 0x02, 0x01}, record[1], "nanos")
	require.Equal(t, [RecordWidth]byte{1, 0, 0, 0}, record[4], "buy side occupies the low byte")

	tick.Side = marketdata.SideSell
	record = Encode(&tick)
	require.Equal(t, [RecordWidth]byte{0, 0, 0, 0}, record[4], "sell side")
}

func TestColumnsMatchRecordWidth(t *testing.T) {
	require.Len(t, Columns, NumColumns)
}
