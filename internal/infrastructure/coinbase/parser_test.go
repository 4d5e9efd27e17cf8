package coinbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	marketdata "main/internal/domain/entity/marketdata"
	interfaces "main/internal/domain/interfaces"
)

func TestParseTickerMessage(t *testing.T) {
	data := []byte(`{
		"type": "ticker",
		"product_id": "BTC-USD",
		"time": "2026-03-14T12:30:45.123456789Z",
		"price": "68000.5",
		"last_size": "0.25",
		"side": "buy",
		"best_bid": "68000.4",
		"best_ask": "68000.6"
	}`)

	tick, err := ParseMessage(data)
	require.NoError(t, err)
	require.NotNil(t, tick)

	assert.Equal(t, "BTC-USD", tick.Symbol)
	assert.Equal(t, uint32(1773491445), tick.Seconds)
	assert.Equal(t, uint32(123456789), tick.Nanos)
	assert.Equal(t, float32(68000.5), tick.Price)
	assert.Equal(t, float32(0.25), tick.Volume)
	assert.Equal(t, marketdata.SideBuy, tick.Side)
	assert.Equal(t, float32(68000.4), tick.BestBid)
	assert.Equal(t, float32(68000.6), tick.BestAsk)
}

func TestParseSellSide(t *testing.T) {
	data := []byte(`{"type":"ticker","product_id":"ETH-USD","time":"2026-03-14T00:00:00Z","price":"1","last_size":"1","side":"sell","best_bid":"1","best_ask":"1"}`)

	tick, err := ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, marketdata.SideSell, tick.Side)
	assert.Equal(t, uint32(0), tick.Nanos, "whole-second timestamps carry zero nanos")
}

func TestParseControlMessagesAreSkipped(t *testing.T) {
	for _, data := range []string{
		`{"type":"subscriptions","channels":[{"name":"ticker"}]}`,
		`{"type":"heartbeat","sequence":1}`,
	} {
		tick, err := ParseMessage([]byte(data))
		require.NoError(t, err, data)
		require.Nil(t, tick, data)
	}
}

func TestParseMalformedMessages(t *testing.T) {
	cases := map[string]string{
		"invalid json":      `{"type":"ticker",`,
		"non-numeric price": `{"type":"ticker","product_id":"BTC-USD","time":"2026-03-14T00:00:00Z","price":"abc","last_size":"1","side":"buy","best_bid":"1","best_ask":"1"}`,
		"missing product":   `{"type":"ticker","time":"2026-03-14T00:00:00Z","price":"1","last_size":"1","side":"buy","best_bid":"1","best_ask":"1"}`,
		"bad timestamp":     `{"type":"ticker","product_id":"BTC-USD","time":"yesterday","price":"1","last_size":"1","side":"buy","best_bid":"1","best_ask":"1"}`,
		"unknown side":      `{"type":"ticker","product_id":"BTC-USD","time":"2026-03-14T00:00:00Z","price":"1","last_size":"1","side":"hold","best_bid":"1","best_ask":"1"}`,
		"nan price":         `{"type":"ticker","product_id":"BTC-USD","time":"2026-03-14T00:00:00Z","price":"NaN","last_size":"1","side":"buy","best_bid":"1","best_ask":"1"}`,
		"feed error":        `{"type":"error","message":"subscribe failed"}`,
	}

	for name, data := range cases {
		tick, err := ParseMessage([]byte(data))
		require.Nil(t, tick, name)
		require.ErrorIs(t, err, interfaces.ErrMalformedUpdate, name)
	}
}
