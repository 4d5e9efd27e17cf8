package coinbase

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	marketdata "main/internal/domain/entity/marketdata"
	interfaces "main/internal/domain/interfaces"
)

type channelRequest struct {
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids,omitempty"`
}

type subscribeRequest struct {
	Type     string           `json:"type"`
	Channels []channelRequest `json:"channels"`
}

type envelope struct {
	Type string `json:"type"`
}

type tickerMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Time      string `json:"time"`
	Price     string `json:"price"`
	LastSize  string `json:"last_size"`
	Side      string `json:"side"`
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
}

// ParseMessage turns one raw feed message into a tick. Non-ticker messages
// yield (nil, nil); malformed ones wrap interfaces.ErrMalformedUpdate.
func ParseMessage(data []byte) (*marketdata.Tick, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("decode message: %v", err)
	}
	switch env.Type {
	case "ticker":
		return parseTicker(data)
	case "error":
		return nil, malformed("feed rejected request: %s", data)
	default:
		// Subscription acks, heartbeats, status noise.
		return nil, nil
	}
}

func parseTicker(data []byte) (*marketdata.Tick, error) {
	var msg tickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, malformed("decode ticker: %v", err)
	}
	if msg.ProductID == "" {
		return nil, malformed("ticker without product_id")
	}

	ts, err := time.Parse(time.RFC3339Nano, msg.Time)
	if err != nil {
		return nil, malformed("parse time %q: %v", msg.Time, err)
	}
	seconds := ts.Unix()
	if seconds < 0 || seconds > math.MaxUint32 {
		return nil, malformed("time %q outside representable range", msg.Time)
	}

	price, err := parsePrice(msg.Price, "price")
	if err != nil {
		return nil, err
	}
	volume, err := parsePrice(msg.LastSize, "last_size")
	if err != nil {
		return nil, err
	}
	bestBid, err := parsePrice(msg.BestBid, "best_bid")
	if err != nil {
		return nil, err
	}
	bestAsk, err := parsePrice(msg.BestAsk, "best_ask")
	if err != nil {
		return nil, err
	}

	var side marketdata.Side
	switch msg.Side {
	case "buy":
		side = marketdata.SideBuy
	case "sell":
		side = marketdata.SideSell
	default:
		return nil, malformed("unrecognized side %q", msg.Side)
	}

	tick := &marketdata.Tick{
		Symbol:  msg.ProductID,
		Seconds: uint32(seconds),
		Nanos:   uint32(ts.Nanosecond()),
		Price:   price,
		Volume:  volume,
		Side:    side,
		BestBid: bestBid,
		BestAsk: bestAsk,
	}
	if err := tick.Validate(); err != nil {
		return nil, malformed("%v", err)
	}
	return tick, nil
}

func parsePrice(raw, field string) (float32, error) {
	value, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, malformed("parse %s %q: %v", field, raw, err)
	}
	return float32(value), nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", interfaces.ErrMalformedUpdate, fmt.Sprintf(format, args...))
}
