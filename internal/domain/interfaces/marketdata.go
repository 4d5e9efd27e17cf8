package interfaces

import (
	"context"
	"errors"
	"time"

	marketdata "main/internal/domain/entity/marketdata"
)

// ErrMalformedUpdate marks a feed message that could not be turned into a
// valid tick. Handlers drop the message, count it, and keep streaming.
var ErrMalformedUpdate = errors.New("malformed market data update")

// TickFeed opens streaming sessions against the upstream exchange feed.
type TickFeed interface {
	// Open dials the feed and subscribes to updates for all given symbols
	// in a single request. Connection establishment and the subscribe write
	// are both bounded in time; exceeding either is reported as an error.
	Open(ctx context.Context, symbols []string) (TickSession, error)
}

// TickSession is one live subscription on one transport connection.
type TickSession interface {
	// Next blocks until the next inbound message. It returns:
	//   - (tick, nil) for a parsed market update,
	//   - (nil, nil) for control traffic (subscription acks, heartbeats),
	//   - (nil, err) wrapping ErrMalformedUpdate for a dropped message,
	//   - (nil, err) for a transport failure ending the session.
	Next() (*marketdata.Tick, error)
	Close() error
}

// SymbolSource yields the tradable symbol universe at startup.
type SymbolSource interface {
	OnlineSymbols(ctx context.Context) ([]string, error)
}

// TickStore persists ticks into per-symbol column files.
type TickStore interface {
	Append(tick *marketdata.Tick) error
	Flush() error
	DateChanged(now time.Time) bool
	Rotate(now time.Time) error
	Close() error
}
