package marketdata

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Side represents BUY/SELL direction derived from the incoming stream.
// It is persisted as a full 4-byte field so every column shares one record width.
type Side uint32

const (
	SideSell Side = 0
	SideBuy  Side = 1
)

var (
	ErrNonFiniteField = errors.New("tick field is not finite")
	ErrNanosRange     = errors.New("tick nanos out of range")
)

// Tick models a single timestamped market update (trade print plus the
// top of book quoted at that moment) for one symbol.
type Tick struct {
	Symbol  string
	Seconds uint32
	Nanos   uint32
	Price   float32
	Volume  float32
	Side    Side
	BestBid float32
	BestAsk float32
}

// Time reconstructs the exchange timestamp in UTC.
func (t *Tick) Time() time.Time {
	return time.Unix(int64(t.Seconds), int64(t.Nanos)).UTC()
}

// Validate rejects ticks that must never reach the ordering buffer:
// non-finite numeric fields and sub-second remainders outside [0, 1s).
func (t *Tick) Validate() error {
	if t.Nanos > 999_999_999 {
		return fmt.Errorf("%w: %d", ErrNanosRange, t.Nanos)
	}
	for _, field := range []struct {
		name  string
		value float32
	}{
		{"price", t.Price},
		{"volume", t.Volume},
		{"best_bid", t.BestBid},
		{"best_ask", t.BestAsk},
	} {
		v := float64(field.value)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s", ErrNonFiniteField, field.name)
		}
	}
	return nil
}
