package ingest

import (
	"github.com/tidwall/btree"

	marketdata "main/internal/domain/entity/marketdata"
)

// bufferedTick orders pending ticks by exchange timestamp, then symbol. seq
// breaks ties so that same-timestamp updates for one symbol are both retained
// and drained in arrival order.
type bufferedTick struct {
	tick marketdata.Tick
	seq  uint64
}

func lessBuffered(a, b bufferedTick) bool {
	if a.tick.Seconds != b.tick.Seconds {
		return a.tick.Seconds < b.tick.Seconds
	}
	if a.tick.Nanos != b.tick.Nanos {
		return a.tick.Nanos < b.tick.Nanos
	}
	if a.tick.Symbol != b.tick.Symbol {
		return a.tick.Symbol < b.tick.Symbol
	}
	return a.seq < b.seq
}

// Buffer accumulates one connection's pending ticks between flushes and
// yields them in timestamp order. It is owned by a single handler goroutine
// and never shared.
type Buffer struct {
	tree *btree.BTreeG[bufferedTick]
	seq  uint64
}

func NewBuffer() *Buffer {
	return &Buffer{tree: btree.NewBTreeG(lessBuffered)}
}

// Insert adds a tick in O(log n). Duplicate (timestamp, symbol) keys are
// kept, not deduplicated.
func (b *Buffer) Insert(tick marketdata.Tick) {
	b.seq++
	b.tree.Set(bufferedTick{tick: tick, seq: b.seq})
}

// Len reports the number of buffered ticks.
func (b *Buffer) Len() int {
	return b.tree.Len()
}

// Drain returns every buffered tick in ascending (seconds, nanos, symbol)
// order and empties the buffer.
func (b *Buffer) Drain() []marketdata.Tick {
	if b.tree.Len() == 0 {
		return nil
	}
	out := make([]marketdata.Tick, 0, b.tree.Len())
	b.tree.Scan(func(item bufferedTick) bool {
		out = append(out, item.tick)
		return true
	})
	b.tree = btree.NewBTreeG(lessBuffered)
	return out
}
