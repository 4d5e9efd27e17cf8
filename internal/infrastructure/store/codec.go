package store

import (
	"encoding/binary"
	"math"

	marketdata "main/internal/domain/entity/marketdata"
)

// RecordWidth is the fixed size of one record in every column file, so a
// reader can locate record i at byte offset i*RecordWidth and binary-search
// by timestamp without an index.
const RecordWidth = 4

// Column names, in on-disk encoding order.
const (
	ColumnTime    = "time"
	ColumnNanos   = "nanos"
	ColumnPrice   = "price"
	ColumnVolume  = "volume"
	ColumnSide    = "side"
	ColumnBestBid = "best_bid"
	ColumnBestAsk = "best_ask"
)

// Columns lists every column file kept per symbol per date.
var Columns = []string{
	ColumnTime,
	ColumnNanos,
	ColumnPrice,
	ColumnVolume,
	ColumnSide,
	ColumnBestBid,
	ColumnBestAsk,
}

// NumColumns is len(Columns), exported for sizing.
const NumColumns = 7

// Record is the columnar little-endian encoding of one tick: one
// RecordWidth-byte cell per column, in Columns order.
type Record [NumColumns][RecordWidth]byte

// Encode maps a tick to its fixed-width little-endian representation.
func Encode(t *marketdata.Tick) Record {
	var r Record
	binary.LittleEndian.PutUint32(r[0][:], t.Seconds)
	binary.LittleEndian.PutUint32(r[1][:], t.Nanos)
	binary.LittleEndian.PutUint32(r[2][:], math.Float32bits(t.Price))
	binary.LittleEndian.PutUint32(r[3][:], math.Float32bits(t.Volume))
	binary.LittleEndian.PutUint32(r[4][:], uint32(t.Side))
	binary.LittleEndian.PutUint32(r[5][:], math.Float32bits(t.BestBid))
	binary.LittleEndian.PutUint32(r[6][:], math.Float32bits(t.BestAsk))
	return r
}

// Decode is the inverse of Encode. The symbol is not part of the record; it
// is implied by the file the record came from.
func Decode(r Record) marketdata.Tick {
	return marketdata.Tick{
		Seconds: binary.LittleEndian.Uint32(r[0][:]),
		Nanos:   binary.LittleEndian.Uint32(r[1][:]),
		Price:   math.Float32frombits(binary.LittleEndian.Uint32(r[2][:])),
		Volume:  math.Float32frombits(binary.LittleEndian.Uint32(r[3][:])),
		Side:    marketdata.Side(binary.LittleEndian.Uint32(r[4][:])),
		BestBid: math.Float32frombits(binary.LittleEndian.Uint32(r[5][:])),
		BestAsk: math.Float32frombits(binary.LittleEndian.Uint32(r[6][:])),
	}
}
