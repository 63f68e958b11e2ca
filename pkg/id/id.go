package id

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit, lexicographically sortable identifier encoded as 16 bytes
// big-endian: [8 bytes ms_timestamp][8 bytes sequence].
type ID [16]byte

// String returns the 32-digit lowercase hex form. Its string order matches
// the byte order of the ID, so it is safe to embed in ordered store keys.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// Compare returns -1, 0, 1 based on lexical comparison.
func (i ID) Compare(other ID) int { return bytes.Compare(i[:], other[:]) }

// Time returns the millisecond timestamp embedded in the ID.
func (i ID) Time() time.Time {
	return time.UnixMilli(int64(binary.BigEndian.Uint64(i[0:8])))
}

// Sequence returns the per-millisecond sequence embedded in the ID.
func (i ID) Sequence() uint64 { return binary.BigEndian.Uint64(i[8:16]) }

// Parse decodes the 32-digit hex form produced by String.
func Parse(s string) (ID, error) {
	var out ID
	if len(s) != hex.EncodedLen(len(out)) {
		return ID{}, fmt.Errorf("id: want %d hex digits, got %d", hex.EncodedLen(len(out)), len(s))
	}
	if _, err := hex.Decode(out[:], []byte(s)); err != nil {
		return ID{}, fmt.Errorf("id: %w", err)
	}
	return out, nil
}

// Generator produces monotonically increasing IDs per process.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint64
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator { return &Generator{} }

// NowMs returns current time in milliseconds since Unix epoch.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Next returns a new ID. A clock regression pins to the last seen millisecond;
// a sequence overflow waits for the next millisecond.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}

	switch {
	case ms != g.lastMs:
		g.sequence = 0
	case g.sequence == math.MaxUint64:
		for ms <= g.lastMs {
			time.Sleep(time.Millisecond / 8)
			ms = NowMs()
		}
		g.sequence = 0
	default:
		g.sequence++
	}

	g.lastMs = ms
	return makeID(ms, g.sequence)
}

// Floor makes every later ID from g sort after floor. Seeding a generator
// with the newest stored ID keeps keys ordered across restarts even when the
// wall clock moved backwards in between.
func (g *Generator) Floor(floor ID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := int64(binary.BigEndian.Uint64(floor[0:8]))
	seq := floor.Sequence()
	if seq == math.MaxUint64 {
		ms, seq = ms+1, 0
	}
	if ms > g.lastMs || (ms == g.lastMs && seq > g.sequence) {
		g.lastMs, g.sequence = ms, seq
	}
}

func makeID(ms int64, seq uint64) ID {
	var id ID
	binary.BigEndian.PutUint64(id[0:8], uint64(ms))
	binary.BigEndian.PutUint64(id[8:16], seq)
	return id
}
