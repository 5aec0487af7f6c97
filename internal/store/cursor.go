package store

import (
	"encoding/binary"
	"hash/fnv"
	"strings"
)

// Cursor is a fixed-width composite key of up to three 64-bit fields,
// encoded big-endian so that byte-lexicographic order matches numeric
// order. It is the sort key used by every secondary index (§4.1) and, in
// its two-field form, the opaque resumption token of the page cursor
// protocol (§4.6).
type Cursor struct {
	a, b, c  uint64
	n        int // number of populated fields (1, 2, or 3)
}

// NewCursor1 builds a single-field cursor, e.g. a global time-ordered key.
func NewCursor1(a uint64) Cursor { return Cursor{a: a, n: 1} }

// NewCursor2 builds a two-field cursor, e.g. (board_id, created_at).
func NewCursor2(a, b uint64) Cursor { return Cursor{a: a, b: b, n: 2} }

// NewCursor3 builds a three-field cursor (reserved for future indexes
// that need a secondary tiebreaker beyond the entity id appended by the
// index manager).
func NewCursor3(a, b, c uint64) Cursor { return Cursor{a: a, b: b, c: c, n: 3} }

// A returns the first field.
func (c Cursor) A() uint64 { return c.a }

// B returns the second field. Panics if the cursor has fewer than two fields.
func (c Cursor) B() uint64 {
	if c.n < 2 {
		panic("store: Cursor.B() on a single-field cursor")
	}
	return c.b
}

// C returns the third field. Panics if the cursor has fewer than three fields.
func (c Cursor) C() uint64 {
	if c.n < 3 {
		panic("store: Cursor.C() on a cursor with fewer than three fields")
	}
	return c.c
}

// Fields reports how many 64-bit fields this cursor carries.
func (c Cursor) Fields() int { return c.n }

// Successor returns Cursor(a+1), used to bound range scans exclusive of
// the current first field (e.g. "everything strictly after a").
func (c Cursor) Successor() Cursor {
	return Cursor{a: c.a + 1, n: 1}
}

// Bytes encodes the cursor big-endian, n*8 bytes long.
func (c Cursor) Bytes() []byte {
	buf := make([]byte, 8*c.n)
	binary.BigEndian.PutUint64(buf[0:8], c.a)
	if c.n >= 2 {
		binary.BigEndian.PutUint64(buf[8:16], c.b)
	}
	if c.n >= 3 {
		binary.BigEndian.PutUint64(buf[16:24], c.c)
	}
	return buf
}

// DecodeCursor decodes a big-endian byte slice of length 8, 16, or 24 into
// a Cursor. It panics on any other length — a malformed index key is a
// storage bug, not a recoverable input.
func DecodeCursor(b []byte) Cursor {
	switch len(b) {
	case 8:
		return NewCursor1(binary.BigEndian.Uint64(b))
	case 16:
		return NewCursor2(binary.BigEndian.Uint64(b[0:8]), binary.BigEndian.Uint64(b[8:16]))
	case 24:
		return NewCursor3(binary.BigEndian.Uint64(b[0:8]), binary.BigEndian.Uint64(b[8:16]), binary.BigEndian.Uint64(b[16:24]))
	default:
		panic("store: DecodeCursor: bad length")
	}
}

// uintFromInt is the order-preserving transform that maps a signed int64
// karma value into the unsigned range [0, U64_MAX] so it can be used as a
// sort key in an unsigned ordered store (§4.1). It is the classic
// "flip the sign bit" trick: offsetting every value by -math.MinInt64
// (equivalently XOR-ing the sign bit) preserves order because it is a
// strictly monotonic shift of the whole signed range.
func uintFromInt(k int64) uint64 {
	return uint64(k) ^ (1 << 63)
}

// intFromUint inverts uintFromInt.
func intFromUint(u uint64) int64 {
	return int64(u ^ (1 << 63))
}

// hashSeed64 hashes a lowercased string into a stable 64-bit value using a
// per-database seed, for use as a fixed-width key in name/email indexes
// (§4.1, SPEC_FULL "Hash-seeded name indexes"). FNV-1a is seeded by
// folding the seed into the initial hash state.
func hashSeed64(seed uint64, s string) uint64 {
	h := fnv.New64a()
	var seedBuf [8]byte
	binary.BigEndian.PutUint64(seedBuf[:], seed)
	_, _ = h.Write(seedBuf[:])
	_, _ = h.Write([]byte(strings.ToLower(s)))
	return h.Sum64()
}
