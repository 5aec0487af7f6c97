package store

import (
	"encoding/hex"
	"errors"
)

// PageCursor is the opaque resumption token threaded through every list
// operation (§4.6). It is either empty or a pair (K, V) of 64-bit values:
// K is the sort key (or, for ranked feeds, the IEEE-754 bits of a rank),
// V is the tiebreaker id.
type PageCursor struct {
	K   uint64
	V   uint64
	set bool
}

// Empty reports whether the cursor carries no position (start of feed).
func (c *PageCursor) Empty() bool { return c == nil || !c.set }

// EncodeCursor renders a PageCursor as the hex string clients pass back on
// the next request; an empty cursor renders as the empty string (§4.6).
func EncodeCursor(c *PageCursor) string {
	if c.Empty() {
		return ""
	}
	b := make([]byte, 16)
	putUint64(b[0:8], c.K)
	putUint64(b[8:16], c.V)
	return hex.EncodeToString(b)
}

// DecodePageCursor parses a hex-encoded PageCursor; an empty string decodes to
// an empty cursor.
func DecodePageCursor(s string) (*PageCursor, error) {
	if s == "" {
		return &PageCursor{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 16 {
		return nil, errors.New("store: malformed page cursor")
	}
	return &PageCursor{K: getUint64(b[0:8]), V: getUint64(b[8:16]), set: true}, nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// NextCursorDesc computes the resumption cursor for a time-descending
// list (§4.6: "the next page starts strictly before the last emitted
// element").
func NextCursorDesc(scope, lastKey uint64) *PageCursor {
	if lastKey == 0 {
		return &PageCursor{}
	}
	return &PageCursor{K: scope, V: lastKey - 1, set: true}
}

// NextCursorAsc computes the resumption cursor for a time-ascending list
// (§4.6: "skip to strictly greater").
func NextCursorAsc(scope, lastKey uint64) *PageCursor {
	return &PageCursor{K: scope, V: lastKey, set: true}
}
