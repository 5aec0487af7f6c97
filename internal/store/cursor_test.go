package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorBytesRoundTrip(t *testing.T) {
	c1 := NewCursor1(42)
	assert.Equal(t, c1, DecodeCursor(c1.Bytes()))

	c2 := NewCursor2(1, 2)
	assert.Equal(t, c2, DecodeCursor(c2.Bytes()))

	c3 := NewCursor3(1, 2, 3)
	assert.Equal(t, c3, DecodeCursor(c3.Bytes()))
}

func TestCursorBytesLexicographicOrderMatchesNumericOrder(t *testing.T) {
	small := NewCursor1(5)
	big := NewCursor1(6)
	assert.True(t, string(small.Bytes()) < string(big.Bytes()))

	smallPair := NewCursor2(1, 100)
	bigPair := NewCursor2(1, 101)
	assert.True(t, string(smallPair.Bytes()) < string(bigPair.Bytes()))
}

func TestCursorBAndCPanicOnTooFewFields(t *testing.T) {
	c := NewCursor1(1)
	assert.Panics(t, func() { c.B() })
	assert.Panics(t, func() { c.C() })
}

func TestCursorSuccessorIncrementsFirstField(t *testing.T) {
	c := NewCursor2(5, 99)
	succ := c.Successor()
	assert.Equal(t, uint64(6), succ.A())
	assert.Equal(t, 1, succ.Fields())
}

func TestDecodeCursorPanicsOnBadLength(t *testing.T) {
	assert.Panics(t, func() { DecodeCursor([]byte{1, 2, 3}) })
}

func TestUintFromIntPreservesOrder(t *testing.T) {
	vals := []int64{math.MinInt64, -100, -1, 0, 1, 100, math.MaxInt64}
	for i := 1; i < len(vals); i++ {
		prev := uintFromInt(vals[i-1])
		cur := uintFromInt(vals[i])
		require.Less(t, prev, cur)
	}
}

func TestIntFromUintInvertsUintFromInt(t *testing.T) {
	for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		assert.Equal(t, v, intFromUint(uintFromInt(v)))
	}
}

func TestHashSeed64IsStableAndCaseInsensitive(t *testing.T) {
	a := hashSeed64(7, "Alice")
	b := hashSeed64(7, "alice")
	assert.Equal(t, a, b)

	c := hashSeed64(8, "alice")
	assert.NotEqual(t, a, c)
}
