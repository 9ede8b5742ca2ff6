package key

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueBasic(t *testing.T) {
	// Test zero value is NULL
	var v Value
	assert.True(t, v.IsNull())
	assert.Nil(t, v.Arg())
	assert.Equal(t, "NULL", v.String())

	// Test text
	text := NewText("hello")
	assert.Equal(t, "hello", text.AsText())
	assert.Equal(t, "hello", text.Arg())
	assert.Equal(t, `"hello"`, text.String())

	// Test integers
	assert.Equal(t, int64(-3), NewSigned(-3).Arg())
	assert.Equal(t, "-3", NewSigned(-3).String())
	assert.Equal(t, "18446744073709551615", NewUnsigned(^uint64(0)).String())

	// Test bytes are copied
	raw := []byte{1, 2}
	b := NewBytes(raw)
	raw[0] = 9
	assert.Equal(t, []byte{1, 2}, b.AsBytes())
	assert.Equal(t, "0x0102", b.String())
}

func TestValueCompare(t *testing.T) {
	// Test equality
	assert.True(t, NewSigned(10).Equal(NewSigned(10)))
	assert.False(t, NewSigned(10).Equal(NewUnsigned(10)))
	assert.True(t, Null().Equal(Value{}))
	assert.True(t, NewBytes([]byte{1}).Equal(NewBytes([]byte{1})))

	// Test ordering within a kind
	assert.Equal(t, -1, NewSigned(-5).Compare(NewSigned(3)))
	assert.Equal(t, 1, NewUnsigned(7).Compare(NewUnsigned(3)))
	assert.Equal(t, -1, NewText("apple").Compare(NewText("banana")))
	assert.Equal(t, 0, NewText("x").Compare(NewText("x")))
	assert.Equal(t, 1, NewBytes([]byte{2}).Compare(NewBytes([]byte{1, 9})))

	// Test unsigned values at or above 2^63 sort as their bound pattern does
	assert.Equal(t, -1, NewUnsigned(1<<63).Compare(NewUnsigned(5)))
	assert.Equal(t, -1, NewUnsigned(^uint64(0)).Compare(NewUnsigned(0)))
	assert.Equal(t, 1, NewUnsigned(^uint64(0)).Compare(NewUnsigned(1<<63)))
	assert.Equal(t, int64(math.MinInt64), NewUnsigned(1<<63).Arg())

	// Test NULL sorts first
	assert.Equal(t, -1, Null().Compare(NewSigned(-1000)))
	assert.Equal(t, 1, NewText("").Compare(Null()))
}
