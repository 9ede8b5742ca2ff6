package key

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindText
	KindSigned
	KindUnsigned
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindSigned:
		return "signed"
	case KindUnsigned:
		return "unsigned"
	case KindBytes:
		return "bytes"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a projected key value: text, signed or unsigned integer, raw bytes, or NULL.
// The zero Value is NULL.
type Value struct {
	kind Kind
	text string
	num  uint64
	raw  []byte
}

// Null returns the NULL value.
func Null() Value {
	return Value{}
}

// NewText creates a new text Value.
func NewText(s string) Value {
	return Value{kind: KindText, text: s}
}

// NewSigned creates a new signed integer Value.
func NewSigned(v int64) Value {
	return Value{kind: KindSigned, num: uint64(v)}
}

// NewUnsigned creates a new unsigned integer Value.
func NewUnsigned(v uint64) Value {
	return Value{kind: KindUnsigned, num: v}
}

// NewBytes creates a new byte Value. The slice is copied.
func NewBytes(b []byte) Value {
	return Value{kind: KindBytes, raw: append([]byte{}, b...)}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsText returns the text payload; empty for other kinds.
func (v Value) AsText() string {
	return v.text
}

// AsSigned returns the signed payload; the bit pattern for unsigned values.
func (v Value) AsSigned() int64 {
	return int64(v.num)
}

// AsUnsigned returns the unsigned payload; the bit pattern for signed values.
func (v Value) AsUnsigned() uint64 {
	return v.num
}

// AsBytes returns the byte payload.
func (v Value) AsBytes() []byte {
	return v.raw
}

// Arg returns the value as a database/sql argument.
// Unsigned values are bound by their 64-bit pattern since SQLite integers are signed.
func (v Value) Arg() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindSigned, KindUnsigned:
		return int64(v.num)
	case KindBytes:
		return v.raw
	}
	return nil
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindSigned, KindUnsigned:
		return v.num == other.num
	case KindBytes:
		return bytes.Equal(v.raw, other.raw)
	}
	return true
}

// Compare returns -1, 0 or 1 in index order. NULL sorts before every other value
// and mismatched kinds order by kind. Unsigned values compare by the signed
// 64-bit pattern Arg binds, so values of 2^63 and above sort below zero as
// they do in a key column.
func (v Value) Compare(other Value) int {
	if v.kind != other.kind {
		if v.kind < other.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindText:
		return compareOrdered(v.text, other.text)
	case KindSigned, KindUnsigned:
		return compareOrdered(int64(v.num), int64(other.num))
	case KindBytes:
		return bytes.Compare(v.raw, other.raw)
	}
	return 0
}

func compareOrdered[T int64 | string](a, b T) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

// String returns a string representation of the value.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.text)
	case KindSigned:
		return strconv.FormatInt(int64(v.num), 10)
	case KindUnsigned:
		return strconv.FormatUint(v.num, 10)
	case KindBytes:
		return "0x" + hex.EncodeToString(v.raw)
	}
	return "NULL"
}

// GoString is used by %#v.
func (v Value) GoString() string {
	return fmt.Sprintf("key.Value{%s: %s}", v.kind, v.String())
}
