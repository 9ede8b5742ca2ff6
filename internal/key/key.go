package key

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	ErrUnsupportedDataType = errors.New("unsupported key data type")
	ErrBadKeyLength        = errors.New("bad key length")
	ErrNoSegments          = errors.New("key has no segments")
)

// Key is one logical key: an ordered list of segments sharing a number.
// Segments sharing a number form a composite key which compares byte-wise.
type Key struct {
	Segments []Definition
}

// New creates a new Key from its segments, ordered by SegmentIndex.
func New(segments ...Definition) *Key {
	k := &Key{Segments: append([]Definition{}, segments...)}
	sort.SliceStable(k.Segments, func(i, j int) bool {
		return k.Segments[i].SegmentIndex < k.Segments[j].SegmentIndex
	})
	return k
}

// Group collects segment definitions into keys by number.
func Group(defs []Definition) map[uint16]*Key {
	bySegment := make(map[uint16][]Definition)
	for _, d := range defs {
		bySegment[d.Number] = append(bySegment[d.Number], d)
	}
	keys := make(map[uint16]*Key, len(bySegment))
	for number, segments := range bySegment {
		keys[number] = New(segments...)
	}
	return keys
}

// Numbers returns the key numbers of keys in ascending order.
func Numbers(keys map[uint16]*Key) []uint16 {
	numbers := make([]uint16, 0, len(keys))
	for n := range keys {
		numbers = append(numbers, n)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers
}

// PrimarySegment returns segment 0, whose type and attributes govern the key.
func (k *Key) PrimarySegment() Definition {
	return k.Segments[0]
}

func (k *Key) Number() uint16 {
	return k.PrimarySegment().Number
}

func (k *Key) IsComposite() bool {
	return len(k.Segments) > 1
}

func (k *Key) IsUnique() bool {
	return k.PrimarySegment().IsUnique()
}

func (k *Key) IsModifiable() bool {
	return k.PrimarySegment().IsModifiable()
}

func (k *Key) IsNullable() bool {
	return k.PrimarySegment().IsNullable()
}

// IsAutoInc reports whether the key value is engine generated.
func (k *Key) IsAutoInc() bool {
	return !k.IsComposite() && k.PrimarySegment().DataType == AutoInc
}

// Length is the total number of bytes across all segments.
func (k *Key) Length() int {
	n := 0
	for _, s := range k.Segments {
		n += int(s.Length)
	}
	return n
}

// ColumnName is the data_t column holding this key's projected value.
func (k *Key) ColumnName() string {
	return "key_" + strconv.Itoa(int(k.Number()))
}

// Validate checks that every record can be projected through this key.
func (k *Key) Validate() error {
	if len(k.Segments) == 0 {
		return ErrNoSegments
	}
	for i, s := range k.Segments {
		if s.Number != k.Number() {
			return fmt.Errorf("key %d segment %d has number %d", k.Number(), i, s.Number)
		}
		if s.Length == 0 {
			return fmt.Errorf("key %d segment %d: %w", k.Number(), i, ErrBadKeyLength)
		}
	}
	if k.IsComposite() {
		return nil
	}

	primary := k.PrimarySegment()
	switch {
	case primary.DataType.IsString():
		return nil
	case primary.DataType.IsNumeric():
		if !validIntegerWidth(int(primary.Length)) {
			return fmt.Errorf("key %d %s length %d: %w", k.Number(), primary.DataType, primary.Length, ErrBadKeyLength)
		}
		return nil
	}
	return fmt.Errorf("key %d type %s: %w", k.Number(), primary.DataType, ErrUnsupportedDataType)
}

func validIntegerWidth(n int) bool {
	return n == 2 || n == 4 || n == 6 || n == 8
}

// Extract returns the raw key bytes of record. Composite keys concatenate their
// segments in order. Bytes beyond the end of record read as zero.
func (k *Key) Extract(record []byte) []byte {
	out := make([]byte, 0, k.Length())
	for _, s := range k.Segments {
		out = append(out, window(record, int(s.Offset), int(s.Length))...)
	}
	return out
}

func window(record []byte, offset, length int) []byte {
	w := make([]byte, length)
	if offset < len(record) {
		copy(w, record[offset:])
	}
	return w
}

// Project maps a record to this key's value.
func (k *Key) Project(record []byte) (Value, error) {
	return k.FromKeyData(k.Extract(record))
}

// FromKeyData maps raw key bytes, as a caller passes them to a seek, to a value.
// Short input is zero padded to the key length.
func (k *Key) FromKeyData(data []byte) (Value, error) {
	data = window(data, 0, k.Length())

	primary := k.PrimarySegment()
	if k.isNull(data) {
		return Null(), nil
	}
	if k.IsComposite() {
		return NewBytes(data), nil
	}

	switch {
	case primary.DataType.IsString():
		return NewText(nullTerminated(data)), nil
	case primary.DataType.IsSigned():
		if !validIntegerWidth(len(data)) {
			return Value{}, fmt.Errorf("integer width %d: %w", len(data), ErrBadKeyLength)
		}
		return NewSigned(signExtend(littleEndian(data), len(data))), nil
	case primary.DataType.IsUnsigned():
		if !validIntegerWidth(len(data)) {
			return Value{}, fmt.Errorf("unsigned width %d: %w", len(data), ErrBadKeyLength)
		}
		return NewUnsigned(littleEndian(data)), nil
	}
	return Value{}, fmt.Errorf("key %d type %s: %w", k.Number(), primary.DataType, ErrUnsupportedDataType)
}

// isNull reports whether key bytes hold the null value. With NullAnySegment one
// segment filled with its NullValue is enough; otherwise every segment must be.
func (k *Key) isNull(data []byte) bool {
	if !k.IsNullable() {
		return false
	}
	anySegment := k.PrimarySegment().Attributes.Has(NullAnySegment)
	offset := 0
	for _, s := range k.Segments {
		null := allBytesEqual(data[offset:offset+int(s.Length)], s.NullValue)
		offset += int(s.Length)
		if null && anySegment {
			return true
		}
		if !null && !anySegment {
			return false
		}
	}
	return !anySegment
}

// PutUnsigned writes v little-endian into the primary segment's window of record,
// truncated to the segment width. record must be long enough to hold the window.
func (k *Key) PutUnsigned(record []byte, v uint64) {
	primary := k.PrimarySegment()
	w := record[primary.Offset : int(primary.Offset)+int(primary.Length)]
	for i := range w {
		w[i] = byte(v)
		v >>= 8
	}
}

// End returns the offset just past the key's last byte in a record.
func (k *Key) End() int {
	end := 0
	for _, s := range k.Segments {
		if e := int(s.Offset) + int(s.Length); e > end {
			end = e
		}
	}
	return end
}

// WindowInside reports whether every segment of the key lies within n bytes.
func (k *Key) WindowInside(n int) bool {
	return k.End() <= n
}

// IsZeroIn reports whether the key bytes of record are all zero.
func (k *Key) IsZeroIn(record []byte) bool {
	return allBytesEqual(k.Extract(record), 0)
}

func allBytesEqual(data []byte, b byte) bool {
	for _, c := range data {
		if c != b {
			return false
		}
	}
	return true
}

func nullTerminated(data []byte) string {
	for i, c := range data {
		if c == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}

func littleEndian(data []byte) uint64 {
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v
}

func signExtend(v uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(v<<shift) >> shift
}
