package btrieve

import (
	"encoding/binary"
	"fmt"

	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
)

const (
	FileSpecSize = 16
	KeySpecSize  = 16

	fileVersion = 0x60
)

// FileSpec is the file-level half of a Stat result.
type FileSpec struct {
	RecordLength uint16
	PageSize     uint16
	KeyCount     uint8
	RecordCount  uint32
}

// MarshalBinary encodes the spec in the legacy FILESPEC layout.
func (f FileSpec) MarshalBinary() ([]byte, error) {
	b := make([]byte, FileSpecSize)
	binary.LittleEndian.PutUint16(b[0:], f.RecordLength)
	binary.LittleEndian.PutUint16(b[2:], f.PageSize)
	b[4] = f.KeyCount
	b[5] = fileVersion
	binary.LittleEndian.PutUint32(b[6:], f.RecordCount)
	// flags, extra pointers, physical page size and preallocated pages stay zero
	return b, nil
}

// KeySpec describes one key segment in a Stat result.
type KeySpec struct {
	Position   uint16
	Length     uint16
	Attributes key.Attribute
	UniqueKeys uint32
	DataType   key.DataType
	NullValue  byte
	Number     uint8
}

// MarshalBinary encodes the spec in the legacy KEYSPEC layout.
func (k KeySpec) MarshalBinary() ([]byte, error) {
	b := make([]byte, KeySpecSize)
	binary.LittleEndian.PutUint16(b[0:], k.Position)
	binary.LittleEndian.PutUint16(b[2:], k.Length)
	binary.LittleEndian.PutUint16(b[4:], uint16(k.Attributes))
	binary.LittleEndian.PutUint32(b[6:], k.UniqueKeys)
	b[10] = uint8(k.DataType)
	b[11] = k.NullValue
	b[14] = k.Number
	return b, nil
}

// Stat describes the file and every key segment, ordered by key number and
// then segment.
func (p *Processor) Stat() (*FileSpec, []KeySpec, error) {
	count, err := p.GetRecordCount()
	if err != nil {
		return nil, nil, err
	}

	keys := p.mm.Keys()
	fs := &FileSpec{
		RecordLength: uint16(p.RecordLength()),
		PageSize:     uint16(p.PageLength()),
		KeyCount:     uint8(len(keys)),
		RecordCount:  uint32(count),
	}

	var specs []KeySpec
	for _, number := range p.mm.KeyNumbers() {
		k := keys[number]
		var distinct int
		query := "SELECT COUNT(DISTINCT " + k.ColumnName() + ") FROM " + metadata.DataTableName
		if err := p.db.QueryRow(query).Scan(&distinct); err != nil {
			return nil, nil, fmt.Errorf("failed to count key %d values: %w", number, err)
		}
		for _, s := range k.Segments {
			specs = append(specs, KeySpec{
				Position:   s.Position(),
				Length:     s.Length,
				Attributes: s.Attributes,
				UniqueKeys: uint32(distinct),
				DataType:   s.DataType,
				NullValue:  s.NullValue,
				Number:     uint8(s.Number),
			})
		}
	}
	return fs, specs, nil
}
