package convert

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/record"
)

var ErrInvalidModel = errors.New("invalid model")

// Model is a parsed legacy file: its metadata, key segments and records in
// physical order.
type Model struct {
	Metadata record.FileMetadata
	Keys     []key.Definition
	Records  [][]byte
}

// Validate checks the model can be converted.
func (m *Model) Validate() error {
	if m.Metadata.RecordLength <= 0 {
		return fmt.Errorf("%w: record length %d", ErrInvalidModel, m.Metadata.RecordLength)
	}
	seen := make(map[[2]int]bool, len(m.Keys))
	for _, d := range m.Keys {
		id := [2]int{int(d.Number), d.SegmentIndex}
		if seen[id] {
			return fmt.Errorf("%w: duplicate key %d segment %d", ErrInvalidModel, d.Number, d.SegmentIndex)
		}
		seen[id] = true
	}
	for number, k := range key.Group(m.Keys) {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("%w: key %d: %w", ErrInvalidModel, number, err)
		}
	}
	return nil
}

// GroupedKeys returns the model's key segments grouped into keys.
func (m *Model) GroupedKeys() map[uint16]*key.Key {
	return key.Group(m.Keys)
}

type modelFile struct {
	RecordLength         int           `toml:"record_length"`
	PhysicalRecordLength int           `toml:"physical_record_length"`
	PageLength           int           `toml:"page_length"`
	Keys                 []keyEntry    `toml:"keys"`
	Records              []recordEntry `toml:"records"`
}

type keyEntry struct {
	Number     uint16   `toml:"number"`
	Segment    int      `toml:"segment"`
	Offset     uint16   `toml:"offset"`
	Length     uint16   `toml:"length"`
	DataType   string   `toml:"data_type"`
	Attributes []string `toml:"attributes"`
	NullValue  uint8    `toml:"null_value"`
}

type recordEntry struct {
	Hex string `toml:"hex"`
}

// LoadModelFile decodes a TOML model description.
func LoadModelFile(path string) (*Model, error) {
	var mf modelFile
	md, err := toml.DecodeFile(path, &mf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown field %s in %s", ErrInvalidModel, undecoded[0], path)
	}
	return mf.model()
}

func (mf *modelFile) model() (*Model, error) {
	m := &Model{
		Metadata: record.FileMetadata{
			RecordLength:         mf.RecordLength,
			PhysicalRecordLength: mf.PhysicalRecordLength,
			PageLength:           mf.PageLength,
		},
	}
	if m.Metadata.PhysicalRecordLength == 0 {
		m.Metadata.PhysicalRecordLength = m.Metadata.RecordLength
	}

	for i, k := range mf.Keys {
		dataType, ok := key.ParseDataType(k.DataType)
		if !ok {
			return nil, fmt.Errorf("%w: key entry %d: data type %q", ErrInvalidModel, i, k.DataType)
		}
		var attributes key.Attribute
		for _, name := range k.Attributes {
			a, ok := key.ParseAttribute(name)
			if !ok {
				return nil, fmt.Errorf("%w: key entry %d: attribute %q", ErrInvalidModel, i, name)
			}
			attributes |= a
		}
		m.Keys = append(m.Keys, key.Definition{
			Number:       k.Number,
			SegmentIndex: k.Segment,
			Offset:       k.Offset,
			Length:       k.Length,
			DataType:     dataType,
			Attributes:   attributes,
			NullValue:    k.NullValue,
		})
	}

	for i, r := range mf.Records {
		data, err := hex.DecodeString(strings.Join(strings.Fields(r.Hex), ""))
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidModel, i+1, err)
		}
		m.Records = append(m.Records, data)
	}
	return m, nil
}

// EncodeModel writes m as a TOML model description readable by LoadModelFile.
func EncodeModel(w io.Writer, m *Model) error {
	mf := modelFile{
		RecordLength:         m.Metadata.RecordLength,
		PhysicalRecordLength: m.Metadata.PhysicalRecordLength,
		PageLength:           m.Metadata.PageLength,
	}
	for _, d := range m.Keys {
		var attributes []string
		if d.Attributes != 0 {
			attributes = strings.Split(d.Attributes.String(), "|")
		}
		mf.Keys = append(mf.Keys, keyEntry{
			Number:     d.Number,
			Segment:    d.SegmentIndex,
			Offset:     d.Offset,
			Length:     d.Length,
			DataType:   d.DataType.String(),
			Attributes: attributes,
			NullValue:  d.NullValue,
		})
	}
	for _, r := range m.Records {
		mf.Records = append(mf.Records, recordEntry{Hex: hex.EncodeToString(r)})
	}
	if err := toml.NewEncoder(w).Encode(mf); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}
