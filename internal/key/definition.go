package key

import "fmt"

// DataType is the legacy extended data type code of a key segment.
type DataType uint8

const (
	String         DataType = 0
	Integer        DataType = 1
	Float          DataType = 2
	Date           DataType = 3
	Time           DataType = 4
	Decimal        DataType = 5
	Money          DataType = 6
	Logical        DataType = 7
	Numeric        DataType = 8
	Bfloat         DataType = 9
	Lstring        DataType = 10
	Zstring        DataType = 11
	Unsigned       DataType = 13
	UnsignedBinary DataType = 14
	AutoInc        DataType = 15
	OldAscii       DataType = 32
	OldBinary      DataType = 33
)

var dataTypeNames = map[DataType]string{
	String:         "String",
	Integer:        "Integer",
	Float:          "Float",
	Date:           "Date",
	Time:           "Time",
	Decimal:        "Decimal",
	Money:          "Money",
	Logical:        "Logical",
	Numeric:        "Numeric",
	Bfloat:         "Bfloat",
	Lstring:        "Lstring",
	Zstring:        "Zstring",
	Unsigned:       "Unsigned",
	UnsignedBinary: "UnsignedBinary",
	AutoInc:        "AutoInc",
	OldAscii:       "OldAscii",
	OldBinary:      "OldBinary",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", uint8(d))
}

// ParseDataType returns the data type with the given name, case-sensitive as printed by String.
func ParseDataType(name string) (DataType, bool) {
	for d, n := range dataTypeNames {
		if n == name {
			return d, true
		}
	}
	return 0, false
}

// IsString reports whether the type projects to text.
func (d DataType) IsString() bool {
	switch d {
	case String, Lstring, Zstring, OldAscii:
		return true
	}
	return false
}

// IsSigned reports whether the type projects to a sign-extended integer.
func (d DataType) IsSigned() bool {
	return d == Integer || d == AutoInc
}

// IsUnsigned reports whether the type projects to a zero-extended integer.
func (d DataType) IsUnsigned() bool {
	switch d {
	case Unsigned, UnsignedBinary, OldBinary:
		return true
	}
	return false
}

// IsNumeric reports whether the type projects to an integer of either sign.
func (d DataType) IsNumeric() bool {
	return d.IsSigned() || d.IsUnsigned()
}

// Attribute is the legacy key flag mask.
type Attribute uint16

const (
	Duplicates             Attribute = 1 << 0
	Modifiable             Attribute = 1 << 1
	OldStyleBinary         Attribute = 1 << 2
	NullAllSegments        Attribute = 1 << 3
	SegmentedKey           Attribute = 1 << 4
	NumberedACS            Attribute = 1 << 5
	DescendingKeySegment   Attribute = 1 << 6
	RepeatingDuplicatesKey Attribute = 1 << 7
	UseExtendedDataType    Attribute = 1 << 8
	NullAnySegment         Attribute = 1 << 9
)

var attributeNames = []struct {
	attr Attribute
	name string
}{
	{Duplicates, "Duplicates"},
	{Modifiable, "Modifiable"},
	{OldStyleBinary, "OldStyleBinary"},
	{NullAllSegments, "NullAllSegments"},
	{SegmentedKey, "SegmentedKey"},
	{NumberedACS, "NumberedACS"},
	{DescendingKeySegment, "DescendingKeySegment"},
	{RepeatingDuplicatesKey, "RepeatingDuplicatesKey"},
	{UseExtendedDataType, "UseExtendedDataType"},
	{NullAnySegment, "NullAnySegment"},
}

// Has reports whether every bit of flag is set.
func (a Attribute) Has(flag Attribute) bool {
	return a&flag == flag
}

func (a Attribute) String() string {
	if a == 0 {
		return "None"
	}
	s := ""
	for _, n := range attributeNames {
		if a.Has(n.attr) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// ParseAttribute returns the single attribute flag with the given name.
func ParseAttribute(name string) (Attribute, bool) {
	for _, n := range attributeNames {
		if n.name == name {
			return n.attr, true
		}
	}
	return 0, false
}

// Definition is one segment of a key.
type Definition struct {
	Number       uint16
	SegmentIndex int
	Offset       uint16
	Length       uint16
	DataType     DataType
	Attributes   Attribute
	NullValue    byte
}

// Position is the 1-based legacy offset of the segment within the record.
func (d Definition) Position() uint16 {
	return d.Offset + 1
}

// AllowDuplicates reports whether records may share this key's value.
func (d Definition) AllowDuplicates() bool {
	return d.Attributes.Has(Duplicates) || d.Attributes.Has(RepeatingDuplicatesKey)
}

// IsUnique reports whether the key's value must be unique across records.
func (d Definition) IsUnique() bool {
	return !d.AllowDuplicates()
}

// IsModifiable reports whether an update may change the key's value.
func (d Definition) IsModifiable() bool {
	return d.Attributes.Has(Modifiable)
}

// IsNullable reports whether a window filled with NullValue projects to NULL.
func (d Definition) IsNullable() bool {
	return d.Attributes.Has(NullAllSegments) || d.Attributes.Has(NullAnySegment)
}
