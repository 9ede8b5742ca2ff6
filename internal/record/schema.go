package record

import (
	"strings"

	"github.com/yashagw/btrievedb/internal/key"
)

const (
	TypeText    = "TEXT"
	TypeInteger = "INTEGER"
	TypeBlob    = "BLOB"
)

// FieldInfo describes one key column of the data table.
type FieldInfo struct {
	sqlType  string
	nullable bool
	unique   bool
}

func (f FieldInfo) Type() string {
	return f.sqlType
}

func (f FieldInfo) Nullable() bool {
	return f.nullable
}

func (f FieldInfo) Unique() bool {
	return f.unique
}

// Schema is the ordered set of key columns stored next to each record.
type Schema struct {
	fields    []string
	fieldInfo map[string]FieldInfo
}

// NewSchema creates a new schema
func NewSchema() *Schema {
	return &Schema{
		fields:    make([]string, 0),
		fieldInfo: make(map[string]FieldInfo),
	}
}

// DeriveSchema maps every key to its column, in ascending key number order.
func DeriveSchema(keys map[uint16]*key.Key) *Schema {
	s := NewSchema()
	for _, number := range key.Numbers(keys) {
		k := keys[number]
		s.AddField(k.ColumnName(), ColumnType(k), k.IsNullable(), k.IsUnique())
	}
	return s
}

// ColumnType returns the SQL storage type of a key's projected value.
func ColumnType(k *key.Key) string {
	if k.IsComposite() {
		return TypeBlob
	}
	dt := k.PrimarySegment().DataType
	switch {
	case dt.IsString():
		return TypeText
	case dt.IsNumeric():
		return TypeInteger
	}
	return TypeBlob
}

func (s *Schema) AddField(name string, sqlType string, nullable bool, unique bool) {
	if !s.HasField(name) {
		s.fields = append(s.fields, name)
	}
	s.fieldInfo[name] = FieldInfo{
		sqlType:  sqlType,
		nullable: nullable,
		unique:   unique,
	}
}

// Fields returns a copy of the field names slice
func (s *Schema) Fields() []string {
	fields := make([]string, len(s.fields))
	copy(fields, s.fields)
	return fields
}

// GetFieldInfo returns the field information for a given field name
func (s *Schema) GetFieldInfo(fieldName string) (FieldInfo, bool) {
	info, exists := s.fieldInfo[fieldName]
	return info, exists
}

// HasField checks if the schema contains the specified field.
func (s *Schema) HasField(fieldName string) bool {
	_, exists := s.fieldInfo[fieldName]
	return exists
}

// CreateTableSQL returns the CREATE TABLE statement for the data table.
func (s *Schema) CreateTableSQL(table string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(table)
	b.WriteString("(id INTEGER PRIMARY KEY, data BLOB NOT NULL")
	for _, name := range s.fields {
		info, _ := s.GetFieldInfo(name)
		b.WriteString(", ")
		b.WriteString(name)
		b.WriteString(" ")
		b.WriteString(info.Type())
		if !info.Nullable() {
			b.WriteString(" NOT NULL")
		}
		if info.Unique() {
			b.WriteString(" UNIQUE")
		}
	}
	b.WriteString(")")
	return b.String()
}

// CreateIndexSQL returns one CREATE INDEX statement per non-unique column.
// Unique columns are already indexed by their constraint.
func (s *Schema) CreateIndexSQL(table string) []string {
	stmts := make([]string, 0, len(s.fields))
	for _, name := range s.fields {
		if info, _ := s.GetFieldInfo(name); info.Unique() {
			continue
		}
		stmts = append(stmts, "CREATE INDEX "+table+"_"+name+"_index ON "+table+"("+name+")")
	}
	return stmts
}
