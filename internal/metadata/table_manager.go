package metadata

import (
	"database/sql"
	"fmt"

	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/record"
)

const (
	MetadataTableName = "metadata_t"
	KeysTableName     = "keys_t"
	DataTableName     = "data_t"
)

const (
	createMetadataTable = `CREATE TABLE metadata_t(record_length INTEGER NOT NULL, physical_record_length INTEGER NOT NULL, page_length INTEGER NOT NULL)`
	createKeysTable     = `CREATE TABLE keys_t(id INTEGER PRIMARY KEY, number INTEGER NOT NULL, segment INTEGER NOT NULL, attributes INTEGER NOT NULL, data_type INTEGER NOT NULL, offset INTEGER NOT NULL, length INTEGER NOT NULL, null_value INTEGER NOT NULL, UNIQUE(number, segment))`

	insertMetadata = `INSERT INTO metadata_t(record_length, physical_record_length, page_length) VALUES(?, ?, ?)`
	insertKey      = `INSERT INTO keys_t(number, segment, attributes, data_type, offset, length, null_value) VALUES(?, ?, ?, ?, ?, ?, ?)`

	selectMetadata = `SELECT record_length, physical_record_length, page_length FROM metadata_t`
	selectKeys     = `SELECT number, segment, attributes, data_type, offset, length, null_value FROM keys_t ORDER BY number, segment`
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// TableManager creates and reads the metadata_t and keys_t catalogs and the data_t table.
type TableManager struct {
	metadata record.FileMetadata
	keys     map[uint16]*key.Key
	schema   *record.Schema
}

// NewTableManager creates a new table manager for the given file and keys.
// Every key is validated so unsupported types fail before anything is written.
func NewTableManager(md record.FileMetadata, keys map[uint16]*key.Key) (*TableManager, error) {
	for _, number := range key.Numbers(keys) {
		if err := keys[number].Validate(); err != nil {
			return nil, fmt.Errorf("invalid key %d: %w", number, err)
		}
	}
	return &TableManager{
		metadata: md,
		keys:     keys,
		schema:   record.DeriveSchema(keys),
	}, nil
}

// CreateTables creates every table and index and records the file metadata and keys.
func (t *TableManager) CreateTables(tx Execer) error {
	if _, err := tx.Exec(createMetadataTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", MetadataTableName, err)
	}
	_, err := tx.Exec(insertMetadata, int64(t.metadata.RecordLength), int64(t.metadata.PhysicalRecordLength), int64(t.metadata.PageLength))
	if err != nil {
		return fmt.Errorf("failed to insert metadata: %w", err)
	}

	if _, err := tx.Exec(createKeysTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", KeysTableName, err)
	}
	for _, number := range key.Numbers(t.keys) {
		for _, s := range t.keys[number].Segments {
			_, err := tx.Exec(insertKey, int64(s.Number), int64(s.SegmentIndex), int64(s.Attributes), int64(s.DataType), int64(s.Offset), int64(s.Length), int64(s.NullValue))
			if err != nil {
				return fmt.Errorf("failed to insert key %d segment %d: %w", s.Number, s.SegmentIndex, err)
			}
		}
	}

	if _, err := tx.Exec(t.schema.CreateTableSQL(DataTableName)); err != nil {
		return fmt.Errorf("failed to create %s: %w", DataTableName, err)
	}
	for _, stmt := range t.schema.CreateIndexSQL(DataTableName) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// LoadTableManager reads the file metadata and keys back from an existing store.
func LoadTableManager(q Querier) (*TableManager, error) {
	var md record.FileMetadata
	err := q.QueryRow(selectMetadata).Scan(&md.RecordLength, &md.PhysicalRecordLength, &md.PageLength)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", MetadataTableName, err)
	}

	rows, err := q.Query(selectKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeysTableName, err)
	}
	defer rows.Close()

	var defs []key.Definition
	for rows.Next() {
		var (
			d          key.Definition
			attributes uint16
			dataType   uint8
		)
		if err := rows.Scan(&d.Number, &d.SegmentIndex, &attributes, &dataType, &d.Offset, &d.Length, &d.NullValue); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		d.Attributes = key.Attribute(attributes)
		d.DataType = key.DataType(dataType)
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KeysTableName, err)
	}

	return NewTableManager(md, key.Group(defs))
}

func (t *TableManager) Metadata() record.FileMetadata {
	return t.metadata
}

func (t *TableManager) Keys() map[uint16]*key.Key {
	return t.keys
}

func (t *TableManager) Schema() *record.Schema {
	return t.schema
}
