package metadata

import (
	"fmt"
	"strings"

	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/record"
)

// Manager owns the catalogs of one store and the statements over its data table.
type Manager struct {
	tableManager *TableManager

	insertSQL string
	updateSQL string
}

// NewManager creates the catalogs and data table of a new store inside tx.
func NewManager(tx Execer, md record.FileMetadata, keys map[uint16]*key.Key) (*Manager, error) {
	tm, err := NewTableManager(md, keys)
	if err != nil {
		return nil, err
	}
	if err := tm.CreateTables(tx); err != nil {
		return nil, err
	}
	return newManager(tm), nil
}

// OpenManager reads the catalogs of an existing store.
func OpenManager(q Querier) (*Manager, error) {
	tm, err := LoadTableManager(q)
	if err != nil {
		return nil, err
	}
	return newManager(tm), nil
}

func newManager(tm *TableManager) *Manager {
	columns := tm.Schema().Fields()

	placeholders := strings.Repeat(", ?", len(columns))
	insertSQL := "INSERT INTO " + DataTableName + "(id, data"
	for _, c := range columns {
		insertSQL += ", " + c
	}
	insertSQL += ") VALUES(?, ?" + placeholders + ")"

	updateSQL := "UPDATE " + DataTableName + " SET data = ?"
	for _, c := range columns {
		updateSQL += ", " + c + " = ?"
	}
	updateSQL += " WHERE id = ?"

	return &Manager{
		tableManager: tm,
		insertSQL:    insertSQL,
		updateSQL:    updateSQL,
	}
}

func (m *Manager) Metadata() record.FileMetadata {
	return m.tableManager.Metadata()
}

func (m *Manager) Keys() map[uint16]*key.Key {
	return m.tableManager.Keys()
}

// KeyNumbers returns the key numbers in ascending order.
func (m *Manager) KeyNumbers() []uint16 {
	return key.Numbers(m.tableManager.Keys())
}

func (m *Manager) Schema() *record.Schema {
	return m.tableManager.Schema()
}

// InsertSQL takes the id, the data blob and one value per key column in key order.
func (m *Manager) InsertSQL() string {
	return m.insertSQL
}

// UpdateSQL takes the data blob, one value per key column in key order, then the id.
func (m *Manager) UpdateSQL() string {
	return m.updateSQL
}

// KeyArgs projects data through every key, in key column order.
func (m *Manager) KeyArgs(data []byte) ([]any, error) {
	keys := m.tableManager.Keys()
	args := make([]any, 0, len(keys))
	for _, number := range m.KeyNumbers() {
		v, err := keys[number].Project(data)
		if err != nil {
			return nil, fmt.Errorf("failed to project key %d: %w", number, err)
		}
		args = append(args, v.Arg())
	}
	return args, nil
}
