package metadata

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/record"
	_ "modernc.org/sqlite"
)

func testKeys() map[uint16]*key.Key {
	return key.Group([]key.Definition{
		{Number: 0, Offset: 2, Length: 32, DataType: key.Zstring, Attributes: key.Duplicates},
		{Number: 1, Offset: 34, Length: 4, DataType: key.Integer, Attributes: key.Modifiable},
		{Number: 2, Offset: 38, Length: 32, DataType: key.Zstring, Attributes: key.Duplicates | key.Modifiable | key.NullAllSegments, NullValue: ' '},
		{Number: 3, SegmentIndex: 0, Offset: 0, Length: 2, DataType: key.Integer},
		{Number: 3, SegmentIndex: 1, Offset: 34, Length: 4, DataType: key.Integer},
	})
}

func openTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTableManager_BasicOperations(t *testing.T) {
	db := openTestDB(t)
	md := record.FileMetadata{RecordLength: 70, PhysicalRecordLength: 75, PageLength: 512}

	// Test 1: Create tables
	tm, err := NewTableManager(md, testKeys())
	require.NoError(t, err)
	require.NoError(t, tm.CreateTables(db))

	// Test 2: Catalog tables hold one row per segment
	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM keys_t").Scan(&count))
	assert.Equal(t, 5, count)

	var segment, offset int
	require.NoError(t, db.QueryRow("SELECT segment, offset FROM keys_t WHERE number = 3 AND segment = 1").Scan(&segment, &offset))
	assert.Equal(t, 1, segment)
	assert.Equal(t, 34, offset)

	// Test 3: Indexes exist for non-unique columns only
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'data_t_key_%' ORDER BY name")
	require.NoError(t, err)
	var indexes []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		indexes = append(indexes, name)
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, []string{"data_t_key_0_index", "data_t_key_2_index"}, indexes)

	// Test 4: Load round trips metadata and keys
	loaded, err := LoadTableManager(db)
	require.NoError(t, err)
	assert.Equal(t, md, loaded.Metadata())
	require.Len(t, loaded.Keys(), 4)
	for number, k := range testKeys() {
		assert.Equal(t, k.Segments, loaded.Keys()[number].Segments, "key %d", number)
	}
	assert.Equal(t, tm.Schema().CreateTableSQL(DataTableName), loaded.Schema().CreateTableSQL(DataTableName))
}

func TestTableManager_UnsupportedKey(t *testing.T) {
	db := openTestDB(t)

	// Test 1: Unsupported type fails before anything is written
	_, err := NewTableManager(record.FileMetadata{RecordLength: 8}, key.Group([]key.Definition{
		{Number: 0, Offset: 0, Length: 8, DataType: key.Float},
	}))
	assert.ErrorIs(t, err, key.ErrUnsupportedDataType)

	// Test 2: Loading an empty database fails
	_, err = LoadTableManager(db)
	assert.Error(t, err)
}
