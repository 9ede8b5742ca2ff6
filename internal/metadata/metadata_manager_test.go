package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashagw/btrievedb/internal/record"
)

func TestMetadataManager_BasicOperations(t *testing.T) {
	db := openTestDB(t)
	md := record.FileMetadata{RecordLength: 70, PhysicalRecordLength: 70, PageLength: 512}

	// Test 1: Create inside a transaction
	tx, err := db.Begin()
	require.NoError(t, err)
	mm, err := NewManager(tx, md, testKeys())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, []uint16{0, 1, 2, 3}, mm.KeyNumbers())
	assert.Equal(t,
		"INSERT INTO data_t(id, data, key_0, key_1, key_2, key_3) VALUES(?, ?, ?, ?, ?, ?)",
		mm.InsertSQL())
	assert.Equal(t,
		"UPDATE data_t SET data = ?, key_0 = ?, key_1 = ?, key_2 = ?, key_3 = ? WHERE id = ?",
		mm.UpdateSQL())

	// Test 2: Key arguments follow column order
	data := make([]byte, 70)
	data[0], data[1] = 0x01, 0x00
	copy(data[2:], "Sysop")
	data[34] = 0x74
	data[35] = 0x0D
	for i := 38; i < 70; i++ {
		data[i] = ' '
	}
	args, err := mm.KeyArgs(data)
	require.NoError(t, err)
	require.Len(t, args, 4)
	assert.Equal(t, "Sysop", args[0])
	assert.Equal(t, int64(3444), args[1])
	assert.Nil(t, args[2])
	assert.Equal(t, []byte{0x01, 0x00, 0x74, 0x0D, 0x00, 0x00}, args[3])

	// Test 3: Insert through the generated statement
	_, err = db.Exec(mm.InsertSQL(), append([]any{1, data}, args...)...)
	require.NoError(t, err)

	// Test 4: Reopen
	mm2, err := OpenManager(db)
	require.NoError(t, err)
	assert.Equal(t, md, mm2.Metadata())
	assert.Equal(t, mm.InsertSQL(), mm2.InsertSQL())
}
