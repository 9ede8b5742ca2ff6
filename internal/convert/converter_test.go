package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashagw/btrievedb/internal/file"
	"github.com/yashagw/btrievedb/internal/key"
	"github.com/yashagw/btrievedb/internal/metadata"
)

const fixturePath = "testdata/mbbsemu.toml"

func loadFixture(t *testing.T) *Model {
	m, err := LoadModelFile(fixturePath)
	require.NoError(t, err)
	return m
}

func TestLoadModelFile(t *testing.T) {
	m := loadFixture(t)

	assert.Equal(t, 74, m.Metadata.RecordLength)
	assert.Equal(t, 74, m.Metadata.PhysicalRecordLength)
	assert.Equal(t, 512, m.Metadata.PageLength)

	require.Len(t, m.Keys, 4)
	assert.Equal(t, key.Definition{Number: 1, Offset: 34, Length: 4, DataType: key.Integer, Attributes: key.Modifiable}, m.Keys[1])
	assert.Equal(t, key.Duplicates|key.Modifiable, m.Keys[2].Attributes)
	assert.Equal(t, key.AutoInc, m.Keys[3].DataType)

	require.Len(t, m.Records, 4)
	for i, r := range m.Records {
		assert.Len(t, r, 74)
		assert.Equal(t, uint32(i+1), binary.LittleEndian.Uint32(r[70:]))
	}
	assert.Equal(t, int32(-615634567), int32(binary.LittleEndian.Uint32(m.Records[3][34:])))
	require.NoError(t, m.Validate())
}

func TestLoadModelFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown data type", "record_length = 4\n[[keys]]\nnumber = 0\nlength = 4\ndata_type = \"Nope\"\n"},
		{"unknown attribute", "record_length = 4\n[[keys]]\nnumber = 0\nlength = 4\ndata_type = \"Integer\"\nattributes = [\"Sticky\"]\n"},
		{"bad hex", "record_length = 4\n[[records]]\nhex = \"zz\"\n"},
		{"unknown field", "record_length = 4\ncolour = \"red\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			_, err := LoadModelFile(path)
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestEncodeModel(t *testing.T) {
	m := loadFixture(t)

	var buf bytes.Buffer
	require.NoError(t, EncodeModel(&buf, m))

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	decoded, err := LoadModelFile(path)
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestConvertIfAbsent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "MBBSEMU.DB")
	c := NewConverter(nil)
	model := loadFixture(t)

	// Test 1: First call converts
	calls := 0
	load := func() (*Model, error) {
		calls++
		return model, nil
	}
	require.NoError(t, c.ConvertIfAbsent(dbPath, load))
	assert.Equal(t, 1, calls)

	// Test 2: Second call trusts the existing store
	require.NoError(t, c.ConvertIfAbsent(dbPath, load))
	assert.Equal(t, 1, calls)

	// Test 3: Store round trips metadata and keys
	db, err := file.OpenStore(dbPath)
	require.NoError(t, err)
	defer db.Close()

	mm, err := metadata.OpenManager(db)
	require.NoError(t, err)
	assert.Equal(t, model.Metadata, mm.Metadata())
	for number, k := range model.GroupedKeys() {
		assert.Equal(t, k.Segments, mm.Keys()[number].Segments)
	}

	// Test 4: Rows are numbered in physical order with projected keys
	rows, err := db.Query("SELECT id, data, key_0, key_1, key_2, key_3 FROM data_t ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	expectedKey1 := []int64{3444, 7776, 1052234073, -615634567}
	expectedKey2 := []string{"3444", "7776", "StringValue", "stringValue"}
	i := 0
	for rows.Next() {
		var (
			id   int
			data []byte
			k0   string
			k1   int64
			k2   string
			k3   int64
		)
		require.NoError(t, rows.Scan(&id, &data, &k0, &k1, &k2, &k3))
		assert.Equal(t, i+1, id)
		assert.Equal(t, model.Records[i], data)
		assert.Equal(t, "Sysop", k0)
		assert.Equal(t, expectedKey1[i], k1)
		assert.Equal(t, expectedKey2[i], k2)
		assert.Equal(t, int64(i+1), k3)
		i++
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, 4, i)
}

func TestConvertIfAbsent_Failures(t *testing.T) {
	dir := t.TempDir()
	c := NewConverter(nil)

	assertNoStore := func(t *testing.T, dbPath string) {
		exists, err := file.Exists(dbPath)
		require.NoError(t, err)
		assert.False(t, exists)

		leftovers, err := filepath.Glob(dbPath + ".*.tmp")
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	}

	// Test 1: Loader failure
	dbPath := filepath.Join(dir, "LOADER.DB")
	errBoom := errors.New("boom")
	err := c.ConvertIfAbsent(dbPath, func() (*Model, error) { return nil, errBoom })
	assert.ErrorIs(t, err, errBoom)
	assertNoStore(t, dbPath)

	// Test 2: Unsupported key type
	dbPath = filepath.Join(dir, "FLOAT.DB")
	err = c.ConvertIfAbsent(dbPath, func() (*Model, error) {
		return &Model{
			Metadata: loadFixture(t).Metadata,
			Keys:     []key.Definition{{Number: 0, Length: 4, DataType: key.Float}},
		}, nil
	})
	assert.ErrorIs(t, err, ErrInvalidModel)
	assert.ErrorIs(t, err, key.ErrUnsupportedDataType)
	assertNoStore(t, dbPath)

	// Test 3: Duplicate value on a unique key
	dbPath = filepath.Join(dir, "DUP.DB")
	err = c.ConvertIfAbsent(dbPath, func() (*Model, error) {
		m := loadFixture(t)
		m.Records = append(m.Records, m.Records[0])
		return m, nil
	})
	assert.Error(t, err)
	assertNoStore(t, dbPath)

	// Test 4: Zero record length
	dbPath = filepath.Join(dir, "EMPTY.DB")
	err = c.ConvertIfAbsent(dbPath, func() (*Model, error) { return &Model{}, nil })
	assert.ErrorIs(t, err, ErrInvalidModel)
	assertNoStore(t, dbPath)
}

func TestConvertIfAbsent_Concurrent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "MBBSEMU.DB")
	model := loadFixture(t)

	// Two converters stand in for two independent callers sharing the directory
	converters := []*Converter{NewConverter(nil), NewConverter(nil)}

	var calls atomic.Int32
	load := func() (*Model, error) {
		calls.Add(1)
		return model, nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(c *Converter) {
			defer wg.Done()
			errs <- c.ConvertIfAbsent(dbPath, load)
		}(converters[i%2])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}
