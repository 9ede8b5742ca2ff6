package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashagw/btrievedb/internal/btrieve"
	"github.com/yashagw/btrievedb/internal/convert"
	"github.com/yashagw/btrievedb/internal/file"
	"github.com/yashagw/btrievedb/internal/key"
)

const fixtureModel = "../../internal/convert/testdata/mbbsemu.toml"

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer, string) {
	dir := t.TempDir()
	content, err := os.ReadFile(fixtureModel)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MBBSEMU.DAT"), content, 0644))

	fm, err := file.NewManager(dir, nil)
	require.NoError(t, err)
	files := btrieve.NewFiles(fm, convert.LoadModelFile, nil)
	t.Cleanup(func() { files.CloseAll() })

	var out bytes.Buffer
	return NewShell(files, &out), &out, dir
}

func TestShell_Session(t *testing.T) {
	s, out, _ := newTestShell(t)

	script := strings.Join([]string{
		"open MBBSEMU.DAT",
		"count",
		"seek 1 GetGreaterOrEqual 3444",
		"continue",
		"first",
		"last",
		"next",
		"quit",
		"count",
	}, "\n")
	require.NoError(t, s.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "Opened MBBSEMU.DAT as ")
	assert.Contains(t, text, "4 record(s)")
	assert.Contains(t, text, "GetGreaterOrEqual: Success")
	assert.Contains(t, text, "GetNext: Success")
	assert.Contains(t, text, "position 2")
	assert.Contains(t, text, "StepNext: EOF")
	assert.Contains(t, text, "Goodbye!")
	// nothing after quit runs
	assert.Equal(t, 1, strings.Count(text, "record(s)"))
}

func TestShell_Mutations(t *testing.T) {
	s, out, _ := newTestShell(t)
	_, err := s.Execute([]string{"open", "MBBSEMU.DAT"})
	require.NoError(t, err)

	record := make([]byte, 74)
	copy(record[2:], "Sysop")
	record[34] = 9
	copy(record[38:], "Shell")

	_, err = s.Execute([]string{"insert", hex.EncodeToString(record)})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Insert: Success")
	assert.Contains(t, out.String(), "position 5")

	_, err = s.Execute([]string{"insert", hex.EncodeToString(record)})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Insert: DuplicateKeyValue")

	record[34] = 10
	_, err = s.Execute([]string{"update", "5", hex.EncodeToString(record)})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Update: Success")

	_, err = s.Execute([]string{"update", "99", hex.EncodeToString(record)})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Update: InvalidPositioning")

	// key 1 value 3444 belongs to record 1
	record[34], record[35] = 0x74, 0x0D
	_, err = s.Execute([]string{"update", "5", hex.EncodeToString(record)})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Update: DuplicateKeyValue")

	_, err = s.Execute([]string{"seek", "2", "GetEqual", "Shell"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "GetEqual: Success")

	_, err = s.Execute([]string{"delete"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Delete: Success")

	out.Reset()
	_, err = s.Execute([]string{"count"})
	require.NoError(t, err)
	assert.Equal(t, "4 record(s)\n", out.String())
}

func TestShell_Errors(t *testing.T) {
	s, _, _ := newTestShell(t)

	_, err := s.Execute([]string{"count"})
	assert.ErrorIs(t, err, btrieve.ErrFileNotOpen)

	_, err = s.Execute([]string{"open", "NOPE.DAT"})
	assert.ErrorIs(t, err, btrieve.ErrFileNotFound)

	_, err = s.Execute([]string{"use", "not-a-uuid"})
	assert.Error(t, err)

	_, err = s.Execute([]string{"open", "MBBSEMU.DAT"})
	require.NoError(t, err)

	_, err = s.Execute([]string{"seek", "7", "GetFirst"})
	assert.ErrorIs(t, err, btrieve.ErrInvalidKeyNumber)

	_, err = s.Execute([]string{"seek", "0", "Sideways"})
	assert.Error(t, err)

	_, err = s.Execute([]string{"continue"})
	assert.Error(t, err)

	_, err = s.Execute([]string{"frobnicate"})
	assert.Error(t, err)

	quit, err := s.Execute([]string{"close"})
	require.NoError(t, err)
	assert.False(t, quit)
	_, err = s.Execute([]string{"count"})
	assert.ErrorIs(t, err, btrieve.ErrFileNotOpen)
}

func TestShell_StatAndKeys(t *testing.T) {
	s, out, _ := newTestShell(t)
	_, err := s.Execute([]string{"open", "MBBSEMU.DAT"})
	require.NoError(t, err)

	_, err = s.Execute([]string{"stat"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "record length 74, page size 512, 4 key(s), 4 record(s)")

	_, err = s.Execute([]string{"keys"})
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "key_3")
	assert.Contains(t, text, "AutoInc")
	assert.Contains(t, text, "INTEGER")
	assert.Contains(t, text, "unique,modifiable")
	assert.Contains(t, text, "unique,autoinc")
}

func TestShell_KeyOnlySeek(t *testing.T) {
	s, out, _ := newTestShell(t)
	_, err := s.Execute([]string{"open", "MBBSEMU.DAT"})
	require.NoError(t, err)

	out.Reset()
	_, err = s.Execute([]string{"seek", "1", "GetEqual+50", "3444"})
	require.NoError(t, err)
	assert.Equal(t, "GetEqual+50: Success\nposition 1 key 1 = 3444\n", out.String())

	out.Reset()
	_, err = s.Execute([]string{"seek", "2", "GetLast+50"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), `key 2 = "stringValue"`)
	assert.NotContains(t, out.String(), "00000000")
}

func TestEncodeKeyValue(t *testing.T) {
	integer := key.New(key.Definition{Number: 1, Offset: 34, Length: 4, DataType: key.Integer})
	data, err := encodeKeyValue(integer, "-615634567")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x79, 0x29, 0x4e, 0xdb}, data)

	unsigned := key.New(key.Definition{Number: 1, Length: 2, DataType: key.Unsigned})
	data, err = encodeKeyValue(unsigned, "513")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, data)

	text := key.New(key.Definition{Number: 0, Length: 32, DataType: key.Zstring})
	data, err = encodeKeyValue(text, "Sysop")
	require.NoError(t, err)
	assert.Equal(t, []byte("Sysop"), data)

	data, err = encodeKeyValue(integer, "0x01020304")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	_, err = encodeKeyValue(integer, "lots")
	assert.Error(t, err)
}
