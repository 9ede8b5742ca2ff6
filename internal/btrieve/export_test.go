package btrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel(t *testing.T) {
	p := newTestProcessor(t)
	p.SetPosition(2)
	_, err := p.Delete()
	require.NoError(t, err)

	m, err := p.Model()
	require.NoError(t, err)

	want := fixtureModel()
	assert.Equal(t, want.Metadata, m.Metadata)
	assert.Equal(t, want.Keys, m.Keys)
	assert.Equal(t, [][]byte{want.Records[0], want.Records[2], want.Records[3]}, m.Records)
	assert.Equal(t, uint32(2), p.Position())

	// the model converts back into an equivalent store
	p2, err := Open(writeStore(t, m), nil)
	require.NoError(t, err)
	defer p2.Close()
	count, err := p2.GetRecordCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
