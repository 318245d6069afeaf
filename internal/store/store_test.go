package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopAllocateIDIncrements(t *testing.T) {
	s := NewNoop()
	a, err := s.AllocateID("miners")
	require.NoError(t, err)
	b, err := s.AllocateID("miners")
	require.NoError(t, err)
	c, err := s.AllocateID("links")
	require.NoError(t, err)

	assert.Equal(t, int64(0), a)
	assert.Equal(t, int64(1), b)
	assert.Equal(t, int64(0), c, "counters are scoped per domain")
}

func TestNoopRecordIsDiscarded(t *testing.T) {
	s := NewNoop()
	require.NoError(t, s.Record("blocks:abc", map[string]interface{}{"height": 1}))
	require.NoError(t, s.RecordIndex("blocks-mined:1", 1, "abc"))
}

func TestLevelDBAllocateIDAndRecord(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := OpenLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.AllocateID("miners")
	require.NoError(t, err)
	b, err := s.AllocateID("miners")
	require.NoError(t, err)
	assert.Equal(t, int64(0), a)
	assert.Equal(t, int64(1), b)

	require.NoError(t, s.Record("blocks:fp1", map[string]interface{}{"height": 3, "valid": true}))
	require.NoError(t, s.RecordIndex("blocks-mined:1", 0, "fp0"))
	require.NoError(t, s.RecordIndex("blocks-mined:1", 1, "fp1"))

	members, err := s.Members("blocks-mined:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fp0", "fp1"}, members)
}

func TestLevelDBClearWipesState(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	s, err := OpenLevelDB(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record("blocks:fp1", map[string]interface{}{"height": 1}))
	require.NoError(t, s.RecordIndex("blocks-mined:1", 1, "fp1"))
	require.NoError(t, s.Clear())

	members, err := s.Members("blocks-mined:1")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestOpenLevelDBUnreachableReportsTypedError(t *testing.T) {
	// A path that can never be created as a directory (it's a file).
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := OpenLevelDB(filepath.Join(file, "sub"))
	require.Error(t, err)
	var unreachable *ErrUnreachable
	assert.ErrorAs(t, err, &unreachable)
}
