package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("session:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("session:1", []byte("one")))
	require.NoError(t, s.Set("session:2", []byte("two")))
	require.NoError(t, s.Set("other:9", []byte("nine")))

	val, ok, err := s.Get("session:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), val)

	// Overwrite.
	require.NoError(t, s.Set("session:1", []byte("uno")))
	val, _, err = s.Get("session:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), val)

	keys, err := s.Keys("session:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"session:1", "session:2"}, keys)

	require.NoError(t, s.Remove("session:1"))
	_, ok, err = s.Get("session:1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, s.Remove("session:1"))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestBoltStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("session:7", []byte("seven")))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	val, ok, err := s.Get("session:7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("seven"), val)
}

func TestOpenDispatch(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	_ = s.Close()

	s, err = Open("bolt", filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	_ = s.Close()

	_, err = Open("cassandra", "")
	assert.Error(t, err)
}
