package tokenstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) string {
	t.Helper()
	var k fernet.Key
	require.NoError(t, k.Generate())
	return k.Encode()
}

func TestFernetStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	s := NewFernetStore(dir, newKey(t))

	require.NoError(t, s.Store("AB1234", "tok_xyz"))

	raw, err := os.ReadFile(filepath.Join(dir, "AB1234_access_token.enc"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok_xyz")

	got, err := s.Retrieve("AB1234")
	require.NoError(t, err)
	assert.Equal(t, "tok_xyz", got)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dir, "AB1234_access_token.enc"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestFernetStore_Overwrite(t *testing.T) {
	s := NewFernetStore(t.TempDir(), newKey(t))
	require.NoError(t, s.Store("U1", "old"))
	require.NoError(t, s.Store("U1", "new"))

	got, err := s.Retrieve("U1")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestFernetStore_MissingKey(t *testing.T) {
	s := NewFernetStore(t.TempDir(), "")
	assert.ErrorIs(t, s.Store("U1", "tok"), ErrNoKey)

	s = NewFernetStore(t.TempDir(), "not-a-key")
	assert.ErrorIs(t, s.Store("U1", "tok"), ErrNoKey)
}

func TestFernetStore_WrongKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFernetStore(dir, newKey(t)).Store("U1", "tok"))

	_, err := NewFernetStore(dir, newKey(t)).Retrieve("U1")
	assert.Error(t, err)
}

func TestFernetStore_NotFoundAndDelete(t *testing.T) {
	s := NewFernetStore(t.TempDir(), newKey(t))

	_, err := s.Retrieve("U1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, s.Store("U1", "tok"))
	require.NoError(t, s.Delete("U1"))
	require.NoError(t, s.Delete("U1"))

	_, err = s.Retrieve("U1")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestFernetStore_InvalidAccountID(t *testing.T) {
	s := NewFernetStore(t.TempDir(), newKey(t))
	for _, id := range []string{"", "../evil", "a/b", `a\b`} {
		assert.ErrorIs(t, s.Store(id, "tok"), ErrInvalidAccountID, id)
	}
}
