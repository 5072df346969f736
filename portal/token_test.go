package portal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.token")

	require.NoError(t, SaveToken(path, "abc-123"))
	assert.Equal(t, "abc-123", LoadToken(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadTokenMissingFile(t *testing.T) {
	assert.Empty(t, LoadToken(filepath.Join(t.TempDir(), "nope")))
	assert.Empty(t, LoadToken(""))
}

func TestLoadTokenTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.token")
	require.NoError(t, os.WriteFile(path, []byte("  tok\n"), 0o600))
	assert.Equal(t, "tok", LoadToken(path))
}

func TestSaveTokenEmptyRemovesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restore.token")
	require.NoError(t, SaveToken(path, "stale"))

	require.NoError(t, SaveToken(path, ""))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing a token that was never saved is fine too.
	require.NoError(t, SaveToken(path, ""))
}

func TestSaveTokenEmptyPathIsNoop(t *testing.T) {
	assert.NoError(t, SaveToken("", "tok"))
}
