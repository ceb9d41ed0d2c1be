package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o600))
}

func TestLocate_AppstoreVariant(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "appstore", "account-1234", "postbox", "db", "db_sqlite")
	keyPath := filepath.Join(root, "appstore", ".tempkeyEncrypted")
	writeFile(t, dbPath, []byte("db"))
	writeFile(t, keyPath, []byte("key"))

	p, ok := Locate(root)
	require.True(t, ok)
	require.Equal(t, dbPath, p.Database)
	require.Equal(t, keyPath, p.Key)
}

func TestLocate_BareVariant(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "account-99", "postbox", "db", "db_sqlite")
	keyPath := filepath.Join(root, ".tempkeyEncrypted")
	writeFile(t, dbPath, []byte("db"))
	writeFile(t, keyPath, []byte("key"))

	p, ok := Locate(root)
	require.True(t, ok)
	require.Equal(t, dbPath, p.Database)
	require.Equal(t, keyPath, p.Key)
}

func TestLocate_MissingKeyFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "account-1", "postbox", "db", "db_sqlite"), []byte("db"))

	_, ok := Locate(root)
	require.False(t, ok)
}

func TestLocate_EmptyDirectory(t *testing.T) {
	_, ok := Locate(t.TempDir())
	require.False(t, ok)
}
