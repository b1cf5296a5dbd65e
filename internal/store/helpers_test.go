package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cfs "github.com/Yeseh/cortex-sub001/internal/fs"
	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/store"
	"github.com/Yeseh/cortex-sub001/internal/tokens"
)

var testNow = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*store.FileStore, string) {
	t.Helper()

	root := t.TempDir()

	s, err := store.New(root, store.Options{Tokens: tokens.Chars{}})
	require.NoError(t, err)

	return s, root
}

func newInjectedStore(t *testing.T) (*store.FileStore, *cfs.Injected, string) {
	t.Helper()

	root := t.TempDir()
	fsys := cfs.NewInjected(cfs.NewReal())

	s, err := store.New(root, store.Options{FS: fsys, Tokens: tokens.Chars{}})
	require.NoError(t, err)

	return s, fsys, root
}

func newMemory(content string) *memory.Memory {
	return memory.New(testNow, content, []string{"test"}, "user", nil)
}

// writeRaw writes a memory file bypassing the store, as a user editing the
// tree by hand would.
func writeRaw(t *testing.T, root, rel, content string) {
	t.Helper()

	data, err := memory.Marshal(newMemory(content))
	require.NoError(t, err)

	writeBytes(t, root, rel, data)
}

func writeBytes(t *testing.T, root, rel string, data []byte) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)

	return string(data)
}

func fileExists(t *testing.T, root, rel string) bool {
	t.Helper()

	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return false
	}

	require.NoError(t, err)

	return true
}

func saveAll() store.SaveOptions {
	return store.SaveOptions{AllowIndexCreate: true, AllowIndexUpdate: true}
}

// snapshotIndexes returns every index.yaml under root keyed by relative path.
func snapshotIndexes(t *testing.T, root string) map[string]string {
	t.Helper()

	out := make(map[string]string)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || d.Name() != "index.yaml" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		out[filepath.ToSlash(rel)] = string(data)

		return nil
	})
	require.NoError(t, err)

	return out
}
