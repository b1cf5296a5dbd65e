package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	cfs "github.com/Yeseh/cortex-sub001/internal/fs"
	"github.com/Yeseh/cortex-sub001/internal/index"
	"github.com/Yeseh/cortex-sub001/internal/store"
)

func Test_Reindex_Is_Idempotent_When_Tree_Unchanged(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ctx := t.Context()

	writeRaw(t, root, "proj/Messy Name.md", "one")
	writeRaw(t, root, "proj/clean.md", "two")
	writeRaw(t, root, "proj/sub/deep.md", "three")
	writeRaw(t, root, "other/x.md", "four")

	first, err := s.Reindex(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, first.Memories)
	require.Equal(t, 4, first.Categories)

	before := snapshotIndexes(t, root)

	second, err := s.Reindex(ctx)
	require.NoError(t, err)
	require.Empty(t, second.Warnings)
	require.Equal(t, before, snapshotIndexes(t, root))
}

func Test_Reindex_Suffixes_Slugs_When_Names_Collide(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ctx := t.Context()

	writeRaw(t, root, "notes/MY-NOTE.md", "a")
	writeRaw(t, root, "notes/My Note.md", "b")
	writeRaw(t, root, "notes/my_note.md", "c")

	res, err := s.Reindex(ctx)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2, "warnings: %v", res.Warnings)
	require.Contains(t, res.Warnings[0], "notes/my-note-2")
	require.Contains(t, res.Warnings[1], "notes/my-note-3")

	ix, err := s.LoadIndex(ctx, "notes")
	require.NoError(t, err)

	var paths []string
	for _, m := range ix.Memories {
		paths = append(paths, m.Path)
	}

	require.Equal(t, []string{"notes/my-note", "notes/my-note-2", "notes/my-note-3"}, paths)

	// Lexical order of the original names decides who keeps the bare slug.
	for slug, body := range map[string]string{"my-note": "a", "my-note-2": "b", "my-note-3": "c"} {
		m, err := s.Load(ctx, "notes/"+slug)
		require.NoError(t, err)
		require.NotNil(t, m, slug)
		require.Equal(t, body, m.Content, slug)
	}
}

func Test_Reindex_Skips_Suffix_Taken_By_Existing_Slug(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)

	writeRaw(t, root, "n/x.md", "canonical")
	writeRaw(t, root, "n/x-2.md", "also canonical")
	writeRaw(t, root, "n/X.md", "messy")

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "n/x-3")
	require.Equal(t, "canonical", mustLoad(t, s, "n/x"))
	require.Equal(t, "also canonical", mustLoad(t, s, "n/x-2"))
	require.Equal(t, "messy", mustLoad(t, s, "n/x-3"))
}

func Test_Reindex_Suffixes_Slug_When_Target_Name_Held_By_Other_Entry(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)

	writeRaw(t, root, "n/Foo.md", "file next to a directory")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "n", "foo.md"), 0o750))
	writeRaw(t, root, "n/Bar.md", "file next to a dangling link")
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.md"), filepath.Join(root, "n", "bar.md")))

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, res.Memories)

	joined := strings.Join(res.Warnings, "\n")
	require.Contains(t, joined, "skipped directory n/foo.md")
	require.Contains(t, joined, "indexed as n/foo-2")
	require.Contains(t, joined, "indexed as n/bar-2")

	require.Equal(t, "file next to a directory", mustLoad(t, s, "n/foo-2"))
	require.Equal(t, "file next to a dangling link", mustLoad(t, s, "n/bar-2"))

	info, err := os.Lstat(filepath.Join(root, "n", "bar.md"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeSymlink, "dangling link must be left alone")

	second, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, second.Memories)
}

func Test_Reindex_Skips_File_When_Name_Normalizes_To_Empty(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)

	writeRaw(t, root, "c/___.md", "nameless")
	writeRaw(t, root, "c/fine.md", "ok")

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "c/___.md")

	ix, err := s.LoadIndex(t.Context(), "c")
	require.NoError(t, err)
	require.Len(t, ix.Memories, 1)
	require.Equal(t, "c/fine", ix.Memories[0].Path)
	require.True(t, fileExists(t, root, "c/___.md"), "skipped file must be left alone")
}

func Test_Reindex_Creates_Index_At_Every_Level_When_Nested(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ctx := t.Context()

	writeRaw(t, root, "a/b/c/slug.md", "deep")

	_, err := s.Reindex(ctx)
	require.NoError(t, err)

	for _, rel := range []string{"index.yaml", "a/index.yaml", "a/b/index.yaml", "a/b/c/index.yaml"} {
		require.True(t, fileExists(t, root, rel), "missing %s", rel)
	}

	a, err := s.LoadIndex(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []index.SubcategoryEntry{{Path: "a/b", MemoryCount: 1}}, a.Subcategories)
	require.Empty(t, a.Memories)

	rootIx, err := s.LoadIndex(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []index.SubcategoryEntry{{Path: "a", MemoryCount: 1}}, rootIx.Subcategories)
}

func Test_Reindex_Replaces_Stale_Entries_And_Keeps_Descriptions(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)
	ctx := t.Context()

	writeRaw(t, root, "a/b/real.md", "body")

	stale := &index.Index{
		Memories:      []index.MemoryEntry{{Path: "a/ghost", TokenEstimate: index.Estimate(99)}},
		Subcategories: []index.SubcategoryEntry{{Path: "a/b", MemoryCount: 42, Description: "the b things"}},
	}
	require.NoError(t, s.WriteIndex(ctx, "a", stale))

	sub := &index.Index{Memories: []index.MemoryEntry{{Path: "a/b/real", Summary: "hand written"}}}
	require.NoError(t, s.WriteIndex(ctx, "a/b", sub))

	_, err := s.Reindex(ctx)
	require.NoError(t, err)

	a, err := s.LoadIndex(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, a.Memories)
	require.Equal(t, []index.SubcategoryEntry{{Path: "a/b", MemoryCount: 1, Description: "the b things"}}, a.Subcategories)

	b, err := s.LoadIndex(ctx, "a/b")
	require.NoError(t, err)
	require.Equal(t, []index.MemoryEntry{{Path: "a/b/real", TokenEstimate: index.Estimate(1), Summary: "hand written"}}, b.Memories)
}

func Test_Reindex_Warns_And_Rebuilds_When_Previous_Index_Corrupt(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)

	writeRaw(t, root, "a/x.md", "x")
	writeBytes(t, root, "a/index.yaml", []byte("{{{ not yaml"))

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "unreadable index")

	ix, err := s.LoadIndex(t.Context(), "a")
	require.NoError(t, err)
	require.Len(t, ix.Memories, 1)
}

func Test_Reindex_Ignores_Hidden_Entries_And_Warns_On_Odd_Names(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)

	writeRaw(t, root, ".git/objects/junk.md", "hidden")
	writeRaw(t, root, "a/.draft.md", "hidden too")
	writeRaw(t, root, "a/ok.md", "ok")
	writeRaw(t, root, "Bad Dir/x.md", "unreachable")
	writeRaw(t, root, "loose.md", "not in a category")
	writeBytes(t, root, "a/readme.txt", []byte("not a memory"))

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 2, "warnings: %v", res.Warnings)
	require.Contains(t, res.Warnings[0], "Bad Dir")
	require.Contains(t, res.Warnings[1], "loose.md")
	require.Equal(t, 1, res.Memories)
	require.False(t, fileExists(t, root, ".git/index.yaml"))
}

func Test_Reindex_Visits_Directory_Once_When_Symlink_Loops(t *testing.T) {
	t.Parallel()

	s, root := newStore(t)

	writeRaw(t, root, "a/x.md", "x")
	require.NoError(t, os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "loop")))

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.True(t, strings.Contains(res.Warnings[0], "a/loop"), res.Warnings[0])
	require.Equal(t, 1, res.Memories)
}

func Test_Reindex_Creates_Root_When_Missing(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "fresh")

	s, err := store.New(root, store.Options{})
	require.NoError(t, err)

	res, err := s.Reindex(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, res.Categories)
	require.True(t, fileExists(t, root, "index.yaml"))
}

func Test_Reindex_Returns_StorageError_When_Directory_Unreadable(t *testing.T) {
	t.Parallel()

	s, fsys, root := newInjectedStore(t)

	writeRaw(t, root, "a/x.md", "x")
	fsys.FailOn(cfs.OpReadDir, func(path string) bool { return strings.HasSuffix(path, "a") }, errors.New("permission denied"))

	_, err := s.Reindex(t.Context())
	require.ErrorIs(t, err, store.ErrStorage)
	require.Equal(t, store.CodeStorage, store.CodeOf(err))
	require.True(t, cfs.IsInjected(err))
}

func mustLoad(t *testing.T, s *store.FileStore, path string) string {
	t.Helper()

	m, err := s.Load(t.Context(), path)
	require.NoError(t, err)
	require.NotNil(t, m, path)

	return m.Content
}
