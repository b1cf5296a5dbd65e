package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yeseh/cortex-sub001/internal/index"
	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// Result summarizes a reindex run.
type Result struct {
	// Warnings are human-readable notes about files that were renamed or
	// skipped. They never make the run fail.
	Warnings []string
	// Categories is the number of index files written, root included.
	Categories int
	// Memories is the number of memories indexed.
	Memories int
}

// Reindex rebuilds every index file from the memory files on disk.
// See [Reindexer].
func (s *FileStore) Reindex(ctx context.Context) (Result, error) {
	res, err := s.Reindexer().Reindex(ctx)
	if err != nil {
		return res, withPath(err, "")
	}

	return res, nil
}

// Reindexer returns a fresh rebuild run for this store.
func (s *FileStore) Reindexer() *Reindexer {
	return &Reindexer{s: s}
}

// Reindexer rebuilds the index tree from ground truth, ignoring whatever the
// existing indexes claim (apart from summaries and descriptions, which exist
// nowhere else and are carried over when the old index is readable).
//
// The walk uses an explicit stack and visits each directory once, keyed by
// its symlink-resolved path. Within a directory, files already named
// "<slug>.md" keep their slug; every other *.md file is normalized and, on a
// collision, suffixed "-2", "-3", ... in lexical filename order. Files whose
// resolved name differs from the on-disk name are renamed so that each entry
// can be loaded by path. Renames and skipped files produce warnings.
//
// A Reindexer is single use.
type Reindexer struct {
	s        *FileStore
	warnings []string
}

// dirState is one visited category.
type dirState struct {
	cat      mempath.Category
	dir      string
	slugs    []string
	children []mempath.Category
	prev     *index.Index
}

// Reindex runs the rebuild. It fails only on I/O errors.
func (r *Reindexer) Reindex(ctx context.Context) (Result, error) {
	s := r.s

	err := s.fs.MkdirAll(s.root, s.dirPerm)
	if err != nil {
		return Result{}, storageErr("mkdir", s.root, err)
	}

	states, err := r.walk(ctx)
	if err != nil {
		return Result{Warnings: r.warnings}, err
	}

	built := make(map[mempath.Category]*index.Index, len(states))
	res := Result{}

	// Children are visited after their parent, so reverse order is
	// bottom-up.
	for i := len(states) - 1; i >= 0; i-- {
		st := states[i]

		ix, err := r.build(ctx, st, built)
		if err != nil {
			return Result{Warnings: r.warnings}, err
		}

		built[st.cat] = ix
		res.Memories += len(ix.Memories)
	}

	for _, st := range states {
		err := s.writeIndex(st.cat, built[st.cat])
		if err != nil {
			return Result{Warnings: r.warnings}, err
		}

		res.Categories++
	}

	res.Warnings = r.warnings

	s.logger.InfoContext(ctx, "reindex complete",
		"categories", res.Categories, "memories", res.Memories, "warnings", len(res.Warnings))

	return res, nil
}

func (r *Reindexer) warn(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

type pending struct {
	cat mempath.Category
	dir string
}

// walk visits the tree depth first in name order and resolves slugs.
func (r *Reindexer) walk(ctx context.Context) ([]*dirState, error) {
	s := r.s

	var (
		states  []*dirState
		byCat   = make(map[mempath.Category]*dirState)
		visited = make(map[string]bool)
		stack   = []pending{{cat: mempath.Root, dir: s.root}}
	)

	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		resolved, err := s.fs.EvalSymlinks(next.dir)
		if err != nil {
			return nil, storageErr("resolve", s.rel(next.dir), err)
		}

		if visited[resolved] {
			r.warn("skipped %s: directory already visited (symlink loop)", displayCategory(next.cat))

			continue
		}

		visited[resolved] = true

		st, subdirs, err := r.scan(ctx, next)
		if err != nil {
			return nil, err
		}

		states = append(states, st)
		byCat[st.cat] = st

		if !st.cat.IsRoot() {
			parent := byCat[st.cat.Parent()]
			parent.children = append(parent.children, st.cat)
		}

		// Push in reverse so the stack pops in name order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return states, nil
}

// scan reads one directory: it returns the category state with resolved
// slugs and the subdirectories to visit.
func (r *Reindexer) scan(ctx context.Context, at pending) (*dirState, []pending, error) {
	s := r.s

	entries, err := s.fs.ReadDir(at.dir)
	if err != nil {
		return nil, nil, storageErr("read dir", s.rel(at.dir), err)
	}

	var (
		files   []string
		subdirs []pending
	)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || name == index.FileName {
			continue
		}

		isDir, isFile, err := r.kind(at.dir, entry)
		if err != nil {
			return nil, nil, err
		}

		switch {
		case isDir:
			if !mempath.ValidSegment(name) {
				r.warn("skipped directory %s: name is not a valid category segment", joinDisplay(at.cat, name))

				continue
			}

			child := at.cat.Child(name)
			subdirs = append(subdirs, pending{cat: child, dir: s.categoryDir(child)})
		case isFile && mempath.IsMemoryFile(name):
			files = append(files, name)
		}
	}

	prev, err := s.loadIndex(at.cat)
	if err != nil {
		if !errors.Is(err, index.ErrParse) {
			return nil, nil, err
		}

		r.warn("discarded unreadable index of %s: %v", displayCategory(at.cat), err)

		prev = nil
	}

	st := &dirState{cat: at.cat, dir: at.dir, prev: prev}

	if at.cat.IsRoot() {
		for _, name := range files {
			r.warn("skipped %s: memories must live inside a category", name)
		}

		return st, subdirs, nil
	}

	st.slugs, err = r.resolveSlugs(ctx, at, files)
	if err != nil {
		return nil, nil, err
	}

	return st, subdirs, nil
}

// kind classifies entry, following symlinks. Dangling links are skipped with
// a warning.
func (r *Reindexer) kind(dir string, entry os.DirEntry) (bool, bool, error) {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.IsDir(), entry.Type().IsRegular(), nil
	}

	full := filepath.Join(dir, entry.Name())

	info, err := r.s.fs.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.warn("skipped %s: dangling symlink", r.s.rel(full))

			return false, false, nil
		}

		return false, false, storageErr("stat", r.s.rel(full), err)
	}

	return info.IsDir(), info.Mode().IsRegular(), nil
}

// resolveSlugs assigns a unique slug to every memory file in one category and
// renames files whose name does not match their slug. files is sorted.
func (r *Reindexer) resolveSlugs(ctx context.Context, at pending, files []string) ([]string, error) {
	alloc := mempath.NewSlugAllocator()
	slugs := make([]string, 0, len(files))

	var rest []string

	for _, name := range files {
		if slug, ok := mempath.CanonicalSlug(name); ok {
			alloc.Reserve(slug)
			slugs = append(slugs, slug)

			continue
		}

		rest = append(rest, name)
	}

	for _, name := range rest {
		a, err := r.allocate(alloc, at.dir, name)
		if err != nil {
			return nil, err
		}

		if a.Skipped() {
			r.warn("skipped %s: file name does not normalize to a valid slug", joinDisplay(at.cat, name))

			continue
		}

		resolved := mempath.Path{Category: at.cat, Slug: a.Slug}

		if a.Suffix > 0 {
			r.warn("resolved slug collision: %s indexed as %s", joinDisplay(at.cat, name), resolved)
		}

		from := filepath.Join(at.dir, name)
		to := filepath.Join(at.dir, a.Slug+mempath.Extension)

		err = r.s.fs.Rename(from, to)
		if err != nil {
			return nil, storageErr("rename", r.s.rel(from), err)
		}

		r.s.logger.DebugContext(ctx, "renamed memory file", "from", r.s.rel(from), "to", resolved.String())

		slugs = append(slugs, a.Slug)
	}

	return slugs, nil
}

// allocate picks the slug for name, passing over suffixes whose target
// "<slug>.md" is held by another directory entry (a directory, a dangling
// symlink, a FIFO). A target that is the source itself, as with a case-only
// rename on a case-insensitive filesystem, is not a conflict.
func (r *Reindexer) allocate(alloc *mempath.SlugAllocator, dir, name string) (mempath.Allocation, error) {
	from := filepath.Join(dir, name)

	src, err := r.s.fs.Lstat(from)
	if err != nil {
		return mempath.Allocation{}, storageErr("lstat", r.s.rel(from), err)
	}

	for {
		a := alloc.Allocate(name)
		if a.Skipped() {
			return a, nil
		}

		to := filepath.Join(dir, a.Slug+mempath.Extension)

		held, err := r.s.fs.Lstat(to)
		if errors.Is(err, fs.ErrNotExist) {
			return a, nil
		}

		if err != nil {
			return mempath.Allocation{}, storageErr("lstat", r.s.rel(to), err)
		}

		if os.SameFile(src, held) {
			return a, nil
		}
	}
}

// build creates the fresh index of st. Child indexes must already be in
// built.
func (r *Reindexer) build(ctx context.Context, st *dirState, built map[mempath.Category]*index.Index) (*index.Index, error) {
	ix := index.New()

	for _, slug := range st.slugs {
		p := mempath.Path{Category: st.cat, Slug: slug}
		entry := index.MemoryEntry{Path: p.String()}

		if st.prev != nil {
			if prev, ok := st.prev.Memory(entry.Path); ok {
				entry.Summary = prev.Summary
			}
		}

		n, ok, err := r.estimate(ctx, p)
		if err != nil {
			return nil, err
		}

		if ok {
			entry.TokenEstimate = index.Estimate(n)
		}

		ix.UpsertMemory(entry)
	}

	for _, child := range st.children {
		childIx := built[child]
		if childIx == nil {
			continue
		}

		description := ""

		if st.prev != nil {
			if prev, ok := st.prev.Subcategory(child.String()); ok {
				description = prev.Description
			}
		}

		applySubcategory(ix, child, childIx, description)
	}

	return ix, nil
}

// estimate reads the memory body for a token estimate. A corrupt memory is
// still indexed, without an estimate, and reported.
func (r *Reindexer) estimate(_ context.Context, p mempath.Path) (int, bool, error) {
	file := r.s.memoryFile(p)

	data, err := r.s.fs.ReadFile(file)
	if err != nil {
		return 0, false, storageErr("read", r.s.rel(file), err)
	}

	m, err := memory.Parse(data)
	if err != nil {
		r.warn("indexed %s without token estimate: %v", p, err)

		return 0, false, nil
	}

	n, ok := r.s.tokens.EstimateTokens(m.Content)

	return n, ok, nil
}

func displayCategory(c mempath.Category) string {
	if c.IsRoot() {
		return "store root"
	}

	return c.String()
}

func joinDisplay(c mempath.Category, name string) string {
	if c.IsRoot() {
		return name
	}

	return c.String() + "/" + name
}
