package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Yeseh/cortex-sub001/internal/index"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// LoadIndex reads the index of category ("" is the root). It returns
// (nil, nil) when the category has no index file.
func (s *FileStore) LoadIndex(_ context.Context, category string) (*index.Index, error) {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return nil, withPath(err, category)
	}

	ix, err := s.loadIndex(c)
	if err != nil {
		return nil, withPath(err, category)
	}

	return ix, nil
}

func (s *FileStore) loadIndex(c mempath.Category) (*index.Index, error) {
	file := s.indexFile(c)

	data, err := s.fs.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, storageErr("read", s.rel(file), err)
	}

	ix, err := index.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.rel(file), err)
	}

	return ix, nil
}

// WriteIndex replaces the index of category. The category directory must
// exist.
func (s *FileStore) WriteIndex(_ context.Context, category string, ix *index.Index) error {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return withPath(err, category)
	}

	err = s.writeIndex(c, ix)
	if err != nil {
		return withPath(err, category)
	}

	return nil
}

func (s *FileStore) writeIndex(c mempath.Category, ix *index.Index) error {
	data, err := index.Marshal(ix)
	if err != nil {
		return err
	}

	file := s.indexFile(c)

	err = s.fs.WriteFileAtomic(file, data, s.filePerm)
	if err != nil {
		return storageErr("write", s.rel(file), err)
	}

	return nil
}

// EnsureCategory creates the category directory and an empty index for it
// and every ancestor that lacks one. Existing indexes are not touched.
func (s *FileStore) EnsureCategory(ctx context.Context, category string) error {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return withPath(err, category)
	}

	err = s.ensureTree(ctx, c)
	if err != nil {
		return withPath(err, category)
	}

	return nil
}

// ensureTree walks from the root down to c, creating what is missing.
func (s *FileStore) ensureTree(ctx context.Context, c mempath.Category) error {
	dir := s.categoryDir(c)

	err := s.fs.MkdirAll(dir, s.dirPerm)
	if err != nil {
		return storageErr("mkdir", s.rel(dir), err)
	}

	levels := append([]mempath.Category{c}, c.Ancestors()...)

	for i := len(levels) - 1; i >= 0; i-- {
		level := levels[i]

		exists, err := s.fileExists(s.indexFile(level))
		if err != nil {
			return err
		}

		if exists {
			continue
		}

		err = s.writeIndex(level, index.New())
		if err != nil {
			return err
		}

		s.logger.DebugContext(ctx, "created index", "category", level.String())
	}

	return nil
}

// CategoryExists reports whether the category directory exists.
func (s *FileStore) CategoryExists(_ context.Context, category string) (bool, error) {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return false, withPath(err, category)
	}

	ok, err := s.dirExists(s.categoryDir(c))
	if err != nil {
		return false, withPath(err, category)
	}

	return ok, nil
}

// DeleteCategory removes an empty category: its index file and directory.
// Anything else in the directory (memories, subcategories, other files) makes
// it CATEGORY_NOT_EMPTY; there is no cascading delete. The root cannot be
// deleted. Parent indexes are left alone; see
// [Maintainer.UpdateAfterCategoryDelete].
func (s *FileStore) DeleteCategory(ctx context.Context, category string) error {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return withPath(err, category)
	}

	if c.IsRoot() {
		return withPath(fmt.Errorf("%w: the store root cannot be deleted", ErrInvalidArgument), category)
	}

	dir := s.categoryDir(c)

	exists, err := s.dirExists(dir)
	if err != nil {
		return withPath(err, category)
	}

	if !exists {
		return withPath(ErrCategoryNotFound, category)
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return withPath(storageErr("read dir", s.rel(dir), err), category)
	}

	for _, entry := range entries {
		if entry.Name() == index.FileName && !entry.IsDir() {
			continue
		}

		return withPath(fmt.Errorf("%w: %s contains %s", ErrCategoryNotEmpty, c, entry.Name()), category)
	}

	indexFile := s.indexFile(c)

	err = s.fs.Remove(indexFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return withPath(storageErr("remove", s.rel(indexFile), err), category)
	}

	err = s.fs.Remove(dir)
	if err != nil {
		return withPath(storageErr("remove", s.rel(dir), err), category)
	}

	s.logger.DebugContext(ctx, "deleted category", "category", c.String())

	return nil
}
