package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// Load reads the memory at path. It returns (nil, nil) when no file exists
// there; a corrupt file is a PARSE_FAILED error.
func (s *FileStore) Load(ctx context.Context, path string) (*memory.Memory, error) {
	p, err := mempath.Parse(path)
	if err != nil {
		return nil, withPath(err, path)
	}

	m, err := s.load(p)
	if err != nil {
		return nil, withPath(err, path)
	}

	s.logger.DebugContext(ctx, "load memory", "path", p.String(), "found", m != nil)

	return m, nil
}

func (s *FileStore) load(p mempath.Path) (*memory.Memory, error) {
	file := s.memoryFile(p)

	data, err := s.fs.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, storageErr("read", s.rel(file), err)
	}

	m, err := memory.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.rel(file), err)
	}

	return m, nil
}

// MemoryExists reports whether a memory file exists at path.
func (s *FileStore) MemoryExists(_ context.Context, path string) (bool, error) {
	p, err := mempath.Parse(path)
	if err != nil {
		return false, withPath(err, path)
	}

	ok, err := s.fileExists(s.memoryFile(p))
	if err != nil {
		return false, withPath(err, path)
	}

	return ok, nil
}

// Save writes m to path, replacing any existing file.
func (s *FileStore) Save(ctx context.Context, path string, m *memory.Memory, opts SaveOptions) error {
	p, err := mempath.Parse(path)
	if err != nil {
		return withPath(err, path)
	}

	err = s.save(ctx, p, m, opts)
	if err != nil {
		return withPath(err, path)
	}

	return nil
}

// Add is like [FileStore.Save] but fails with DESTINATION_EXISTS instead of
// overwriting an existing memory.
func (s *FileStore) Add(ctx context.Context, path string, m *memory.Memory, opts SaveOptions) error {
	p, err := mempath.Parse(path)
	if err != nil {
		return withPath(err, path)
	}

	exists, err := s.entryExists(s.memoryFile(p))
	if err != nil {
		return withPath(err, path)
	}

	if exists {
		return withPath(fmt.Errorf("%w: %s already exists", ErrDestinationExists, p), path)
	}

	err = s.save(ctx, p, m, opts)
	if err != nil {
		return withPath(err, path)
	}

	return nil
}

func (s *FileStore) save(ctx context.Context, p mempath.Path, m *memory.Memory, opts SaveOptions) error {
	if m == nil {
		return fmt.Errorf("%w: memory is nil", ErrInvalidArgument)
	}

	data, err := memory.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if opts.AllowIndexCreate {
		err = s.ensureTree(ctx, p.Category)
		if err != nil {
			return err
		}
	} else {
		exists, err := s.dirExists(s.categoryDir(p.Category))
		if err != nil {
			return err
		}

		if !exists {
			return fmt.Errorf("%w: category %q does not exist", ErrStorage, p.Category)
		}
	}

	file := s.memoryFile(p)

	err = s.fs.WriteFileAtomic(file, data, s.filePerm)
	if err != nil {
		return storageErr("write", s.rel(file), err)
	}

	s.logger.DebugContext(ctx, "saved memory", "path", p.String(), "bytes", len(data))

	if !opts.AllowIndexUpdate {
		return nil
	}

	return s.maintainer.updateAfterWrite(ctx, p, m, UpdateOptions{
		CreateWhenMissing: opts.AllowIndexCreate,
		Summary:           opts.Summary,
	})
}

// Remove deletes the memory file at path. Indexes are left alone; follow up
// with [Maintainer.UpdateAfterRemove] or a reindex.
func (s *FileStore) Remove(ctx context.Context, path string) error {
	p, err := mempath.Parse(path)
	if err != nil {
		return withPath(err, path)
	}

	file := s.memoryFile(p)

	exists, err := s.fileExists(file)
	if err != nil {
		return withPath(err, path)
	}

	if !exists {
		return withPath(ErrMemoryNotFound, path)
	}

	err = s.fs.Remove(file)
	if err != nil {
		return withPath(storageErr("remove", s.rel(file), err), path)
	}

	s.logger.DebugContext(ctx, "removed memory", "path", p.String())

	return nil
}

// Move relocates the memory at from to to. The destination category must
// already exist (MOVE_FAILED otherwise) and to must be free. The file is
// moved as is, so created_at and every other field are preserved. Indexes
// are left alone.
func (s *FileStore) Move(ctx context.Context, from, to string) error {
	src, err := mempath.Parse(from)
	if err != nil {
		return withPath(err, from)
	}

	dst, err := mempath.Parse(to)
	if err != nil {
		return withPath(err, to)
	}

	srcFile := s.memoryFile(src)
	dstFile := s.memoryFile(dst)

	exists, err := s.fileExists(srcFile)
	if err != nil {
		return withPath(err, from)
	}

	if !exists {
		return withPath(ErrMemoryNotFound, from)
	}

	exists, err = s.entryExists(dstFile)
	if err != nil {
		return withPath(err, to)
	}

	if exists {
		return withPath(fmt.Errorf("%w: %s already exists", ErrDestinationExists, dst), to)
	}

	exists, err = s.dirExists(s.categoryDir(dst.Category))
	if err != nil {
		return withPath(err, to)
	}

	if !exists {
		return withPath(fmt.Errorf("%w: destination category %q does not exist", ErrMoveFailed, dst.Category), to)
	}

	err = s.fs.Rename(srcFile, dstFile)
	if err != nil {
		return withPath(storageErr("rename", s.rel(srcFile), err), from)
	}

	s.logger.DebugContext(ctx, "moved memory", "from", src.String(), "to", dst.String())

	return nil
}
