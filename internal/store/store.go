package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	cfs "github.com/Yeseh/cortex-sub001/internal/fs"
	"github.com/Yeseh/cortex-sub001/internal/index"
	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
	"github.com/Yeseh/cortex-sub001/internal/tokens"
)

// Default permissions for files and directories created by the store.
const (
	DefaultFilePerm os.FileMode = 0o644
	DefaultDirPerm  os.FileMode = 0o750
)

// Adapter is the storage contract the service layer is written against.
// [FileStore] is the filesystem implementation.
//
// Memory paths are "category/.../slug" and category paths may be empty (the
// store root). Every path is validated before any I/O.
type Adapter interface {
	Root() string

	Load(ctx context.Context, path string) (*memory.Memory, error)
	Save(ctx context.Context, path string, m *memory.Memory, opts SaveOptions) error
	Add(ctx context.Context, path string, m *memory.Memory, opts SaveOptions) error
	Remove(ctx context.Context, path string) error
	Move(ctx context.Context, from, to string) error
	MemoryExists(ctx context.Context, path string) (bool, error)

	LoadIndex(ctx context.Context, category string) (*index.Index, error)
	WriteIndex(ctx context.Context, category string, ix *index.Index) error
	EnsureCategory(ctx context.Context, category string) error
	CategoryExists(ctx context.Context, category string) (bool, error)
	DeleteCategory(ctx context.Context, category string) error

	Maintainer() *Maintainer
	Reindex(ctx context.Context) (Result, error)
}

// Options configures a [FileStore]. Zero values pick defaults.
type Options struct {
	// FS is the filesystem. Defaults to [cfs.NewReal].
	FS cfs.FS
	// Tokens fills token_estimate in index entries. Defaults to [tokens.None].
	Tokens tokens.Estimator
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
	// FilePerm applies to memory and index files.
	FilePerm os.FileMode
	// DirPerm applies to category directories.
	DirPerm os.FileMode
}

// SaveOptions controls index handling for [FileStore.Save] and [FileStore.Add].
type SaveOptions struct {
	// AllowIndexCreate creates missing category directories and index files
	// along the path. Without it a missing category is a storage error.
	AllowIndexCreate bool
	// AllowIndexUpdate patches the index tree after the write.
	AllowIndexUpdate bool
	// Summary is stored in the index entry. Empty keeps the previous one.
	Summary string
}

// FileStore is a memory store rooted at one directory.
type FileStore struct {
	root     string
	fs       cfs.FS
	tokens   tokens.Estimator
	logger   *slog.Logger
	filePerm os.FileMode
	dirPerm  os.FileMode

	maintainer *Maintainer
}

var _ Adapter = (*FileStore)(nil)

// New returns a store bound to root. The directory does not have to exist
// yet; it is created by the first write that is allowed to create
// categories, or by [FileStore.Reindex].
func New(root string, opts Options) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("new store: root is empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("new store: resolve root: %w", err)
	}

	s := &FileStore{
		root:     abs,
		fs:       opts.FS,
		tokens:   opts.Tokens,
		logger:   opts.Logger,
		filePerm: opts.FilePerm,
		dirPerm:  opts.DirPerm,
	}

	if s.fs == nil {
		s.fs = cfs.NewReal()
	}

	if s.tokens == nil {
		s.tokens = tokens.None{}
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	if s.filePerm == 0 {
		s.filePerm = DefaultFilePerm
	}

	if s.dirPerm == 0 {
		s.dirPerm = DefaultDirPerm
	}

	s.maintainer = &Maintainer{s: s}

	return s, nil
}

// Root returns the absolute store root.
func (s *FileStore) Root() string {
	return s.root
}

// Maintainer returns the incremental index maintainer bound to this store.
func (s *FileStore) Maintainer() *Maintainer {
	return s.maintainer
}

func (s *FileStore) categoryDir(c mempath.Category) string {
	if c.IsRoot() {
		return s.root
	}

	return filepath.Join(s.root, filepath.FromSlash(c.String()))
}

func (s *FileStore) indexFile(c mempath.Category) string {
	return filepath.Join(s.categoryDir(c), index.FileName)
}

func (s *FileStore) memoryFile(p mempath.Path) string {
	return filepath.Join(s.categoryDir(p.Category), p.Slug+mempath.Extension)
}

// rel returns path relative to the root for messages.
func (s *FileStore) rel(path string) string {
	r, err := filepath.Rel(s.root, path)
	if err != nil {
		return path
	}

	return filepath.ToSlash(r)
}

func (s *FileStore) dirExists(dir string) (bool, error) {
	info, err := s.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, storageErr("stat", s.rel(dir), err)
	}

	return info.IsDir(), nil
}

// entryExists reports whether anything, of any type, is at path.
func (s *FileStore) entryExists(path string) (bool, error) {
	ok, err := s.fs.Exists(path)
	if err != nil {
		return false, storageErr("stat", s.rel(path), err)
	}

	return ok, nil
}

func (s *FileStore) fileExists(path string) (bool, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, storageErr("stat", s.rel(path), err)
	}

	return info.Mode().IsRegular(), nil
}
