package fs

import (
	"errors"
	"os"
	"sync"
)

// Op names a filesystem operation that [Injected] can fail.
type Op string

// Operations recognised by [Injected.FailOn].
const (
	OpReadFile        Op = "read_file"
	OpWriteFileAtomic Op = "write_file_atomic"
	OpReadDir         Op = "read_dir"
	OpMkdirAll        Op = "mkdir_all"
	OpStat            Op = "stat"
	OpRemove          Op = "remove"
	OpRename          Op = "rename"
)

// InjectedError marks an error as intentionally injected by [Injected].
//
// It wraps the underlying error so errors.Is/As continue to work.
type InjectedError struct {
	Op   Op
	Path string
	Err  error
}

// Error returns "<op> <path>: <cause>".
func (e *InjectedError) Error() string {
	return string(e.Op) + " " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *InjectedError) Unwrap() error {
	return e.Err
}

// IsInjected reports whether err (or any wrapped error) was injected by [Injected].
func IsInjected(err error) bool {
	var injected *InjectedError

	return errors.As(err, &injected)
}

// Injected wraps another [FS] and fails operations chosen by the test.
//
// A rule fails every call of an operation whose path satisfies match. Rules
// are checked in registration order; the first match wins. Injected is safe
// for concurrent use.
type Injected struct {
	inner FS

	mu    sync.Mutex
	rules []injectRule
}

type injectRule struct {
	op    Op
	match func(path string) bool
	err   error
}

// NewInjected returns an [Injected] delegating to inner.
// Panics if inner is nil.
func NewInjected(inner FS) *Injected {
	if inner == nil {
		panic("inner fs is nil")
	}

	return &Injected{inner: inner}
}

// FailOn makes op fail with err for every path where match returns true.
// A nil match fails every path.
func (f *Injected) FailOn(op Op, match func(path string) bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = append(f.rules, injectRule{op: op, match: match, err: err})
}

// Reset removes all rules.
func (f *Injected) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rules = nil
}

func (f *Injected) check(op Op, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rule := range f.rules {
		if rule.op != op {
			continue
		}

		if rule.match == nil || rule.match(path) {
			return &InjectedError{Op: op, Path: path, Err: rule.err}
		}
	}

	return nil
}

func (f *Injected) ReadFile(path string) ([]byte, error) {
	if err := f.check(OpReadFile, path); err != nil {
		return nil, err
	}

	return f.inner.ReadFile(path)
}

func (f *Injected) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := f.check(OpWriteFileAtomic, path); err != nil {
		return err
	}

	return f.inner.WriteFileAtomic(path, data, perm)
}

func (f *Injected) ReadDir(path string) ([]os.DirEntry, error) {
	if err := f.check(OpReadDir, path); err != nil {
		return nil, err
	}

	return f.inner.ReadDir(path)
}

func (f *Injected) MkdirAll(path string, perm os.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}

	return f.inner.MkdirAll(path, perm)
}

func (f *Injected) Stat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.inner.Stat(path)
}

func (f *Injected) Lstat(path string) (os.FileInfo, error) {
	if err := f.check(OpStat, path); err != nil {
		return nil, err
	}

	return f.inner.Lstat(path)
}

func (f *Injected) Exists(path string) (bool, error) {
	if err := f.check(OpStat, path); err != nil {
		return false, err
	}

	return f.inner.Exists(path)
}

func (f *Injected) EvalSymlinks(path string) (string, error) {
	return f.inner.EvalSymlinks(path)
}

func (f *Injected) Remove(path string) error {
	if err := f.check(OpRemove, path); err != nil {
		return err
	}

	return f.inner.Remove(path)
}

func (f *Injected) Rename(oldpath, newpath string) error {
	if err := f.check(OpRename, oldpath); err != nil {
		return err
	}

	return f.inner.Rename(oldpath, newpath)
}

// Compile-time interface check.
var _ FS = (*Injected)(nil)
