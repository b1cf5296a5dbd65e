package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Yeseh/cortex-sub001/internal/index"
	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// Code is the stable kind of a store error, shown to users and tool callers.
type Code string

// Error codes.
const (
	CodeInvalidPath       Code = "INVALID_PATH"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeMemoryNotFound    Code = "MEMORY_NOT_FOUND"
	CodeDestinationExists Code = "DESTINATION_EXISTS"
	CodeMoveFailed        Code = "MOVE_FAILED"
	CodeParseFailed       Code = "PARSE_FAILED"
	CodeStorage           Code = "STORAGE_ERROR"
	CodeCategoryNotFound  Code = "CATEGORY_NOT_FOUND"
	CodeCategoryNotEmpty  Code = "CATEGORY_NOT_EMPTY"
)

// Sentinel errors, one per [Code]. Use [errors.Is] to test for them.
// Parse failures match [memory.ErrParse] or [index.ErrParse].
var (
	ErrInvalidPath       = mempath.ErrInvalidPath
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrMemoryNotFound    = errors.New("memory not found")
	ErrDestinationExists = errors.New("destination exists")
	ErrMoveFailed        = errors.New("move failed")
	ErrStorage           = errors.New("storage error")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryNotEmpty  = errors.New("category not empty")
)

// Error is the error type returned by the public [FileStore] API.
//
// The underlying message comes first, followed by the code and the memory or
// category path the operation was called with:
//
//	memory not found (code=MEMORY_NOT_FOUND path=project/notes)
//
// Use [errors.As] to get the path and [CodeOf] to get the code:
//
//	var sErr *store.Error
//	if errors.As(err, &sErr) {
//	    fmt.Printf("%s failed with %s\n", sErr.Path, sErr.Code())
//	}
type Error struct {
	// Path is the memory or category path as passed by the caller.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (code=KIND path=a/b)".
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	parts := []string{"code=" + string(e.Code())}
	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	suffix := "(" + strings.Join(parts, " ") + ")"

	if e.Err == nil {
		return suffix
	}

	return e.Err.Error() + " " + suffix
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// Code returns the kind of the underlying cause.
func (e *Error) Code() Code {
	if e == nil {
		return ""
	}

	return CodeOf(e.Err)
}

// CodeOf maps err to its [Code]. Errors that match no sentinel are reported
// as [CodeStorage]; nil maps to "".
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPath):
		return CodeInvalidPath
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrMemoryNotFound):
		return CodeMemoryNotFound
	case errors.Is(err, ErrDestinationExists):
		return CodeDestinationExists
	case errors.Is(err, ErrMoveFailed):
		return CodeMoveFailed
	case errors.Is(err, memory.ErrParse), errors.Is(err, index.ErrParse):
		return CodeParseFailed
	case errors.Is(err, ErrCategoryNotFound):
		return CodeCategoryNotFound
	case errors.Is(err, ErrCategoryNotEmpty):
		return CodeCategoryNotEmpty
	default:
		return CodeStorage
	}
}

// Message returns err's message without the "(code=... path=...)" suffix.
func Message(err error) string {
	var sErr *Error
	if errors.As(err, &sErr) && sErr.Err != nil {
		return sErr.Err.Error()
	}

	if err == nil {
		return ""
	}

	return err.Error()
}

// withPath attaches the caller's path at API boundaries and returns *Error.
// If err is already *Error, an empty Path is filled in place.
func withPath(err error, path string) error {
	if err == nil {
		return nil
	}

	existing := &Error{}
	if errors.As(err, &existing) {
		if existing.Path == "" {
			existing.Path = path
		}

		return existing
	}

	return &Error{Path: path, Err: err}
}

// storageErr wraps an I/O failure so it matches [ErrStorage].
func storageErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, path, err)
}
