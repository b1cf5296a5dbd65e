// Package mempath validates and normalizes memory paths.
//
// A memory path is "category/.../slug": at least two segments, each one
// lowercase kebab-case ([a-z0-9]+(-[a-z0-9]+)*). Everything before the last
// segment is the category path; the empty category is the store root.
//
// Two modes exist. [Parse] and [ParseCategory] are strict and reject anything
// that is not already canonical. [NormalizeSlug] is lenient and turns an
// arbitrary on-disk filename into a slug; it is only used when rebuilding
// indexes from files that were created outside the store.
package mempath

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath indicates a path failed strict validation.
var ErrInvalidPath = errors.New("invalid path")

const separator = "/"

// minPathSegments is category + slug.
const minPathSegments = 2

// Category is a canonical category path such as "project/notes".
// The zero value is the store root.
type Category string

// Root is the store root category.
const Root Category = ""

// Path is a validated memory path. Category is never [Root].
type Path struct {
	Category Category
	Slug     string
}

// Parse validates raw strictly and returns the memory path.
//
// Repeated separators collapse ("a//b" is "a/b"), leading and trailing
// separators are ignored. At least two segments must remain and each must be
// lowercase kebab-case.
func Parse(raw string) (Path, error) {
	segments := splitSegments(raw)

	if len(segments) < minPathSegments {
		return Path{}, fmt.Errorf("%w: %q must have at least %d segments (category/slug), got %d",
			ErrInvalidPath, raw, minPathSegments, len(segments))
	}

	if err := validateSegments(raw, segments); err != nil {
		return Path{}, err
	}

	last := len(segments) - 1

	return Path{
		Category: Category(strings.Join(segments[:last], separator)),
		Slug:     segments[last],
	}, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}

	return p
}

// ParseCategory validates raw strictly as a category path.
// An empty string (or only separators) is the root.
func ParseCategory(raw string) (Category, error) {
	segments := splitSegments(raw)

	if err := validateSegments(raw, segments); err != nil {
		return Root, err
	}

	return Category(strings.Join(segments, separator)), nil
}

// NewPath joins a category and slug into a path, validating both.
func NewPath(category Category, slug string) (Path, error) {
	if category.IsRoot() {
		return Path{}, fmt.Errorf("%w: %q has no category", ErrInvalidPath, slug)
	}

	if !ValidSegment(slug) {
		return Path{}, fmt.Errorf("%w: slug %q must be lowercase kebab-case", ErrInvalidPath, slug)
	}

	return Path{Category: category, Slug: slug}, nil
}

// String returns the canonical "category/slug" form.
func (p Path) String() string {
	return string(p.Category) + separator + p.Slug
}

// IsZero reports whether p is the zero Path.
func (p Path) IsZero() bool {
	return p.Category == Root && p.Slug == ""
}

// Segments returns the path segments, category first.
func (p Path) Segments() []string {
	return append(p.Category.Segments(), p.Slug)
}

// String returns the canonical form; "" for the root.
func (c Category) String() string {
	return string(c)
}

// IsRoot reports whether c is the store root.
func (c Category) IsRoot() bool {
	return c == Root
}

// Segments returns the category segments; nil for the root.
func (c Category) Segments() []string {
	if c.IsRoot() {
		return nil
	}

	return strings.Split(string(c), separator)
}

// Depth is the number of segments.
func (c Category) Depth() int {
	if c.IsRoot() {
		return 0
	}

	return strings.Count(string(c), separator) + 1
}

// Name returns the last segment; "" for the root.
func (c Category) Name() string {
	idx := strings.LastIndex(string(c), separator)

	return string(c)[idx+1:]
}

// Parent returns the enclosing category. The root is its own parent.
func (c Category) Parent() Category {
	idx := strings.LastIndex(string(c), separator)
	if idx < 0 {
		return Root
	}

	return c[:idx]
}

// Child returns c extended by one segment. The segment must be valid; use
// [ValidSegment] first when it comes from outside.
func (c Category) Child(segment string) Category {
	if c.IsRoot() {
		return Category(segment)
	}

	return c + separator + Category(segment)
}

// Ancestors returns c's proper ancestors from the immediate parent up to and
// including the root. The root has no ancestors.
func (c Category) Ancestors() []Category {
	if c.IsRoot() {
		return nil
	}

	out := make([]Category, 0, c.Depth())

	for cur := c.Parent(); ; cur = cur.Parent() {
		out = append(out, cur)

		if cur.IsRoot() {
			return out
		}
	}
}

// Contains reports whether other is c or lies below c.
func (c Category) Contains(other Category) bool {
	if c.IsRoot() || c == other {
		return true
	}

	return strings.HasPrefix(string(other), string(c)+separator)
}

// ValidSegment reports whether s is lowercase kebab-case.
func ValidSegment(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}

	prevHyphen := false

	for i := range len(s) {
		ch := s[i]

		switch {
		case isSlugChar(ch):
			prevHyphen = false
		case ch == '-':
			if prevHyphen {
				return false
			}

			prevHyphen = true
		default:
			return false
		}
	}

	return true
}

func isSlugChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
}

func splitSegments(raw string) []string {
	parts := strings.Split(raw, separator)
	segments := parts[:0]

	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}

	return segments
}

func validateSegments(raw string, segments []string) error {
	for _, segment := range segments {
		if !ValidSegment(segment) {
			return fmt.Errorf("%w: segment %q in %q must be lowercase kebab-case (a-z, 0-9, single hyphens)",
				ErrInvalidPath, segment, raw)
		}
	}

	return nil
}
