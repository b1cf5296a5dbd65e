package mempath

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// Extension is the on-disk extension of memory files.
const Extension = ".md"

// IsMemoryFile reports whether name carries the memory file extension,
// ignoring case.
func IsMemoryFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), Extension)
}

// CanonicalSlug returns the slug of a file that is already named exactly
// "<slug>.md" with a valid slug.
func CanonicalSlug(filename string) (string, bool) {
	stem, ok := strings.CutSuffix(filename, Extension)
	if !ok || !ValidSegment(stem) {
		return "", false
	}

	return stem, true
}

// NormalizeSlug turns a raw filename into a slug.
//
// The memory extension is dropped, letters are lowercased and every run of
// characters outside [a-z0-9] (whitespace, underscores, punctuation, repeated
// hyphens) becomes a single hyphen. Leading and trailing hyphens are removed.
// An empty result means the file cannot be indexed.
func NormalizeSlug(filename string) string {
	stem := filename
	if IsMemoryFile(filename) {
		stem = filename[:len(filename)-len(Extension)]
	}

	var b strings.Builder

	b.Grow(len(stem))

	pendingHyphen := false

	for _, r := range stem {
		r = unicode.ToLower(r)

		if r < unicode.MaxASCII && isSlugChar(byte(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}

			pendingHyphen = false

			b.WriteRune(r)

			continue
		}

		pendingHyphen = true
	}

	return b.String()
}

// Allocation is the outcome of [SlugAllocator.Allocate].
type Allocation struct {
	// Slug is the resolved slug; empty when the name normalized to nothing.
	Slug string
	// Suffix is the numeric suffix appended to resolve a collision, or 0.
	Suffix int
}

// Skipped reports whether the file normalized to an empty slug.
func (a Allocation) Skipped() bool {
	return a.Slug == ""
}

// SlugAllocator hands out unique slugs within one category.
//
// Slugs of files that are already canonically named are reserved first with
// [SlugAllocator.Reserve]. Every other file is then passed to
// [SlugAllocator.Allocate] in a fixed order (lexical by original filename):
// the first file normalizing to a free slug keeps it bare, later ones receive
// "-2", "-3", ... skipping suffixes that are already taken.
type SlugAllocator struct {
	taken map[string]bool
}

// NewSlugAllocator returns an empty allocator.
func NewSlugAllocator() *SlugAllocator {
	return &SlugAllocator{taken: make(map[string]bool)}
}

// Reserve marks slug as used by an existing, canonically named file.
func (a *SlugAllocator) Reserve(slug string) {
	a.taken[slug] = true
}

// Taken reports whether slug is reserved or allocated.
func (a *SlugAllocator) Taken(slug string) bool {
	return a.taken[slug]
}

// Allocate normalizes filename and returns a slug unique within the allocator.
func (a *SlugAllocator) Allocate(filename string) Allocation {
	base := NormalizeSlug(filename)
	if base == "" {
		return Allocation{}
	}

	if !a.taken[base] {
		a.taken[base] = true

		return Allocation{Slug: base}
	}

	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if a.taken[candidate] {
			continue
		}

		a.taken[candidate] = true

		return Allocation{Slug: candidate, Suffix: n}
	}
}
