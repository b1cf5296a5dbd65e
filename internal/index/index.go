// Package index provides the per-category listing stored next to memories.
//
// Every category directory (including the store root) may hold an
// index.yaml describing its direct children only:
//
//	memories:
//	  - path: project/notes
//	    token_estimate: 42
//	    summary: meeting notes
//	subcategories:
//	  - path: project/archive
//	    memory_count: 7
//	    description: old stuff
//
// The index is a rebuildable view; memory files are the source of truth.
// Entries are kept sorted by path so that encoding is deterministic.
package index

import (
	"sort"
)

// FileName is the index file name inside each category directory.
const FileName = "index.yaml"

// MemoryEntry summarizes one memory that lives directly in the category.
type MemoryEntry struct {
	// Path is the full memory path ("category/slug").
	Path string `yaml:"path"`
	// TokenEstimate is nil, and omitted, when no tokenizer was available.
	TokenEstimate *int   `yaml:"token_estimate,omitempty"`
	Summary       string `yaml:"summary,omitempty"`
}

// Estimate returns n as a token estimate.
func Estimate(n int) *int {
	return &n
}

// SubcategoryEntry summarizes one direct child category.
type SubcategoryEntry struct {
	// Path is the full category path.
	Path string `yaml:"path"`
	// MemoryCount is the number of memories in the whole subtree.
	MemoryCount int    `yaml:"memory_count"`
	Description string `yaml:"description,omitempty"`
}

// Index is the listing of one category.
type Index struct {
	Memories      []MemoryEntry      `yaml:"memories"`
	Subcategories []SubcategoryEntry `yaml:"subcategories"`
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// IsEmpty reports whether the index lists nothing.
func (ix *Index) IsEmpty() bool {
	return len(ix.Memories) == 0 && len(ix.Subcategories) == 0
}

// TotalMemoryCount returns the number of memories in the subtree this index
// describes: direct memories plus every subcategory's aggregate count.
func (ix *Index) TotalMemoryCount() int {
	total := len(ix.Memories)

	for _, sub := range ix.Subcategories {
		total += sub.MemoryCount
	}

	return total
}

// Memory returns the entry for path.
func (ix *Index) Memory(path string) (MemoryEntry, bool) {
	i, ok := ix.memoryIndex(path)
	if !ok {
		return MemoryEntry{}, false
	}

	return ix.Memories[i], true
}

// UpsertMemory inserts or replaces the entry with the same path.
func (ix *Index) UpsertMemory(entry MemoryEntry) {
	i, ok := ix.memoryIndex(entry.Path)
	if ok {
		ix.Memories[i] = entry

		return
	}

	ix.Memories = append(ix.Memories, MemoryEntry{})
	copy(ix.Memories[i+1:], ix.Memories[i:])
	ix.Memories[i] = entry
}

// RemoveMemory drops the entry for path and reports whether it existed.
func (ix *Index) RemoveMemory(path string) bool {
	i, ok := ix.memoryIndex(path)
	if !ok {
		return false
	}

	ix.Memories = append(ix.Memories[:i], ix.Memories[i+1:]...)

	return true
}

// Subcategory returns the entry for path.
func (ix *Index) Subcategory(path string) (SubcategoryEntry, bool) {
	i, ok := ix.subcategoryIndex(path)
	if !ok {
		return SubcategoryEntry{}, false
	}

	return ix.Subcategories[i], true
}

// UpsertSubcategory inserts or replaces the entry with the same path.
func (ix *Index) UpsertSubcategory(entry SubcategoryEntry) {
	i, ok := ix.subcategoryIndex(entry.Path)
	if ok {
		ix.Subcategories[i] = entry

		return
	}

	ix.Subcategories = append(ix.Subcategories, SubcategoryEntry{})
	copy(ix.Subcategories[i+1:], ix.Subcategories[i:])
	ix.Subcategories[i] = entry
}

// RemoveSubcategory drops the entry for path and reports whether it existed.
func (ix *Index) RemoveSubcategory(path string) bool {
	i, ok := ix.subcategoryIndex(path)
	if !ok {
		return false
	}

	ix.Subcategories = append(ix.Subcategories[:i], ix.Subcategories[i+1:]...)

	return true
}

// Sort orders both lists by path. Parse and the upsert helpers keep the
// lists sorted already; Sort is for indexes built by hand.
func (ix *Index) Sort() {
	sort.Slice(ix.Memories, func(i, j int) bool {
		return ix.Memories[i].Path < ix.Memories[j].Path
	})
	sort.Slice(ix.Subcategories, func(i, j int) bool {
		return ix.Subcategories[i].Path < ix.Subcategories[j].Path
	})
}

// memoryIndex binary-searches for path; when absent it returns the insert
// position.
func (ix *Index) memoryIndex(path string) (int, bool) {
	i := sort.Search(len(ix.Memories), func(i int) bool {
		return ix.Memories[i].Path >= path
	})

	return i, i < len(ix.Memories) && ix.Memories[i].Path == path
}

func (ix *Index) subcategoryIndex(path string) (int, bool) {
	i := sort.Search(len(ix.Subcategories), func(i int) bool {
		return ix.Subcategories[i].Path >= path
	})

	return i, i < len(ix.Subcategories) && ix.Subcategories[i].Path == path
}
