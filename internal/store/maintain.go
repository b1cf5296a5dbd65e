package store

import (
	"context"
	"fmt"

	"github.com/Yeseh/cortex-sub001/internal/index"
	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// UpdateOptions controls [Maintainer.UpdateAfterWrite].
type UpdateOptions struct {
	// CreateWhenMissing creates index files that do not exist yet. Without
	// it a missing index ends the update quietly.
	CreateWhenMissing bool
	// Summary replaces the entry summary. Empty keeps the previous one.
	Summary string
}

// Maintainer patches the index tree after a single mutation.
//
// Each call rewrites the parent index of the changed memory or category and
// then every ancestor up to the root, recomputing the subtree counts from the
// child indexes. It never scans directories; anything the patch cannot see is
// fixed by [FileStore.Reindex].
type Maintainer struct {
	s *FileStore
}

// UpdateAfterWrite records m at path in its category index and refreshes the
// ancestor counts.
func (mt *Maintainer) UpdateAfterWrite(ctx context.Context, path string, m *memory.Memory, opts UpdateOptions) error {
	p, err := mempath.Parse(path)
	if err != nil {
		return withPath(err, path)
	}

	if m == nil {
		return withPath(fmt.Errorf("%w: memory is nil", ErrInvalidArgument), path)
	}

	return withPath(mt.updateAfterWrite(ctx, p, m, opts), path)
}

func (mt *Maintainer) updateAfterWrite(ctx context.Context, p mempath.Path, m *memory.Memory, opts UpdateOptions) error {
	ix, err := mt.s.loadIndex(p.Category)
	if err != nil {
		return err
	}

	if ix == nil {
		if !opts.CreateWhenMissing {
			mt.s.logger.DebugContext(ctx, "index missing, skipping update", "category", p.Category.String())

			return nil
		}

		ix = index.New()
	}

	entry := index.MemoryEntry{Path: p.String()}

	if prev, ok := ix.Memory(entry.Path); ok {
		entry.Summary = prev.Summary
	}

	if opts.Summary != "" {
		entry.Summary = opts.Summary
	}

	if n, ok := mt.s.tokens.EstimateTokens(m.Content); ok {
		entry.TokenEstimate = index.Estimate(n)
	}

	ix.UpsertMemory(entry)

	err = mt.s.writeIndex(p.Category, ix)
	if err != nil {
		return err
	}

	mt.s.logger.DebugContext(ctx, "index entry updated", "path", entry.Path)

	return mt.propagate(ctx, p.Category, ix, opts.CreateWhenMissing)
}

// UpdateAfterRemove drops the entry for path and refreshes the ancestor
// counts. Subcategories left without memories or descriptions disappear from
// their parent.
func (mt *Maintainer) UpdateAfterRemove(ctx context.Context, path string) error {
	p, err := mempath.Parse(path)
	if err != nil {
		return withPath(err, path)
	}

	ix, err := mt.s.loadIndex(p.Category)
	if err != nil {
		return withPath(err, path)
	}

	if ix == nil {
		return nil
	}

	if !ix.RemoveMemory(p.String()) {
		mt.s.logger.DebugContext(ctx, "index had no entry", "path", p.String())
	}

	err = mt.s.writeIndex(p.Category, ix)
	if err != nil {
		return withPath(err, path)
	}

	return withPath(mt.propagate(ctx, p.Category, ix, false), path)
}

// UpdateAfterCategoryDelete removes category from its parent index and
// refreshes the counts above it.
func (mt *Maintainer) UpdateAfterCategoryDelete(ctx context.Context, category string) error {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return withPath(err, category)
	}

	if c.IsRoot() {
		return withPath(fmt.Errorf("%w: the store root has no parent", ErrInvalidArgument), category)
	}

	parent := c.Parent()

	pix, err := mt.s.loadIndex(parent)
	if err != nil {
		return withPath(err, category)
	}

	if pix == nil {
		return nil
	}

	pix.RemoveSubcategory(c.String())

	err = mt.s.writeIndex(parent, pix)
	if err != nil {
		return withPath(err, category)
	}

	return withPath(mt.propagate(ctx, parent, pix, false), category)
}

// SetDescription stores description on category's entry in its parent
// index, creating the entry if needed. An empty description clears it. The
// category must exist.
func (mt *Maintainer) SetDescription(ctx context.Context, category, description string) error {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return withPath(err, category)
	}

	if c.IsRoot() {
		return withPath(fmt.Errorf("%w: the store root has no description", ErrInvalidArgument), category)
	}

	exists, err := mt.s.dirExists(mt.s.categoryDir(c))
	if err != nil {
		return withPath(err, category)
	}

	if !exists {
		return withPath(ErrCategoryNotFound, category)
	}

	own, err := mt.s.loadIndex(c)
	if err != nil {
		return withPath(err, category)
	}

	if own == nil {
		own = index.New()
	}

	parent := c.Parent()

	pix, err := mt.s.loadIndex(parent)
	if err != nil {
		return withPath(err, category)
	}

	if pix == nil {
		pix = index.New()
	}

	entry, _ := pix.Subcategory(c.String())
	entry.Description = description
	applySubcategory(pix, c, own, entry.Description)

	err = mt.s.writeIndex(parent, pix)
	if err != nil {
		return withPath(err, category)
	}

	mt.s.logger.DebugContext(ctx, "category description set", "category", c.String())

	return withPath(mt.propagate(ctx, parent, pix, true), category)
}

// propagate walks from child up to the root, refreshing each parent's entry
// for the child from the child's (already written) index.
func (mt *Maintainer) propagate(ctx context.Context, child mempath.Category, childIx *index.Index, create bool) error {
	for !child.IsRoot() {
		parent := child.Parent()

		pix, err := mt.s.loadIndex(parent)
		if err != nil {
			return err
		}

		if pix == nil {
			if !create {
				return nil
			}

			pix = index.New()
		}

		prev, _ := pix.Subcategory(child.String())
		applySubcategory(pix, child, childIx, prev.Description)

		err = mt.s.writeIndex(parent, pix)
		if err != nil {
			return err
		}

		mt.s.logger.DebugContext(ctx, "subcategory count refreshed",
			"category", parent.String(), "child", child.String(), "count", childIx.TotalMemoryCount())

		child, childIx = parent, pix
	}

	return nil
}

// applySubcategory sets or removes child's entry in the parent index pix.
// A child is listed while it has memories in its subtree, a description, or
// listed subcategories of its own.
func applySubcategory(pix *index.Index, child mempath.Category, childIx *index.Index, description string) {
	count := childIx.TotalMemoryCount()

	if !listed(count, description, childIx) {
		pix.RemoveSubcategory(child.String())

		return
	}

	pix.UpsertSubcategory(index.SubcategoryEntry{
		Path:        child.String(),
		MemoryCount: count,
		Description: description,
	})
}

func listed(count int, description string, childIx *index.Index) bool {
	return count > 0 || description != "" || len(childIx.Subcategories) > 0
}
