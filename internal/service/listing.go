package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gobwas/glob"

	"github.com/Yeseh/cortex-sub001/internal/mempath"
	"github.com/Yeseh/cortex-sub001/internal/store"
)

// ListOptions controls [Service.List].
type ListOptions struct {
	// IncludeExpired also returns expired memories, flagged IsExpired.
	IncludeExpired bool
	// Match is a glob over memory paths ("*" stops at "/", "**" does not).
	Match string
}

// ListedMemory is one memory in a [Listing].
type ListedMemory struct {
	Path          string     `json:"path"`
	TokenEstimate *int       `json:"token_estimate,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	Tags          []string   `json:"tags"`
	Source        string     `json:"source"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	IsExpired     bool       `json:"is_expired"`
}

// ListedCategory is one direct subcategory in a [Listing].
type ListedCategory struct {
	Path        string `json:"path"`
	MemoryCount int    `json:"memory_count"`
	Description string `json:"description,omitempty"`
}

// Listing is the content of one category.
type Listing struct {
	Category      string           `json:"category"`
	Memories      []ListedMemory   `json:"memories"`
	Subcategories []ListedCategory `json:"subcategories"`
}

// List returns the direct memories and subcategories of category, read from
// its index. Each listed memory is loaded to report tags and expiry. Entries
// whose file has vanished are skipped; a corrupt file fails the listing.
func (s *Service) List(ctx context.Context, category string, opts ListOptions) (*Listing, error) {
	c, err := mempath.ParseCategory(category)
	if err != nil {
		return nil, &store.Error{Path: category, Err: err}
	}

	var matcher glob.Glob

	if opts.Match != "" {
		matcher, err = glob.Compile(opts.Match, '/')
		if err != nil {
			return nil, &store.Error{Path: category, Err: fmt.Errorf("%w: bad pattern %q: %w", store.ErrInvalidArgument, opts.Match, err)}
		}
	}

	ix, err := s.store.LoadIndex(ctx, c.String())
	if err != nil {
		return nil, err
	}

	out := &Listing{Category: c.String(), Memories: []ListedMemory{}, Subcategories: []ListedCategory{}}

	if ix == nil {
		if !c.IsRoot() {
			return nil, &store.Error{Path: category, Err: store.ErrCategoryNotFound}
		}

		return out, nil
	}

	now := s.now()

	for _, entry := range ix.Memories {
		if matcher != nil && !matcher.Match(entry.Path) {
			continue
		}

		m, err := s.store.Load(ctx, entry.Path)
		if err != nil {
			return nil, err
		}

		if m == nil {
			s.logger.WarnContext(ctx, "index lists missing memory, run reindex", "path", entry.Path)

			continue
		}

		expired := m.IsExpired(now)
		if expired && !opts.IncludeExpired {
			continue
		}

		tags := m.Metadata.Tags
		if tags == nil {
			tags = []string{}
		}

		out.Memories = append(out.Memories, ListedMemory{
			Path:          entry.Path,
			TokenEstimate: entry.TokenEstimate,
			Summary:       entry.Summary,
			Tags:          tags,
			Source:        m.Metadata.Source,
			UpdatedAt:     m.Metadata.UpdatedAt,
			ExpiresAt:     m.Metadata.ExpiresAt,
			IsExpired:     expired,
		})
	}

	for _, sub := range ix.Subcategories {
		out.Subcategories = append(out.Subcategories, ListedCategory{
			Path:        sub.Path,
			MemoryCount: sub.MemoryCount,
			Description: sub.Description,
		})
	}

	return out, nil
}

// PruneOptions controls [Service.Prune].
type PruneOptions struct {
	// DryRun reports what would be removed without removing anything.
	DryRun bool
}

// PruneResult lists the expired memories found, in path order.
type PruneResult struct {
	Pruned []string `json:"pruned"`
	DryRun bool     `json:"dry_run"`
}

// Prune removes every memory whose expiry is at or before now. Memories are
// found by walking the index tree from the root, so unindexed files are not
// seen; run a reindex first when in doubt. A dry run returns the same set and
// touches nothing.
func (s *Service) Prune(ctx context.Context, opts PruneOptions) (PruneResult, error) {
	now := s.now()
	res := PruneResult{Pruned: []string{}, DryRun: opts.DryRun}

	queue := []string{mempath.Root.String()}
	seen := map[string]bool{}

	for len(queue) > 0 {
		category := queue[0]
		queue = queue[1:]

		if seen[category] {
			continue
		}

		seen[category] = true

		ix, err := s.store.LoadIndex(ctx, category)
		if err != nil {
			return res, err
		}

		if ix == nil {
			continue
		}

		for _, entry := range ix.Memories {
			m, err := s.store.Load(ctx, entry.Path)
			if err != nil {
				return res, err
			}

			if m != nil && m.IsExpired(now) {
				res.Pruned = append(res.Pruned, entry.Path)
			}
		}

		for _, sub := range ix.Subcategories {
			queue = append(queue, sub.Path)
		}
	}

	sort.Strings(res.Pruned)

	if opts.DryRun {
		return res, nil
	}

	for _, path := range res.Pruned {
		err := s.RemoveMemory(ctx, path)
		if err != nil {
			return res, err
		}
	}

	s.logger.InfoContext(ctx, "pruned expired memories", "count", len(res.Pruned))

	return res, nil
}
