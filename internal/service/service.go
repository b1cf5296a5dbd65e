// Package service is the operation set shared by the CLI and the MCP server.
//
// It owns the policy the storage adapter leaves to callers: timestamps,
// default source, expiry filtering, and keeping indexes in step with every
// mutation through the store's [store.Maintainer].
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yeseh/cortex-sub001/internal/memory"
	"github.com/Yeseh/cortex-sub001/internal/mempath"
	"github.com/Yeseh/cortex-sub001/internal/store"
)

// Options configures a [Service].
type Options struct {
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// Service runs memory operations against one store.
type Service struct {
	store  store.Adapter
	now    func() time.Time
	logger *slog.Logger
}

// New returns a service over adapter.
func New(adapter store.Adapter, opts Options) *Service {
	s := &Service{store: adapter, now: opts.Now, logger: opts.Logger}

	if s.now == nil {
		s.now = time.Now
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}

	return s
}

// Store returns the underlying adapter.
func (s *Service) Store() store.Adapter {
	return s.store
}

// AddInput describes a new memory.
type AddInput struct {
	Path      string
	Content   string
	Tags      []string
	Source    string // Source defaults to "user".
	ExpiresAt *time.Time
	Summary   string
}

// AddMemory creates a memory, creating its categories as needed. It fails
// with DESTINATION_EXISTS rather than overwrite.
func (s *Service) AddMemory(ctx context.Context, in AddInput) (*memory.Memory, error) {
	m := memory.New(s.now(), in.Content, in.Tags, in.Source, in.ExpiresAt)

	err := s.store.Add(ctx, in.Path, m, store.SaveOptions{
		AllowIndexCreate: true,
		AllowIndexUpdate: true,
		Summary:          in.Summary,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "memory added", "path", in.Path)

	return m, nil
}

// GetOptions controls [Service.GetMemory].
type GetOptions struct {
	IncludeExpired bool
}

// GetMemory loads a memory. Expired memories are reported as not found
// unless opts.IncludeExpired is set.
func (s *Service) GetMemory(ctx context.Context, path string, opts GetOptions) (*memory.Memory, error) {
	m, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}

	if !opts.IncludeExpired && m.IsExpired(s.now()) {
		return nil, &store.Error{
			Path: path,
			Err:  fmt.Errorf("%w: expired at %s", store.ErrMemoryNotFound, m.Metadata.ExpiresAt.Format(time.RFC3339)),
		}
	}

	return m, nil
}

// UpdateInput describes changes to an existing memory. Nil fields are left
// unchanged; a non-nil empty Tags clears the tags.
type UpdateInput struct {
	Path        string
	Content     *string
	Tags        []string
	ExpiresAt   *time.Time
	ClearExpiry bool
	Summary     string // Summary replaces the index summary when non-empty.
}

// changesRecord reports whether in touches the memory file, as opposed to
// only its index entry.
func (in UpdateInput) changesRecord() bool {
	return in.Content != nil || in.Tags != nil || in.ExpiresAt != nil || in.ClearExpiry
}

func (in UpdateInput) empty() bool {
	return !in.changesRecord() && in.Summary == ""
}

// UpdateMemory applies in and bumps updated_at. A summary-only update
// patches the index entry and leaves the file, and updated_at, alone.
func (s *Service) UpdateMemory(ctx context.Context, in UpdateInput) (*memory.Memory, error) {
	if in.empty() {
		return nil, &store.Error{Path: in.Path, Err: fmt.Errorf("%w: nothing to update", store.ErrInvalidArgument)}
	}

	if in.ClearExpiry && in.ExpiresAt != nil {
		return nil, &store.Error{Path: in.Path, Err: fmt.Errorf("%w: cannot set and clear the expiry at once", store.ErrInvalidArgument)}
	}

	m, err := s.load(ctx, in.Path)
	if err != nil {
		return nil, err
	}

	if !in.changesRecord() {
		err = s.store.Maintainer().UpdateAfterWrite(ctx, in.Path, m, store.UpdateOptions{
			CreateWhenMissing: true,
			Summary:           in.Summary,
		})
		if err != nil {
			return nil, err
		}

		s.logger.InfoContext(ctx, "memory summary updated", "path", in.Path)

		return m, nil
	}

	if in.Content != nil {
		m.Content = *in.Content
	}

	if in.Tags != nil {
		m.SetTags(in.Tags)
	}

	switch {
	case in.ClearExpiry:
		m.SetExpiry(nil)
	case in.ExpiresAt != nil:
		m.SetExpiry(in.ExpiresAt)
	}

	m.Touch(s.now())

	err = s.store.Save(ctx, in.Path, m, store.SaveOptions{
		AllowIndexCreate: true,
		AllowIndexUpdate: true,
		Summary:          in.Summary,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "memory updated", "path", in.Path)

	return m, nil
}

// RemoveMemory deletes a memory and drops it from the indexes.
func (s *Service) RemoveMemory(ctx context.Context, path string) error {
	err := s.store.Remove(ctx, path)
	if err != nil {
		return err
	}

	err = s.store.Maintainer().UpdateAfterRemove(ctx, path)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "memory removed", "path", path)

	return nil
}

// MoveMemory relocates a memory into an existing category and moves its
// index entry, summary included. Timestamps are not touched.
func (s *Service) MoveMemory(ctx context.Context, from, to string) error {
	summary, err := s.summaryOf(ctx, from)
	if err != nil {
		return err
	}

	err = s.store.Move(ctx, from, to)
	if err != nil {
		return err
	}

	mt := s.store.Maintainer()

	err = mt.UpdateAfterRemove(ctx, from)
	if err != nil {
		return err
	}

	m, err := s.load(ctx, to)
	if err != nil {
		return err
	}

	err = mt.UpdateAfterWrite(ctx, to, m, store.UpdateOptions{CreateWhenMissing: true, Summary: summary})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "memory moved", "from", from, "to", to)

	return nil
}

// Reindex rebuilds all indexes of the store.
func (s *Service) Reindex(ctx context.Context) (store.Result, error) {
	return s.store.Reindex(ctx)
}

func (s *Service) load(ctx context.Context, path string) (*memory.Memory, error) {
	m, err := s.store.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	if m == nil {
		return nil, &store.Error{Path: path, Err: store.ErrMemoryNotFound}
	}

	return m, nil
}

// summaryOf returns the index summary of path, "" when there is none.
// Invalid paths are left for the caller's next store call to report.
func (s *Service) summaryOf(ctx context.Context, path string) (string, error) {
	p, err := mempath.Parse(path)
	if err != nil {
		return "", nil
	}

	ix, err := s.store.LoadIndex(ctx, p.Category.String())
	if err != nil || ix == nil {
		return "", err
	}

	entry, _ := ix.Memory(p.String())

	return entry.Summary, nil
}
