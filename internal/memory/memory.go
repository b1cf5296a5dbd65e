// Package memory defines the memory record and its on-disk text format.
//
// A memory file is a metadata block fenced by "---" lines followed by the
// free-form body:
//
//	---
//	created_at: 2026-01-02T03:04:05Z
//	updated_at: 2026-01-02T03:04:05Z
//	tags: [go, storage]
//	source: user
//	expires_at: 2026-02-01T00:00:00Z
//	---
//	body text...
//
// Keys are always written in this order, expires_at only when set. Empty tag
// lists are written as "tags: []". The body is preserved byte for byte.
package memory

import (
	"strings"
	"time"
)

// Marker opens and closes the metadata block.
const Marker = "---"

// DefaultSource is used when a caller does not say who produced a memory.
const DefaultSource = "user"

// Metadata holds the fields of the metadata block.
type Metadata struct {
	// CreatedAt is set once when the memory is first written.
	CreatedAt time.Time
	// UpdatedAt is refreshed on every content or metadata change.
	UpdatedAt time.Time
	// Tags is an ordered set of free-form labels; empty is allowed.
	Tags []string
	// Source names who produced the memory (user, agent, import, ...).
	Source string
	// ExpiresAt is optional; nil means the memory never expires.
	ExpiresAt *time.Time
}

// Memory is one stored record: metadata plus body.
type Memory struct {
	Metadata Metadata
	Content  string
}

// New returns a memory created at now. A blank source becomes
// [DefaultSource].
func New(now time.Time, content string, tags []string, source string, expiresAt *time.Time) *Memory {
	if strings.TrimSpace(source) == "" {
		source = DefaultSource
	}

	now = now.UTC()

	return &Memory{
		Metadata: Metadata{
			CreatedAt: now,
			UpdatedAt: now,
			Tags:      dedupeTags(tags),
			Source:    source,
			ExpiresAt: utcPtr(expiresAt),
		},
		Content: content,
	}
}

// IsExpired reports whether the memory has an expiry at or before now.
func (m *Memory) IsExpired(now time.Time) bool {
	if m == nil || m.Metadata.ExpiresAt == nil {
		return false
	}

	return !m.Metadata.ExpiresAt.After(now)
}

// Touch sets UpdatedAt to now.
func (m *Memory) Touch(now time.Time) {
	m.Metadata.UpdatedAt = now.UTC()
}

// SetTags replaces the tag set, dropping duplicates while keeping order.
func (m *Memory) SetTags(tags []string) {
	m.Metadata.Tags = dedupeTags(tags)
}

// SetExpiry replaces the expiry; nil clears it.
func (m *Memory) SetExpiry(expiresAt *time.Time) {
	m.Metadata.ExpiresAt = utcPtr(expiresAt)
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		if seen[tag] {
			continue
		}

		seen[tag] = true

		out = append(out, tag)
	}

	return out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	u := t.UTC()

	return &u
}
