package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Yeseh/cortex-sub001/internal/mempath"
)

// ErrParse is matched (via errors.Is) by every [*ParseError].
var ErrParse = errors.New("parse index")

// ParseError reports a corrupt index file.
type ParseError struct {
	// Entry is the offending path, empty for document-level problems.
	Entry string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("parse index: %v", e.Err)
	}

	return fmt.Sprintf("parse index: entry %q: %v", e.Entry, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Marshal encodes ix. Lists are sorted first and absent lists are written as
// "[]", so equal indexes always produce identical bytes.
func Marshal(ix *Index) ([]byte, error) {
	if ix == nil {
		ix = New()
	}

	out := Index{
		Memories:      append([]MemoryEntry{}, ix.Memories...),
		Subcategories: append([]SubcategoryEntry{}, ix.Subcategories...),
	}
	out.Sort()

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("marshal index: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal index: %w", err)
	}

	return buf.Bytes(), nil
}

// Parse decodes an index file. Unknown keys, invalid paths and negative
// counts are rejected; an empty document is an empty index.
func Parse(data []byte) (*Index, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ix Index

	if err := dec.Decode(&ix); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}

		return nil, &ParseError{Err: err}
	}

	if err := validate(&ix); err != nil {
		return nil, err
	}

	ix.Sort()

	return &ix, nil
}

func validate(ix *Index) error {
	seen := make(map[string]bool, len(ix.Memories))

	for _, m := range ix.Memories {
		p, err := mempath.Parse(m.Path)
		if err != nil {
			return &ParseError{Entry: m.Path, Err: err}
		}

		if p.String() != m.Path {
			return &ParseError{Entry: m.Path, Err: fmt.Errorf("path is not canonical, want %q", p.String())}
		}

		if m.TokenEstimate != nil && *m.TokenEstimate < 0 {
			return &ParseError{Entry: m.Path, Err: fmt.Errorf("negative token_estimate %d", *m.TokenEstimate)}
		}

		if seen[m.Path] {
			return &ParseError{Entry: m.Path, Err: errors.New("duplicate entry")}
		}

		seen[m.Path] = true
	}

	seen = make(map[string]bool, len(ix.Subcategories))

	for _, s := range ix.Subcategories {
		c, err := mempath.ParseCategory(s.Path)
		if err != nil {
			return &ParseError{Entry: s.Path, Err: err}
		}

		if c.IsRoot() || c.String() != s.Path {
			return &ParseError{Entry: s.Path, Err: errors.New("subcategory path is not a canonical category")}
		}

		if s.MemoryCount < 0 {
			return &ParseError{Entry: s.Path, Err: fmt.Errorf("negative memory_count %d", s.MemoryCount)}
		}

		if seen[s.Path] {
			return &ParseError{Entry: s.Path, Err: errors.New("duplicate entry")}
		}

		seen[s.Path] = true
	}

	return nil
}
