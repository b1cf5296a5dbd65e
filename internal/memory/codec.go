package memory

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata block keys.
const (
	KeyCreatedAt = "created_at"
	KeyUpdatedAt = "updated_at"
	KeyTags      = "tags"
	KeySource    = "source"
	KeyExpiresAt = "expires_at"
)

// ErrParse is matched (via errors.Is) by every [*ParseError].
var ErrParse = errors.New("parse memory")

// ParseErrorKind says what was wrong with a memory file.
type ParseErrorKind string

// ParseErrorKind values.
const (
	MissingMarker      ParseErrorKind = "missing_marker"
	UnterminatedBlock  ParseErrorKind = "unterminated_block"
	MalformedMetadata  ParseErrorKind = "malformed_metadata"
	MissingField       ParseErrorKind = "missing_field"
	MalformedTimestamp ParseErrorKind = "malformed_timestamp"
	MalformedTags      ParseErrorKind = "malformed_tags"
)

// ParseError reports a corrupt memory file.
//
// It unwraps to [ErrParse] and to the underlying cause, if any:
//
//	var pErr *memory.ParseError
//	if errors.As(err, &pErr) && pErr.Kind == memory.MissingField {
//	    log.Printf("missing %s", pErr.Field)
//	}
type ParseError struct {
	Kind  ParseErrorKind
	Field string // Field is the offending key, when the error is about one.
	Err   error  // Err is the underlying cause; may be nil.
}

func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("parse memory: ")
	b.WriteString(string(e.Kind))

	if e.Field != "" {
		b.WriteString(" ")
		b.WriteString(e.Field)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}

	return []error{ErrParse, e.Err}
}

// metadataYAML is the encoding shape of the metadata block.
// Field order is the on-disk key order.
type metadataYAML struct {
	CreatedAt time.Time  `yaml:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at"`
	Tags      []string   `yaml:"tags,flow"`
	Source    string     `yaml:"source"`
	ExpiresAt *time.Time `yaml:"expires_at,omitempty"`
}

// Marshal serializes m into its file representation.
func Marshal(m *Memory) ([]byte, error) {
	if m == nil {
		return nil, errors.New("marshal memory: nil value")
	}

	if strings.TrimSpace(m.Metadata.Source) == "" {
		return nil, fmt.Errorf("marshal memory: %s is empty", KeySource)
	}

	if m.Metadata.CreatedAt.IsZero() || m.Metadata.UpdatedAt.IsZero() {
		return nil, errors.New("marshal memory: timestamps must be set")
	}

	tags := m.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}

	meta := metadataYAML{
		CreatedAt: m.Metadata.CreatedAt.UTC(),
		UpdatedAt: m.Metadata.UpdatedAt.UTC(),
		Tags:      tags,
		Source:    m.Metadata.Source,
		ExpiresAt: utcPtr(m.Metadata.ExpiresAt),
	}

	var block bytes.Buffer

	enc := yaml.NewEncoder(&block)
	enc.SetIndent(2)

	if err := enc.Encode(&meta); err != nil {
		return nil, fmt.Errorf("marshal memory: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal memory: %w", err)
	}

	var out bytes.Buffer

	out.Grow(block.Len() + len(m.Content) + 2*len(Marker) + 2)
	out.WriteString(Marker + "\n")
	out.Write(block.Bytes())
	out.WriteString(Marker + "\n")
	out.WriteString(m.Content)

	return out.Bytes(), nil
}

// Parse deserializes a memory file. Every failure is a [*ParseError].
func Parse(data []byte) (*Memory, error) {
	block, body, err := splitBlock(data)
	if err != nil {
		return nil, err
	}

	fields, err := decodeMapping(block)
	if err != nil {
		return nil, err
	}

	var meta Metadata

	meta.CreatedAt, err = requireTimestamp(fields, KeyCreatedAt)
	if err != nil {
		return nil, err
	}

	meta.UpdatedAt, err = requireTimestamp(fields, KeyUpdatedAt)
	if err != nil {
		return nil, err
	}

	meta.Source, err = requireString(fields, KeySource)
	if err != nil {
		return nil, err
	}

	meta.Tags, err = parseTags(fields[KeyTags])
	if err != nil {
		return nil, err
	}

	meta.ExpiresAt, err = optionalTimestamp(fields, KeyExpiresAt)
	if err != nil {
		return nil, err
	}

	return &Memory{Metadata: meta, Content: string(body)}, nil
}

// splitBlock separates the metadata block from the body.
// The opening marker must be the first line.
func splitBlock(data []byte) ([]byte, []byte, error) {
	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found || string(bytes.TrimSuffix(first, []byte("\r"))) != Marker {
		return nil, nil, &ParseError{Kind: MissingMarker}
	}

	offset := 0

	for offset <= len(rest) {
		line := rest[offset:]
		end := bytes.IndexByte(line, '\n')

		next := len(rest) + 1
		if end >= 0 {
			line = line[:end]
			next = offset + end + 1
		}

		if string(bytes.TrimSuffix(line, []byte("\r"))) == Marker {
			body := []byte{}
			if next <= len(rest) {
				body = rest[next:]
			}

			return rest[:offset], body, nil
		}

		if end < 0 {
			break
		}

		offset = next
	}

	return nil, nil, &ParseError{Kind: UnterminatedBlock}
}

func decodeMapping(block []byte) (map[string]*yaml.Node, error) {
	fields := make(map[string]*yaml.Node)

	if len(bytes.TrimSpace(block)) == 0 {
		return fields, nil
	}

	var doc yaml.Node

	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, &ParseError{Kind: MalformedMetadata, Err: err}
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &ParseError{Kind: MalformedMetadata, Err: errors.New("metadata block is not a key/value mapping")}
	}

	mapping := doc.Content[0]

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if _, dup := fields[key]; dup {
			return nil, &ParseError{Kind: MalformedMetadata, Field: key, Err: errors.New("duplicate key")}
		}

		fields[key] = mapping.Content[i+1]
	}

	return fields, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func requireString(fields map[string]*yaml.Node, key string) (string, error) {
	n, ok := fields[key]
	if !ok || isNull(n) {
		return "", &ParseError{Kind: MissingField, Field: key}
	}

	if n.Kind != yaml.ScalarNode {
		return "", &ParseError{Kind: MalformedMetadata, Field: key, Err: errors.New("expected a scalar")}
	}

	if strings.TrimSpace(n.Value) == "" {
		return "", &ParseError{Kind: MissingField, Field: key}
	}

	return n.Value, nil
}

func requireTimestamp(fields map[string]*yaml.Node, key string) (time.Time, error) {
	raw, err := requireString(fields, key)
	if err != nil {
		var pErr *ParseError
		if errors.As(err, &pErr) && pErr.Kind == MalformedMetadata {
			pErr.Kind = MalformedTimestamp
		}

		return time.Time{}, err
	}

	return parseTimestamp(key, raw)
}

// optionalTimestamp treats an absent key or explicit null as "not set".
func optionalTimestamp(fields map[string]*yaml.Node, key string) (*time.Time, error) {
	n, ok := fields[key]
	if !ok || isNull(n) {
		return nil, nil
	}

	if n.Kind != yaml.ScalarNode {
		return nil, &ParseError{Kind: MalformedTimestamp, Field: key, Err: errors.New("expected a scalar")}
	}

	t, err := parseTimestamp(key, n.Value)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func parseTimestamp(key, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, &ParseError{Kind: MalformedTimestamp, Field: key, Err: err}
	}

	return t, nil
}

// parseTags accepts a missing key (no tags) or a flat list of scalars.
func parseTags(n *yaml.Node) ([]string, error) {
	if n == nil {
		return nil, nil
	}

	if n.Kind != yaml.SequenceNode {
		return nil, &ParseError{Kind: MalformedTags, Field: KeyTags, Err: errors.New("expected a list")}
	}

	if len(n.Content) == 0 {
		return nil, nil
	}

	tags := make([]string, 0, len(n.Content))

	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode || isNull(item) {
			return nil, &ParseError{Kind: MalformedTags, Field: KeyTags, Err: errors.New("list items must be strings")}
		}

		tags = append(tags, item.Value)
	}

	return tags, nil
}
