// Package tokens estimates how many model tokens a memory body costs.
//
// Estimates are informational: they fill the token_estimate field of index
// entries and are never required. An [Estimator] that cannot produce a value
// returns ok=false and the field is omitted.
package tokens

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator names.
const (
	NameTiktoken = "tiktoken"
	NameChars    = "chars"
	NameNone     = "none"
)

// DefaultEncoding is the tiktoken encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// charsPerToken is the rough English average used by [Chars].
const charsPerToken = 4

// Estimator turns text into a token count.
type Estimator interface {
	EstimateTokens(content string) (int, bool)
}

// Tiktoken counts tokens with a BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads encoding (e.g. "cl100k_base"). Loading may need network
// access the first time the encoding is used on a machine.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encoding, err)
	}

	return &Tiktoken{enc: enc}, nil
}

// EstimateTokens implements [Estimator].
func (t *Tiktoken) EstimateTokens(content string) (int, bool) {
	if t == nil || t.enc == nil {
		return 0, false
	}

	return len(t.enc.Encode(content, nil, nil)), true
}

// Chars approximates one token per four characters. Used where tiktoken is
// not available or not wanted.
type Chars struct{}

// EstimateTokens implements [Estimator].
func (Chars) EstimateTokens(content string) (int, bool) {
	n := len([]rune(content))
	if n == 0 {
		return 0, true
	}

	return (n + charsPerToken - 1) / charsPerToken, true
}

// None never produces an estimate.
type None struct{}

// EstimateTokens implements [Estimator].
func (None) EstimateTokens(string) (int, bool) {
	return 0, false
}

// New returns the estimator called name; empty selects [Chars]. An unknown
// name is an error. A tiktoken encoding that fails to load degrades to [None]
// with a warning, since estimates are optional.
func New(name, encoding string, logger *slog.Logger) (Estimator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameTiktoken:
		tk, err := NewTiktoken(encoding)
		if err != nil {
			if logger != nil {
				logger.Warn("token estimates disabled", "error", err)
			}

			return None{}, nil
		}

		return tk, nil
	case "", NameChars:
		return Chars{}, nil
	case NameNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (want %s, %s or %s)", name, NameTiktoken, NameChars, NameNone)
	}
}
