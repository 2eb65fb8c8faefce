// Package tokenizer counts tokens for corpus statistics. It prefers a
// real BPE tokenizer and degrades to a character heuristic when the
// encoding data is unavailable (first use downloads it).
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/ragd/internal/core/ports/driven"
)

var _ driven.TokenCounter = (*Counter)(nil)

// DefaultEncoding matches the tokenizer used by current OpenAI
// embedding models.
const DefaultEncoding = "cl100k_base"

// heuristicCharsPerToken approximates English text at roughly four
// characters per token.
const heuristicCharsPerToken = 4

// Counter counts tokens using a tiktoken encoding, falling back to a
// length heuristic if the encoding cannot be loaded. Safe for
// concurrent use.
type Counter struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter creates a counter for the given encoding name. Empty
// means DefaultEncoding. The encoding is loaded lazily on first count.
func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{encoding: encoding}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err == nil {
			c.enc = enc
		}
	})
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	n := utf8.RuneCountInString(text)
	return (n + heuristicCharsPerToken - 1) / heuristicCharsPerToken
}
