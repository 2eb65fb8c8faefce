// Package chunker splits document text into overlapping windows for
// indexing. Windows prefer sentence and paragraph boundaries, falling
// back to hard character cuts when a single sentence exceeds the budget.
package chunker

import (
	"fmt"
	"iter"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// DefaultChunkSize is the default window budget in bytes.
const DefaultChunkSize = 1000

// DefaultOverlap is the default overlap between windows in bytes.
const DefaultOverlap = 200

// Chunk is one window of document text.
type Chunk struct {
	// Text is the window's text, a verbatim slice of the input.
	Text string

	// Start is the byte offset of Text within the input.
	Start int
}

// Splitter produces chunk sequences for a fixed size and overlap.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a splitter. The chunk size must be positive and the
// overlap non-negative and strictly smaller than the chunk size.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d with overlap %d",
			domain.ErrInvalidConfiguration, chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// span is a half-open byte range of one sentence within the input.
type span struct {
	start, end int
}

// Split returns a lazy, restartable sequence of chunks in left-to-right
// document order. Re-iterating yields an identical sequence; consumers
// may rely on position in the sequence matching the chunk's sequence
// number. Empty input yields an empty sequence.
func (s *Splitter) Split(text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		sents := sentences(text)
		i := 0
		for i < len(sents) {
			start := sents[i].start

			// Pack whole sentences while they fit the budget.
			j := i
			end := start
			for j < len(sents) && sents[j].end-start <= s.chunkSize {
				end = sents[j].end
				j++
			}

			if j == i {
				// Single sentence over budget: hard character cuts.
				if !s.hardCut(text, sents[i], yield) {
					return
				}
				i++
				continue
			}

			if !yield(Chunk{Text: text[start:end], Start: start}) {
				return
			}
			if j >= len(sents) {
				return
			}

			// Step back so the next window overlaps the tail of this one,
			// without ever revisiting the window's first sentence.
			next := j
			for next > i+1 && sents[next-1].start >= end-s.overlap {
				next--
			}
			i = next
		}
	}
}

// hardCut emits fixed-size windows over one oversized sentence,
// aligned to rune boundaries. The next window starts overlap bytes
// before the previous cut so no byte of the sentence is skipped.
func (s *Splitter) hardCut(text string, sp span, yield func(Chunk) bool) bool {
	p := sp.start
	for {
		q := p + s.chunkSize
		if q >= sp.end {
			q = sp.end
		} else {
			for q > p && !utf8.RuneStart(text[q]) {
				q--
			}
			if q == p {
				// Degenerate input; never split mid-rune.
				q = sp.end
			}
		}
		if !yield(Chunk{Text: text[p:q], Start: p}) {
			return false
		}
		if q == sp.end {
			return true
		}
		next := q - s.overlap
		if next <= p {
			next = p + 1
		}
		for next < sp.end && !utf8.RuneStart(text[next]) {
			next++
		}
		p = next
	}
}

// sentences scans the input into sentence spans. A sentence ends at a
// terminator ('.', '!', '?') or a newline; leading whitespace is not
// part of the span. Whitespace-only input produces no spans.
func sentences(text string) []span {
	var spans []span
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			spans = append(spans, span{start: start, end: end})
		}
		start = -1
	}

	for i, r := range text {
		switch {
		case r == '\n':
			flush(i)
		case r == '.' || r == '!' || r == '?':
			if start < 0 {
				start = i
			}
			flush(i + utf8.RuneLen(r))
		case unicode.IsSpace(r):
			// Whitespace between sentences stays outside the next span.
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(text))

	return spans
}
