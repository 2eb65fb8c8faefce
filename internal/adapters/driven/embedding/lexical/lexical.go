// Package lexical produces sparse term-frequency vectors for keyword
// matching. Terms are hashed into a fixed bucket space so the encoder
// needs no corpus-wide vocabulary and works identically at index and
// query time.
package lexical

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragd/internal/core/domain"
)

// DefaultBuckets is the size of the hashed term space.
const DefaultBuckets = 1 << 18

// Encoder converts text into L2-normalized sparse vectors.
type Encoder struct {
	buckets uint32
}

// NewEncoder creates an encoder with the given bucket count.
// Zero or negative falls back to DefaultBuckets.
func NewEncoder(buckets int) *Encoder {
	if buckets <= 0 {
		buckets = DefaultBuckets
	}
	return &Encoder{buckets: uint32(buckets)}
}

// Encode tokenizes text, hashes each term into a bucket and returns
// term frequencies normalized to unit length. Empty or non-lexical
// text yields a nil vector.
func (e *Encoder) Encode(text string) domain.SparseVector {
	terms := tokenize(text)
	if len(terms) == 0 {
		return nil
	}

	vec := make(domain.SparseVector, len(terms))
	for _, term := range terms {
		vec[e.bucket(term)]++
	}

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sumSq))
	for k, v := range vec {
		vec[k] = v / norm
	}
	return vec
}

func (e *Encoder) bucket(term string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(term))
	return h.Sum32() % e.buckets
}

// tokenize lowercases the text and splits on anything that is not a
// letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
