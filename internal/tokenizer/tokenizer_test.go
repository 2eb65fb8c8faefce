package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_EmptyText(t *testing.T) {
	c := NewCounter("")
	assert.Zero(t, c.Count(""))
}

func TestCount_HeuristicFallback(t *testing.T) {
	// An unknown encoding forces the character heuristic.
	c := NewCounter("no-such-encoding")

	assert.Equal(t, 2, c.Count("abcdefgh"))
	assert.Equal(t, 1, c.Count("abc"))
	assert.Equal(t, 3, c.Count("123456789"))
}

func TestCount_HeuristicCountsRunesNotBytes(t *testing.T) {
	c := NewCounter("no-such-encoding")

	// Four multi-byte runes are one heuristic token, not three.
	assert.Equal(t, 1, c.Count("日本語で"))
}

func TestCount_Deterministic(t *testing.T) {
	c := NewCounter("no-such-encoding")

	text := "the same text every time"
	assert.Equal(t, c.Count(text), c.Count(text))
}
