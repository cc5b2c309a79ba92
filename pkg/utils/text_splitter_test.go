package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortInput(t *testing.T) {
	chunks := SplitText("hello", 100, 20)
	assert.Equal(t, []string{"hello"}, chunks)
}

func TestSplitText_ChunksOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 chars
	chunks := SplitText(text, 40, 10)

	assert.True(t, len(chunks) > 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 40)
	}
	// Each chunk after the first starts with the tail of the previous one
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.Equal(t, prev[len(prev)-10:], chunks[i][:10])
	}
}

func TestSplitText_CoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 95)
	chunks := SplitText(text, 30, 5)

	last := chunks[len(chunks)-1]
	assert.True(t, strings.HasSuffix(text, last))

	// Reassembling with the overlap removed reproduces the input
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		rebuilt += chunks[i][min(5, len(chunks[i])):]
	}
	assert.Equal(t, text, rebuilt)
}

func TestSplitText_OverlapLargerThanChunk(t *testing.T) {
	text := strings.Repeat("y", 50)
	chunks := SplitText(text, 10, 15)

	// Falls back to non-overlapping steps instead of looping forever
	assert.Equal(t, 5, len(chunks))
}

func TestSplitText_ShortInputMeasuredInRunes(t *testing.T) {
	// 20 runes but 40 bytes, still a single chunk
	text := strings.Repeat("é", 20)
	chunks := SplitText(text, 20, 5)
	assert.Equal(t, []string{text}, chunks)
}

func TestSplitText_MultibyteRunesNotSplit(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 20)
	chunks := SplitText(text, 31, 7)

	for _, c := range chunks {
		assert.True(t, strings.ContainsAny(c, "héllowörld "))
		for _, r := range c {
			assert.NotEqual(t, '�', r)
		}
	}
}
