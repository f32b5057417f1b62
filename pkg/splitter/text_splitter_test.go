package splitter

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecursiveCharacterTextSplitterValidation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"Valid", 10, 2, false},
		{"Zero overlap", 10, 0, false},
		{"Overlap equals size", 10, 10, true},
		{"Overlap above size", 10, 11, true},
		{"Zero size", 0, 0, true},
		{"Negative overlap", 10, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecursiveCharacterTextSplitter(tt.size, tt.overlap, nil)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSplitQuickBrownFox(t *testing.T) {
	chunks, err := Split("the quick brown fox", 10, 2, []string{" ", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"the quick", "brown fox"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit.\n", 20) +
		"\n\n" + strings.Repeat("Ut enim ad minim veniam, quis nostrud exercitation. ", 15)

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"Small chunks", 40, 5},
		{"Medium chunks", 200, 20},
		{"No overlap", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(text, tt.size, tt.overlap, nil)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)
			for i, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.size, "chunk %d: %q", i, c)
				assert.NotEmpty(t, c)
			}
		})
	}
}

func TestSplitPreservesOrderAndContent(t *testing.T) {
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	text := strings.Join(words, " ")

	chunks, err := Split(text, 16, 0, []string{" ", ""})
	require.NoError(t, err)

	var rebuilt []string
	for _, c := range chunks {
		rebuilt = append(rebuilt, strings.Fields(c)...)
	}
	assert.Equal(t, words, rebuilt)
}

func TestSplitIndivisibleFallsBackToCharacters(t *testing.T) {
	chunks, err := Split("abcdefghijklmnopqrstuvwxyz", 5, 0, []string{" ", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"abcde", "fghij", "klmno", "pqrst", "uvwxy", "z"}, chunks)
}

func TestSplitCountsCodePoints(t *testing.T) {
	chunks, err := Split("äöü ßéè", 4, 0, []string{" ", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"äöü", "ßéè"}, chunks)
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split("", 10, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
