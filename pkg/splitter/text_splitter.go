package splitter

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// ErrInvalidConfig is returned when the chunk size and overlap cannot produce
// a valid segmentation.
var ErrInvalidConfig = errors.New("invalid splitter configuration")

// DefaultSeparators is the priority list used when none is given. The empty
// string is the terminal separator and splits into single characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", ",", ">", "<", " ", ""}

// TextSplitter wraps the langchaingo recursive character splitter
type TextSplitter struct {
	splitter  textsplitter.RecursiveCharacter
	chunkSize int
	logger    *slog.Logger
}

// NewRecursiveCharacterTextSplitter creates a splitter measuring length in code
// points. A nil or empty separators list selects DefaultSeparators.
func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int, separators []string) (*TextSplitter, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap %d must not be negative", ErrInvalidConfig, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", ErrInvalidConfig, chunkOverlap, chunkSize)
	}

	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	if separators[len(separators)-1] != "" {
		separators = append(append([]string{}, separators...), "")
	}

	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)

	return &TextSplitter{splitter: ts, chunkSize: chunkSize, logger: slog.Default()}, nil
}

// WithLogger sets the logger used for oversize warnings.
func (ts *TextSplitter) WithLogger(logger *slog.Logger) *TextSplitter {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// SplitText splits text into ordered chunks. Chunks only exceed the chunk size
// when a piece cannot be divided further.
func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	chunks, err := ts.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > ts.chunkSize {
			ts.logger.Warn("chunk exceeds configured size", "index", i, "length", n, "chunk_size", ts.chunkSize)
		}
	}
	return chunks, nil
}

// Split is a convenience for one-off segmentation.
func Split(text string, chunkSize, chunkOverlap int, separators []string) ([]string, error) {
	ts, err := NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap, separators)
	if err != nil {
		return nil, err
	}
	return ts.SplitText(text)
}
