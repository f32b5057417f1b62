// Package trimmer shrinks prompts so they fit a model's token budget.
package trimmer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/mikeboe/deep-research/pkg/splitter"
)

const (
	// MinChunkSize is the shortest prompt the trimmer will cut down to.
	MinChunkSize = 140
	// DefaultContextSize is the budget used when none is configured.
	DefaultContextSize = 128000
	// DefaultEncoding is the tokenizer used for counting.
	DefaultEncoding = "o200k_base"

	charsPerToken = 3
)

// ErrEncoding is returned by a TokenCounter that cannot tokenize its input.
var ErrEncoding = errors.New("token encoding failed")

// TokenCounter counts tokens for a piece of text.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// TiktokenCounter counts tokens with a tiktoken encoding loaded on first use.
type TiktokenCounter struct {
	Encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func (c *TiktokenCounter) CountTokens(text string) (n int, err error) {
	c.once.Do(func() {
		name := c.Encoding
		if name == "" {
			name = DefaultEncoding
		}
		c.enc, c.err = tiktoken.GetEncoding(name)
	})
	if c.err != nil {
		return 0, fmt.Errorf("%w: load encoding: %v", ErrEncoding, c.err)
	}

	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrEncoding, r)
		}
	}()
	return len(c.enc.EncodeOrdinary(text)), nil
}

// Trimmer cuts prompts down to a token budget.
type Trimmer struct {
	counter TokenCounter
	budget  int
	logger  *slog.Logger
}

// New creates a Trimmer. A budget <= 0 selects DefaultContextSize.
func New(counter TokenCounter, budget int) *Trimmer {
	if budget <= 0 {
		budget = DefaultContextSize
	}
	return &Trimmer{counter: counter, budget: budget, logger: slog.Default()}
}

// WithLogger sets the logger used when trimming falls back to truncation.
func (t *Trimmer) WithLogger(logger *slog.Logger) *Trimmer {
	if logger != nil {
		t.logger = logger
	}
	return t
}

// Budget returns the default token budget.
func (t *Trimmer) Budget() int {
	return t.budget
}

// Trim shrinks prompt to the default budget.
func (t *Trimmer) Trim(prompt string) string {
	return t.TrimTo(prompt, t.budget)
}

// TrimTo shrinks prompt until it fits budget tokens. Prompts that cannot reach
// the budget are cut to MinChunkSize characters. Applying it twice yields the
// same result as applying it once.
func (t *Trimmer) TrimTo(prompt string, budget int) string {
	if prompt == "" {
		return ""
	}
	if budget <= 0 {
		budget = t.budget
	}

	count, err := t.count(prompt)
	if err != nil {
		return t.fallback(prompt, budget, err)
	}
	if count <= budget {
		return prompt
	}

	runes := []rune(prompt)
	estimate := len(runes) - (count-budget)*charsPerToken
	if estimate < MinChunkSize {
		return string(runes[:min(MinChunkSize, len(runes))])
	}

	chunks, err := splitter.Split(prompt, estimate, 0, nil)
	if err != nil {
		return t.fallback(prompt, budget, err)
	}
	if len(chunks) == 0 {
		return t.TrimTo(string(runes[:estimate]), budget)
	}

	first := chunks[0]
	if len([]rune(first)) >= len(runes) {
		return t.TrimTo(string(runes[:estimate]), budget)
	}
	return t.TrimTo(first, budget)
}

func (t *Trimmer) count(text string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrEncoding, r)
		}
	}()
	return t.counter.CountTokens(text)
}

func (t *Trimmer) fallback(prompt string, budget int, cause error) string {
	t.logger.Warn("prompt trimming failed, truncating by characters", "budget", budget, "error", cause)
	runes := []rune(prompt)
	limit := budget * charsPerToken
	if limit >= len(runes) {
		return prompt
	}
	return string(runes[:limit])
}

var (
	defaultOnce    sync.Once
	defaultTrimmer *Trimmer
)

// Default returns a process-wide Trimmer backed by the o200k_base encoding.
func Default() *Trimmer {
	defaultOnce.Do(func() {
		defaultTrimmer = New(&TiktokenCounter{Encoding: DefaultEncoding}, DefaultContextSize)
	})
	return defaultTrimmer
}
