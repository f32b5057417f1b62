package research

import (
	"log/slog"
	"time"

	"github.com/mikeboe/deep-research/pkg/completion"
	"github.com/mikeboe/deep-research/pkg/trimmer"
)

// LLM performs the completion-backed steps of research: planning, extraction,
// report and answer writing, and clarifying questions. Every step fails soft.
type LLM struct {
	Client  completion.Client
	Trimmer *trimmer.Trimmer
	Logger  *slog.Logger
	// ExtractTimeout bounds a single extraction call.
	ExtractTimeout time.Duration
	Now            func() time.Time
}

// NewLLM creates the completion-backed steps. A nil trimmer selects the
// process-wide o200k_base trimmer.
func NewLLM(client completion.Client, trim *trimmer.Trimmer, logger *slog.Logger) *LLM {
	if trim == nil {
		trim = trimmer.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLM{
		Client:         client,
		Trimmer:        trim,
		Logger:         logger,
		ExtractTimeout: DefaultExtractTimeout,
		Now:            time.Now,
	}
}

func (l *LLM) system() string {
	return SystemPrompt(l.Now())
}
