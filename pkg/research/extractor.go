package research

import (
	"context"
	"fmt"

	"github.com/mikeboe/deep-research/pkg/completion"
)

// Extractor turns the documents retrieved for one sub-query into findings and
// follow-up questions.
type Extractor interface {
	Extract(ctx context.Context, query string, docs []Document, maxFindings, maxFollowUps int) Extraction
}

// Extract asks the model for learnings from docs. Empty input skips the model
// and failures yield an empty extraction.
func (l *LLM) Extract(ctx context.Context, query string, docs []Document, maxFindings, maxFollowUps int) Extraction {
	contents := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Text == "" {
			continue
		}
		contents = append(contents, l.Trimmer.TrimTo(d.Text, DocumentTokenBudget))
	}

	l.Logger.Info("ran query", "query", query, "contents", len(contents))
	if len(contents) == 0 {
		return Extraction{}
	}

	if l.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.ExtractTimeout)
		defer cancel()
	}

	prompt := l.Trimmer.Trim(extractPrompt(query, contents, maxFindings))
	ext, err := completion.Generate[Extraction](ctx, l.Client, l.system(), prompt,
		completion.Describe(fmt.Sprintf("List of learnings, max of %d", maxFindings), "learnings"),
		completion.Describe(fmt.Sprintf("List of follow-up questions to research the topic further, max of %d", maxFollowUps), "follow_up_questions"),
	)
	if err != nil {
		l.Logger.Error("error processing SERP result", "query", query, "error", err)
		return Extraction{}
	}

	ext.Findings = truncate(ext.Findings, maxFindings)
	ext.FollowUps = truncate(ext.FollowUps, maxFollowUps)
	l.Logger.Info("created learnings", "query", query, "count", len(ext.Findings))
	return ext
}

func truncate(items []string, n int) []string {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
