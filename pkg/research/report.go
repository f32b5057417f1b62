package research

import (
	"context"
	"strings"

	"github.com/mikeboe/deep-research/pkg/completion"
)

// Fallback texts returned when the model cannot produce output.
const (
	ReportFailure = "Error generating report"
	AnswerFailure = "Error generating answer"
)

type reportResponse struct {
	ReportMarkdown string `json:"report_markdown" jsonschema:"Final report on the topic in Markdown"`
}

type answerResponse struct {
	ExactAnswer string `json:"exact_answer" jsonschema:"The final answer, make it short and concise, just the answer, no other text"`
}

// WriteReport writes a markdown report from findings and appends the sources.
func (l *LLM) WriteReport(ctx context.Context, prompt string, findings, sources []string) string {
	resp, err := completion.Generate[reportResponse](ctx, l.Client, l.system(),
		l.Trimmer.Trim(reportPrompt(prompt, findings)))
	if err != nil {
		l.Logger.Error("error writing final report", "error", err)
		return ReportFailure
	}
	return resp.ReportMarkdown + SourcesSection(sources)
}

// SourcesSection renders sources as a trailing markdown list.
func SourcesSection(sources []string) string {
	var sb strings.Builder
	sb.WriteString("\n\n## Sources\n\n")
	for i, s := range sources {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(s)
	}
	return sb.String()
}

// WriteAnswer writes a short exact answer to prompt from findings.
func (l *LLM) WriteAnswer(ctx context.Context, prompt string, findings []string) string {
	resp, err := completion.Generate[answerResponse](ctx, l.Client, l.system(),
		l.Trimmer.Trim(answerPrompt(prompt, findings)))
	if err != nil {
		l.Logger.Error("error writing final answer", "error", err)
		return AnswerFailure
	}
	return resp.ExactAnswer
}
