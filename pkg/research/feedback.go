package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikeboe/deep-research/pkg/completion"
)

// DefaultFeedbackQuestions is the number of clarifying questions asked by default.
const DefaultFeedbackQuestions = 3

type feedbackResponse struct {
	Questions []string `json:"questions"`
}

// Feedback asks for up to numQuestions clarifying questions about query.
// It returns none when the query is clear or the model fails.
func (l *LLM) Feedback(ctx context.Context, query string, numQuestions int) []string {
	if numQuestions < 1 {
		numQuestions = DefaultFeedbackQuestions
	}

	resp, err := completion.Generate[feedbackResponse](ctx, l.Client, l.system(),
		feedbackPrompt(query, numQuestions),
		completion.Describe(fmt.Sprintf("Follow up questions to clarify the research direction, max of %d", numQuestions), "questions"))
	if err != nil {
		l.Logger.Error("error generating feedback", "error", err)
		return nil
	}

	questions := make([]string, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	return truncate(questions, numQuestions)
}

// QA is a clarifying question and the user's answer.
type QA struct {
	Question string
	Answer   string
}

// CombineFeedback folds the clarifying answers into the research query.
func CombineFeedback(query string, answers []QA) string {
	if len(answers) == 0 {
		return query
	}
	parts := make([]string, len(answers))
	for i, qa := range answers {
		parts[i] = fmt.Sprintf("Q: %s\nA: %s", qa.Question, qa.Answer)
	}
	return fmt.Sprintf("Initial Query: %s\nFollow-up Questions and Answers:\n%s", query, strings.Join(parts, "\n"))
}

// WithDirections appends follow-up questions as extra research directions.
func WithDirections(query string, questions []string) string {
	if len(questions) == 0 {
		return query
	}
	lines := make([]string, len(questions))
	for i, q := range questions {
		lines[i] = "- " + q
	}
	return query + "\n\nAdditional research directions:\n" + strings.Join(lines, "\n")
}
