package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikeboe/deep-research/pkg/completion"
)

// Planner turns a topic and prior findings into at most maxQueries
// sub-queries. An empty plan ends the branch.
type Planner interface {
	Plan(ctx context.Context, topic string, findings []string, maxQueries int) []SubQuery
}

type planResponse struct {
	Queries []SubQuery `json:"queries"`
}

// Plan asks the model for search queries. Failures yield an empty plan.
func (l *LLM) Plan(ctx context.Context, topic string, findings []string, maxQueries int) []SubQuery {
	if maxQueries < 1 {
		maxQueries = 1
	}

	prompt := l.Trimmer.Trim(planPrompt(topic, findings, maxQueries))
	resp, err := completion.Generate[planResponse](ctx, l.Client, l.system(), prompt,
		completion.Describe(fmt.Sprintf("List of SERP queries, max of %d", maxQueries), "queries"))
	if err != nil {
		l.Logger.Error("error generating SERP queries", "error", err)
		return nil
	}

	queries := make([]SubQuery, 0, len(resp.Queries))
	for _, q := range resp.Queries {
		q.Query = strings.TrimSpace(q.Query)
		if q.Query == "" {
			continue
		}
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}

	l.Logger.Info("created queries", "count", len(queries))
	return queries
}
