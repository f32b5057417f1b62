package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikeboe/deep-research/pkg/clients"
	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/research"
)

const (
	defaultBreadth = 4
	defaultDepth   = 2
)

var (
	query      string
	breadth    int
	depth      int
	mode       string
	noFeedback bool
)

func main() {
	cfg := config.Load()

	// Setup structured logging
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	slog.SetDefault(slog.New(handler))

	rootCmd := &cobra.Command{
		Use:   "deep-research",
		Short: "A terminal-based deep research agent",
		Long:  `deep-research plans web searches for a query, extracts learnings from the results and recursively follows up on them, then writes a report or a short answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}

			if !cmd.Flags().Changed("query") {
				// Interactive Mode
				query = p.ask("What would you like to research? ")
				breadth = p.askInt("Enter research breadth (recommended 2-10, default 4): ", defaultBreadth)
				depth = p.askInt("Enter research depth (recommended 1-5, default 2): ", defaultDepth)
				mode = p.ask("Do you want to generate a long report or a specific answer? (report/answer, default report): ")
			}
			if query == "" {
				return fmt.Errorf("query cannot be empty")
			}

			agent, err := clients.NewResearchAgent(cmd.Context(), cfg, slog.Default(), nil)
			if err != nil {
				return fmt.Errorf("error initializing research agent: %w", err)
			}

			return run(cmd.Context(), agent, p, !noFeedback)
		},
	}

	rootCmd.Flags().StringVarP(&query, "query", "q", "", "The research query; skips the interactive prompts")
	rootCmd.Flags().IntVarP(&breadth, "breadth", "b", defaultBreadth, "Number of search queries per level (1-10)")
	rootCmd.Flags().IntVarP(&depth, "depth", "d", defaultDepth, "Number of research levels (1-5)")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "report", "Output mode: report or answer")
	rootCmd.Flags().BoolVar(&noFeedback, "no-feedback", false, "Do not ask clarifying questions before a report")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, agent *research.Agent, p *prompter, feedback bool) error {
	isReport := mode != "answer"
	combined := query

	if isReport && feedback {
		slog.Info("Creating research plan...")
		questions := agent.Feedback(ctx, query, research.DefaultFeedbackQuestions)
		if len(questions) > 0 {
			p.say("\nTo better understand your research needs, please answer these follow-up questions:")
			answers := make([]research.QA, len(questions))
			for i, q := range questions {
				answers[i] = research.QA{Question: q, Answer: p.ask(fmt.Sprintf("\n%s\nYour answer: ", q))}
			}
			combined = research.CombineFeedback(query, answers)
		}
	}

	b, d := research.ClampBreadth(breadth), research.ClampDepth(depth)
	slog.Info("Starting research", "breadth", b, "depth", d)

	res := agent.Research(ctx, combined, b, d, func(pr research.Progress) {
		slog.Debug("Research progress",
			"depth", fmt.Sprintf("%d/%d", pr.CurrentDepth, pr.TotalDepth),
			"queries", fmt.Sprintf("%d/%d", pr.CompletedQueries, pr.TotalQueries),
			"current", pr.CurrentQuery)
	})

	p.say(fmt.Sprintf("\n\nLearnings:\n\n%s", strings.Join(res.Findings, "\n")))
	p.say(fmt.Sprintf("\n\nVisited URLs (%d):\n\n%s", len(res.Sources), strings.Join(res.Sources, "\n")))
	slog.Info("Writing final report...")

	if isReport {
		report := agent.WriteReport(ctx, combined, res.Findings, res.Sources)
		return save(p, "report.md", "Final Report", "Report", report)
	}
	answer := agent.WriteAnswer(ctx, combined, res.Findings)
	return save(p, "answer.md", "Final Answer", "Answer", answer)
}

func save(p *prompter, path, title, kind, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	p.say(fmt.Sprintf("\n\n%s:\n\n%s", title, content))
	p.say(fmt.Sprintf("\n%s has been saved to %s", kind, path))
	return nil
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) say(s string) {
	fmt.Fprintln(p.out, s)
}

func (p *prompter) ask(question string) string {
	fmt.Fprint(p.out, question)
	input, _ := p.in.ReadString('\n')
	return strings.TrimSpace(input)
}

// askInt falls back to def on empty or invalid input.
func (p *prompter) askInt(question string, def int) int {
	n, err := strconv.Atoi(p.ask(question))
	if err != nil {
		return def
	}
	return n
}
