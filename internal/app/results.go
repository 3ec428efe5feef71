package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/intervu/internal/apiclient"
	"github.com/rbright/intervu/internal/cli"
	"github.com/rbright/intervu/internal/config"
	"github.com/rbright/intervu/internal/export"
	"github.com/rbright/intervu/internal/interview"
	"github.com/rbright/intervu/internal/resultcache"
)

// commandResults lists stored summaries, then shows the cached analysis of the last session once.
// The cache is local, so it is read even when the query fails.
func (r Runner) commandResults(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	rows, email, code := r.fetchResults(ctx, parsed, cfg)
	if code == 2 {
		return code
	}
	queryFailed := code != 0

	if !queryFailed && len(rows) == 0 {
		fmt.Fprintf(r.Stdout, "no results for %s\n", email)
	}
	for _, row := range rows {
		fmt.Fprintf(r.Stdout, "%s | %s | %s | overall=%.0f | technical=%.1f | communication=%.1f | %s | answered=%d/%d\n",
			row.CreatedAt.Local().Format(time.DateTime),
			row.CandidateName,
			row.Position,
			row.OverallScore,
			row.TechnicalScore,
			row.CommunicationScore,
			row.Recommendation,
			row.QuestionsAnswered,
			row.TotalQuestions,
		)
	}

	found := r.showCachedAnalysis(cfg, logger)
	if queryFailed && !found {
		return 1
	}
	return 0
}

func (r Runner) showCachedAnalysis(cfg config.Config, logger *slog.Logger) bool {
	cache, err := openCache(cfg.Cache)
	if err != nil {
		logger.Warn("result cache unavailable", "error", err.Error())
		return false
	}
	var scored interview.Scored
	found, err := cache.Take(resultcache.KeyAnalysis, &scored)
	if err != nil {
		logger.Warn("read cached analysis failed", "error", err.Error())
		return false
	}
	if found {
		printAnalysis(r, scored)
	}
	return found
}

func (r Runner) commandExport(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	rows, email, code := r.fetchResults(ctx, parsed, cfg)
	if code != 0 {
		return code
	}

	path, err := export.WriteWorkbook(parsed.Out, email, rows, r.now())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("results exported", "path", path, "rows", len(rows))
	fmt.Fprintf(r.Stdout, "wrote %d results to %s\n", len(rows), path)
	return 0
}

func (r Runner) fetchResults(ctx context.Context, parsed cli.Parsed, cfg config.Config) ([]interview.ResultSummary, string, int) {
	email := firstNonEmpty(parsed.Email, cfg.Interview.Email)
	if email == "" {
		fmt.Fprintf(r.Stderr, "error: %s requires --email (or interview.email in config)\n", parsed.Command)
		return nil, "", 2
	}

	client, err := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return nil, "", 1
	}
	rows, err := client.Results(ctx, email)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return nil, "", 1
	}
	return rows, email, 0
}

func printAnalysis(r Runner, scored interview.Scored) {
	a := scored.Analysis
	fmt.Fprintln(r.Stdout)
	fmt.Fprintf(r.Stdout, "latest session analysis (%s):\n", scored.AnalysisID)
	fmt.Fprintf(r.Stdout, "  overall %.0f/100, technical %.1f/10, communication %.1f/10, recommendation %s\n",
		a.OverallScore, a.TechnicalScore, a.CommunicationScore, a.Recommendation)
	for _, s := range a.DetailedFeedback.Strengths {
		fmt.Fprintf(r.Stdout, "  + %s\n", s)
	}
	for _, w := range a.DetailedFeedback.Weaknesses {
		fmt.Fprintf(r.Stdout, "  - %s\n", w)
	}
	if a.FinalFeedback != "" {
		fmt.Fprintf(r.Stdout, "  %s\n", a.FinalFeedback)
	}
	if a.NextSteps != "" {
		fmt.Fprintf(r.Stdout, "  next: %s\n", a.NextSteps)
	}
}
