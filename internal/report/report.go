// Package report finalizes a completed interview: scoring, analysis cache, backup snapshot.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/intervu/internal/interview"
	"github.com/rbright/intervu/internal/resultcache"
)

// Scorer submits a transcript for assessment.
type Scorer interface {
	Score(ctx context.Context, t interview.Transcript) (interview.Scored, error)
}

// Outcome describes what Finalize produced. The session completes regardless.
type Outcome struct {
	Scored     bool
	Analysis   interview.Analysis
	AnalysisID string
	SavedAt    time.Time
	Backup     interview.Backup
	Err        error
}

// Reporter persists session results locally after asking the scorer for an analysis.
type Reporter struct {
	scorer Scorer
	cache  resultcache.Store
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Reporter. A nil cache keeps results in memory only.
func New(scorer Scorer, cache resultcache.Store, logger *slog.Logger) *Reporter {
	if cache == nil {
		cache = resultcache.NewMemoryStore(0)
	}
	return &Reporter{scorer: scorer, cache: cache, logger: logger, now: time.Now}
}

// Finalize scores the transcript and writes the cache entries. It never fails the session:
// on scoring failure only the backup is written and Outcome.Err carries the reason.
func (r *Reporter) Finalize(ctx context.Context, t interview.Transcript) Outcome {
	outcome := Outcome{Backup: interview.NewBackup(t, r.now())}

	scored, err := r.score(ctx, t)
	if err != nil {
		outcome.Err = err
		r.logWarn("interview scoring failed; keeping backup only", "error", err.Error())
		// An analysis left from an earlier session must not pair with this backup.
		if derr := r.cache.Delete(resultcache.KeyAnalysis); derr != nil {
			r.logWarn("result cache delete failed", "key", resultcache.KeyAnalysis, "error", derr.Error())
		}
	} else {
		outcome.Scored = true
		outcome.Analysis = scored.Analysis
		outcome.AnalysisID = scored.AnalysisID
		outcome.SavedAt = scored.SavedAt
		r.put(resultcache.KeyAnalysis, scored)
	}

	r.put(resultcache.KeyResults, outcome.Backup)
	r.logInfo("interview finalized",
		"scored", outcome.Scored,
		"analysis_id", outcome.AnalysisID,
		"questions", outcome.Backup.TotalQuestions,
		"responses", outcome.Backup.TotalResponses,
	)
	return outcome
}

func (r *Reporter) score(ctx context.Context, t interview.Transcript) (interview.Scored, error) {
	if r.scorer == nil {
		return interview.Scored{}, fmt.Errorf("no scorer configured")
	}
	scored, err := r.scorer.Score(ctx, t)
	if err != nil {
		return interview.Scored{}, err
	}
	if err := scored.Analysis.Validate(); err != nil {
		return interview.Scored{}, fmt.Errorf("invalid analysis: %w", err)
	}
	return scored, nil
}

func (r *Reporter) put(key string, v any) {
	if err := r.cache.Put(key, v); err != nil {
		r.logWarn("result cache write failed", "key", key, "error", err.Error())
	}
}

func (r *Reporter) logInfo(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}

func (r *Reporter) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
