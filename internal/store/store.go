// Package store persists interview question sets and scored result summaries.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/rbright/intervu/internal/interview"
)

// DefaultResultLimit is the number of summaries returned by the results query.
const DefaultResultLimit = 10

// ErrNotFound means no question set exists for the requested email.
var ErrNotFound = errors.New("not found")

// Store is the server-side persistence used by the collaborator API.
type Store interface {
	LatestSet(ctx context.Context, email string) (interview.Set, error)
	SaveSet(ctx context.Context, email string, set interview.Set) error
	// SaveResult assigns ID and CreatedAt when unset and returns the stored row.
	SaveResult(ctx context.Context, row interview.ResultSummary) (interview.ResultSummary, error)
	// ListResults returns rows for email newest first, at most limit.
	ListResults(ctx context.Context, email string, limit int) ([]interview.ResultSummary, error)
	Close() error
}

func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return interview.DefaultEmail
	}
	return email
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultResultLimit
	}
	return limit
}
