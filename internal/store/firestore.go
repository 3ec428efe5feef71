package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rbright/intervu/internal/interview"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	setsCollection    = "interview_sets"
	resultsCollection = "interview_results"
)

type setDoc struct {
	Email     string        `firestore:"email"`
	CreatedAt time.Time     `firestore:"createdAt"`
	Set       interview.Set `firestore:"set"`
}

// Firestore stores sets and results in two top-level collections.
type Firestore struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestore opens a client for projectID. Credentials come from the environment (ADC).
func NewFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Firestore{client: client, now: time.Now}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func (f *Firestore) LatestSet(ctx context.Context, email string) (interview.Set, error) {
	iter := f.client.Collection(setsCollection).
		Where("email", "==", normalizeEmail(email)).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return interview.Set{}, ErrNotFound
	}
	if err != nil {
		return interview.Set{}, translate("query interview set", err)
	}

	var sd setDoc
	if err := doc.DataTo(&sd); err != nil {
		return interview.Set{}, fmt.Errorf("decode interview set %s: %w", doc.Ref.ID, err)
	}
	return sd.Set, nil
}

func (f *Firestore) SaveSet(ctx context.Context, email string, set interview.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	sd := setDoc{Email: normalizeEmail(email), CreatedAt: f.now().UTC(), Set: set}
	if _, err := f.client.Collection(setsCollection).NewDoc().Set(ctx, sd); err != nil {
		return translate("save interview set", err)
	}
	return nil
}

func (f *Firestore) SaveResult(ctx context.Context, row interview.ResultSummary) (interview.ResultSummary, error) {
	ref := f.client.Collection(resultsCollection).NewDoc()
	if row.ID == "" {
		row.ID = ref.ID
	} else {
		ref = f.client.Collection(resultsCollection).Doc(row.ID)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = f.now().UTC()
	}
	if _, err := ref.Set(ctx, row); err != nil {
		return interview.ResultSummary{}, translate("save result", err)
	}
	return row, nil
}

func (f *Firestore) ListResults(ctx context.Context, email string, limit int) ([]interview.ResultSummary, error) {
	iter := f.client.Collection(resultsCollection).
		Where("email", "==", email).
		OrderBy("createdAt", firestore.Desc).
		Limit(normalizeLimit(limit)).
		Documents(ctx)
	defer iter.Stop()

	rows := []interview.ResultSummary{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, translate("query results", err)
		}
		var row interview.ResultSummary
		if err := doc.DataTo(&row); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", doc.Ref.ID, err)
		}
		if row.ID == "" {
			row.ID = doc.Ref.ID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// translate maps a gRPC NotFound onto ErrNotFound and wraps everything else.
func translate(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
