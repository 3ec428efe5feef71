// Package archive stores uploaded answer audio for later review.
package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archiver persists one WAV blob and returns its location.
type Archiver interface {
	Store(ctx context.Context, wav []byte) (string, error)
	Close() error
}

// Noop discards audio.
type Noop struct{}

func (Noop) Store(context.Context, []byte) (string, error) { return "", nil }
func (Noop) Close() error                                  { return nil }

type objectWriterFactory func(ctx context.Context, object string) io.WriteCloser

// GCS writes audio objects to a Cloud Storage bucket under audio/<date>/<uuid>.wav.
type GCS struct {
	client *storage.Client
	bucket string
	now    func() time.Time
	newID  func() string
	writer objectWriterFactory
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("archive bucket cannot be empty")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloud storage client: %w", err)
	}

	g := &GCS{client: client, bucket: bucket, now: time.Now, newID: uuid.NewString}
	g.writer = func(ctx context.Context, object string) io.WriteCloser {
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = "audio/wav"
		return w
	}
	return g, nil
}

func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GCS) Store(ctx context.Context, wav []byte) (string, error) {
	object := g.objectName()
	w := g.writer(ctx, object)
	if _, err := w.Write(wav); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write audio object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close audio object %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, object), nil
}

func (g *GCS) objectName() string {
	return fmt.Sprintf("audio/%s/%s.wav", g.now().UTC().Format("2006-01-02"), g.newID())
}
