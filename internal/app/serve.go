package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/rbright/intervu/internal/archive"
	"github.com/rbright/intervu/internal/cli"
	"github.com/rbright/intervu/internal/config"
	"github.com/rbright/intervu/internal/gemini"
	"github.com/rbright/intervu/internal/live"
	"github.com/rbright/intervu/internal/server"
	"github.com/rbright/intervu/internal/store"
)

// commandServe runs the collaborator HTTP API until ctx is cancelled.
func (r Runner) commandServe(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	gin.SetMode(gin.ReleaseMode)

	st, err := openStore(ctx, cfg.Server)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = st.Close() }()

	if cfg.Server.SeedFile != "" {
		entries, err := store.LoadSeed(cfg.Server.SeedFile)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if err := store.Seed(ctx, st, entries); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		logger.Info("seeded question sets", "file", cfg.Server.SeedFile, "sets", len(entries))
	}

	opts := server.Options{
		Store:       st,
		Hub:         live.NewHub(logger),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	}

	model, err := gemini.New(ctx, gemini.Config{
		Backend:  cfg.Gemini.Backend,
		Model:    cfg.Gemini.Model,
		APIKey:   cfg.Gemini.APIKey(),
		Project:  cfg.Gemini.Project,
		Location: cfg.Gemini.Location,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "warning: scoring and transcription disabled: %v\n", err)
		logger.Warn("gemini unavailable", "error", err.Error())
	} else {
		opts.Scorer = model
		opts.Transcriber = model
	}

	if cfg.Server.ArchiveBucket != "" {
		gcs, err := archive.NewGCS(ctx, cfg.Server.ArchiveBucket)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = gcs.Close() }()
		opts.Archive = gcs
	}

	srv, err := server.New(opts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	addr := firstNonEmpty(parsed.Addr, cfg.Server.Addr)
	fmt.Fprintf(r.Stdout, "serving on %s (store=%s)\n", addr, cfg.Server.Store)
	if err := srv.Run(ctx, addr); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	switch cfg.Store {
	case config.StoreFirestore:
		fs, err := store.NewFirestore(ctx, cfg.Project())
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return store.NewMemory(), nil
	}
}
