// Package server exposes the collaborator HTTP API: question bank, transcription, scoring and results.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rbright/intervu/internal/archive"
	"github.com/rbright/intervu/internal/interview"
	"github.com/rbright/intervu/internal/live"
	"github.com/rbright/intervu/internal/store"
)

const shutdownGrace = 10 * time.Second

// Scorer produces a structured analysis for a completed transcript.
type Scorer interface {
	Score(ctx context.Context, t interview.Transcript) (interview.Analysis, error)
}

// Transcriber turns one WAV answer into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type Options struct {
	Store       store.Store
	Scorer      Scorer
	Transcriber Transcriber
	Archive     archive.Archiver
	Hub         *live.Hub
	CORSOrigins []string
	Logger      *slog.Logger
	Now         func() time.Time
}

type Server struct {
	store       store.Store
	scorer      Scorer
	transcriber Transcriber
	archive     archive.Archiver
	hub         *live.Hub
	logger      *slog.Logger
	now         func() time.Time
	router      *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("server store is required")
	}
	s := &Server{
		store:       opts.Store,
		scorer:      opts.Scorer,
		transcriber: opts.Transcriber,
		archive:     opts.Archive,
		hub:         opts.Hub,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if s.archive == nil {
		s.archive = archive.Noop{}
	}
	if s.hub == nil {
		s.hub = live.NewHub(opts.Logger)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.router = s.routes(opts.CORSOrigins)
	return s, nil
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(cors.New(corsConfig(origins)))

	r.GET("/health", s.health)
	r.GET("/v1/live", gin.WrapH(s.hub))

	api := r.Group("/api")
	{
		api.GET("/userQuestions", s.userQuestions)
		api.POST("/interviewSets", s.saveInterviewSet)
		api.POST("/transcribe/audio", s.transcribeAudio)
		api.POST("/analyze", s.analyze)
		api.GET("/getAnalyze", s.getAnalyze)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		)
	}
}
