package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/intervu/internal/apiclient"
	"github.com/rbright/intervu/internal/capture"
	"github.com/rbright/intervu/internal/cli"
	"github.com/rbright/intervu/internal/config"
	"github.com/rbright/intervu/internal/fsm"
	"github.com/rbright/intervu/internal/ipc"
	"github.com/rbright/intervu/internal/live"
	"github.com/rbright/intervu/internal/report"
	"github.com/rbright/intervu/internal/resultcache"
	"github.com/rbright/intervu/internal/session"
	"github.com/rbright/intervu/internal/speech"
)

// commandRun owns one interview session until it completes or ctx is cancelled.
func (r Runner) commandRun(ctx context.Context, parsed cli.Parsed, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	client, err := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	cache, err := openCache(cfg.Cache)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	opts := session.Options{
		Email:       firstNonEmpty(parsed.Email, cfg.Interview.Email),
		JobID:       firstNonEmpty(parsed.JobID, cfg.Interview.JobID),
		Logger:      logger,
		Questions:   client,
		Transcriber: client,
		Reporter:    report.New(client, cache, logger),
		Capture:     newCaptureManager(cfg, logger),
		Voice:       speech.NewVoice(newSpeaker(cfg.Speech), cfg.Speech.Gap(), logger),
		Cues:        speech.NewCuePlayer(cfg.Speech.Cues, logger),
	}

	if cfg.Live.Enable {
		publisher, err := live.NewPublisher(client.BaseURL(), logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		publisher.Start(ctx)
		defer publisher.Close()
		opts.Observer = publisher
	}

	controller := session.NewController(opts)
	fmt.Fprintf(r.Stdout, "session %s: waiting for camera; run `intervu start` when ready\n", controller.ID())

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	result := controller.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)
	return r.printSessionResult(result)
}

func (r Runner) printSessionResult(result session.Result) int {
	if errors.Is(result.Err, context.Canceled) {
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	if result.State != fsm.StateCompleted {
		fmt.Fprintf(r.Stdout, "session ended in state %s\n", result.State)
		return 1
	}

	fmt.Fprintf(r.Stdout, "completed: %d/%d responses recorded\n", len(result.Responses), result.Questions)
	if result.Outcome.Scored {
		a := result.Outcome.Analysis
		fmt.Fprintf(r.Stdout, "overall score %.0f/100, recommendation %s\n", a.OverallScore, a.Recommendation)
		if strings.TrimSpace(a.FinalFeedback) != "" {
			fmt.Fprintln(r.Stdout, strings.TrimSpace(a.FinalFeedback))
		}
	} else {
		fmt.Fprintln(r.Stdout, "responses saved locally; analysis unavailable")
	}
	return 0
}

func newCaptureManager(cfg config.Config, logger *slog.Logger) *capture.Manager {
	var sink capture.Sink = capture.NoopSink{}
	if len(cfg.Camera.Preview.Argv) > 0 {
		sink = &capture.CommandSink{Argv: cfg.Camera.Preview.Argv, Logger: logger}
	}
	return capture.NewManager(capture.Options{
		Camera: capture.V4L2Camera{Device: cfg.Camera.Device},
		Sink:   sink,
		Microphone: capture.PulseMicrophone{
			Input:    cfg.Audio.Input,
			Fallback: cfg.Audio.Fallback,
			Logger:   logger,
		},
		Logger:    logger,
		DumpAudio: cfg.Debug.EnableAudioDump,
	})
}

func newSpeaker(cfg config.SpeechConfig) speech.Speaker {
	if !cfg.Enable || len(cfg.Cmd.Argv) == 0 {
		return speech.Silent{}
	}
	return speech.NewCommandSpeaker(cfg.Cmd.Argv)
}

func openCache(cfg config.CacheConfig) (*resultcache.FileStore, error) {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		var err error
		dir, err = resultcache.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return resultcache.NewFileStore(dir, cfg.TTL())
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"session", result.Session,
		"state", result.State,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"questions", result.Questions,
		"responses", len(result.Responses),
		"scored", result.Outcome.Scored,
		"analysis_id", result.Outcome.AnalysisID,
	}
	if result.Outcome.Err != nil {
		fields = append(fields, "scoring_error", result.Outcome.Err.Error())
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
