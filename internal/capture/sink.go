package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

const devicePlaceholder = "{device}"

// NoopSink accepts every stream without displaying it.
type NoopSink struct{}

func (NoopSink) Bind(context.Context, VideoStream) error { return nil }
func (NoopSink) Unbind()                                  {}

// pathStream is implemented by streams backed by a device node.
type pathStream interface {
	Path() string
}

// CommandSink runs a preview command (for example `ffplay -f v4l2 {device}`) while bound.
type CommandSink struct {
	Argv   []string
	Logger *slog.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
}

// Bind starts the preview process for stream.
func (s *CommandSink) Bind(_ context.Context, stream VideoStream) error {
	if len(s.Argv) == 0 {
		return errors.New("preview command argv cannot be empty")
	}

	s.Unbind()

	device := stream.Device()
	if ps, ok := stream.(pathStream); ok {
		device = ps.Path()
	}
	argv := make([]string, len(s.Argv))
	for i, arg := range s.Argv {
		argv[i] = strings.ReplaceAll(arg, devicePlaceholder, device)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start preview %s: %w", argv[0], err)
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		if err != nil && s.Logger != nil {
			s.Logger.Debug("preview exited", "error", err.Error())
		}
		close(done)
	}()

	s.mu.Lock()
	s.cmd = cmd
	s.done = done
	s.mu.Unlock()
	return nil
}

// Unbind kills the preview process and waits for it to exit.
func (s *CommandSink) Unbind() {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	s.cmd, s.done = nil, nil
	s.mu.Unlock()

	if cmd == nil {
		return
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-done
}
