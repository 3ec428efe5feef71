package capture

import (
	"context"
	"log/slog"

	"github.com/rbright/intervu/internal/audio"
)

// PulseMicrophone records from the input chosen by the audio.input/audio.fallback policy.
type PulseMicrophone struct {
	Input    string
	Fallback string
	Logger   *slog.Logger
}

// Start selects a source and begins a 16kHz mono capture.
func (p PulseMicrophone) Start(ctx context.Context) (AudioStream, error) {
	selection, err := audio.SelectDevice(ctx, p.Input, p.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && p.Logger != nil {
		p.Logger.Warn(selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device)
	if err != nil {
		return nil, err
	}
	return &pulseStream{capture: capture, logger: p.Logger}, nil
}

type pulseStream struct {
	capture *audio.Capture
	logger  *slog.Logger
}

func (s *pulseStream) Device() string {
	return audio.Describe(s.capture.Device())
}

func (s *pulseStream) Stop() []byte {
	_ = s.capture.Stop()
	if s.capture.Truncated() && s.logger != nil {
		s.logger.Warn("answer exceeded recording cap; trailing audio dropped", "max_bytes", audio.MaxAnswerBytes)
	}
	return s.capture.PCM()
}
