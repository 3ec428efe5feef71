// Package speech plays interviewer utterances as cancelable tasks.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Speaker synthesizes one line of text and blocks until playback ends or ctx is cancelled.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(context.Context, string) error

func (f SpeakerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Silent completes every utterance immediately.
type Silent struct{}

func (Silent) Speak(context.Context, string) error { return nil }

// Utterance is one in-flight script of lines played back to back.
type Utterance struct {
	id     uint64
	lines  []string
	cancel context.CancelFunc
	done   chan struct{}

	// written before done is closed
	err       error
	cancelled bool
}

// ID identifies the utterance; ids increase with every Play.
func (u *Utterance) ID() uint64 { return u.id }

// Lines returns the script text.
func (u *Utterance) Lines() []string { return u.lines }

// Done is closed once playback finished, failed, or was cancelled.
func (u *Utterance) Done() <-chan struct{} { return u.done }

// Cancelled reports whether a newer utterance or Cancel cut this one short.
func (u *Utterance) Cancelled() bool {
	<-u.done
	return u.cancelled
}

// Err returns the first synthesizer failure. Failures still count as completion.
func (u *Utterance) Err() error {
	<-u.done
	return u.err
}

// Wait blocks until the utterance ends or ctx is done.
func (u *Utterance) Wait(ctx context.Context) error {
	select {
	case <-u.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Voice serializes utterances: starting a new one cancels the one in flight.
type Voice struct {
	speaker Speaker
	gap     time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	seq     uint64
	current *Utterance
}

// NewVoice wraps a Speaker. gap is the pause inserted between lines of one script.
func NewVoice(speaker Speaker, gap time.Duration, logger *slog.Logger) *Voice {
	if speaker == nil {
		speaker = Silent{}
	}
	return &Voice{speaker: speaker, gap: gap, logger: logger}
}

// Play cancels any in-flight utterance, waits for it to stop, then starts lines.
func (v *Voice) Play(ctx context.Context, lines ...string) *Utterance {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stopCurrentLocked()

	playCtx, cancel := context.WithCancel(ctx)
	v.seq++
	u := &Utterance{
		id:     v.seq,
		lines:  append([]string(nil), lines...),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	v.current = u

	go v.run(playCtx, u)
	return u
}

// Cancel stops the in-flight utterance, if any, and waits for it to end.
func (v *Voice) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopCurrentLocked()
}

func (v *Voice) stopCurrentLocked() {
	if v.current == nil {
		return
	}
	v.current.cancel()
	<-v.current.done
	v.current = nil
}

func (v *Voice) run(ctx context.Context, u *Utterance) {
	defer close(u.done)
	defer u.cancel()

	for i, line := range u.lines {
		if i > 0 && v.gap > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(v.gap):
			}
		}
		if ctx.Err() != nil {
			u.cancelled = true
			return
		}

		err := v.speaker.Speak(ctx, line)
		if ctx.Err() != nil {
			u.cancelled = true
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			if u.err == nil {
				u.err = err
			}
			if v.logger != nil {
				v.logger.Warn("speech synthesis failed", "utterance", u.id, "error", err.Error())
			}
		}
	}
}
