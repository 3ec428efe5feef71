package speech

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blockingSpeaker records spoken lines and blocks until released or cancelled.
type blockingSpeaker struct {
	mu      sync.Mutex
	spoken  []string
	active  atomic.Int32
	overlap atomic.Bool
	release chan struct{}
}

func newBlockingSpeaker() *blockingSpeaker {
	return &blockingSpeaker{release: make(chan struct{})}
}

func (s *blockingSpeaker) Speak(ctx context.Context, text string) error {
	if s.active.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.active.Add(-1)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
	}
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	return nil
}

func (s *blockingSpeaker) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

func TestVoicePlayCancelsPreviousUtterance(t *testing.T) {
	speaker := newBlockingSpeaker()
	voice := NewVoice(speaker, 0, nil)

	first := voice.Play(context.Background(), "Question 1: first")
	second := voice.Play(context.Background(), "Question 2: second")

	require.True(t, first.Cancelled())
	require.Greater(t, second.ID(), first.ID())

	close(speaker.release)
	require.NoError(t, second.Wait(context.Background()))
	require.False(t, second.Cancelled())
	require.Equal(t, []string{"Question 2: second"}, speaker.lines())
	require.False(t, speaker.overlap.Load())
}

func TestVoicePlaysLinesInOrderWithGap(t *testing.T) {
	var got []string
	speaker := SpeakerFunc(func(_ context.Context, text string) error {
		got = append(got, text)
		return nil
	})
	voice := NewVoice(speaker, 5*time.Millisecond, nil)

	u := voice.Play(context.Background(), "a", "b", "c")
	<-u.Done()
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.NoError(t, u.Err())
}

func TestVoiceSpeakerErrorCountsAsCompletion(t *testing.T) {
	boom := errors.New("synth crashed")
	calls := 0
	voice := NewVoice(SpeakerFunc(func(context.Context, string) error {
		calls++
		return boom
	}), 0, nil)

	u := voice.Play(context.Background(), "one", "two")
	<-u.Done()
	require.False(t, u.Cancelled())
	require.ErrorIs(t, u.Err(), boom)
	require.Equal(t, 2, calls)
}

func TestVoiceCancelStopsInFlight(t *testing.T) {
	speaker := newBlockingSpeaker()
	voice := NewVoice(speaker, 0, nil)

	u := voice.Play(context.Background(), "long line")
	voice.Cancel()
	require.True(t, u.Cancelled())

	// Cancel with nothing playing is a no-op.
	voice.Cancel()
}

func TestVoiceParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	voice := NewVoice(newBlockingSpeaker(), 0, nil)

	u := voice.Play(ctx, "hello")
	cancel()
	<-u.Done()
	require.True(t, u.Cancelled())
}

func TestExpandArgv(t *testing.T) {
	argv, stdin := expandArgv([]string{"spd-say", "-w", "{text}"}, "hi there")
	require.Equal(t, []string{"spd-say", "-w", "hi there"}, argv)
	require.Empty(t, stdin)

	argv, stdin = expandArgv([]string{"espeak-ng", "-s", "157"}, "hi there")
	require.Equal(t, []string{"espeak-ng", "-s", "157"}, argv)
	require.Equal(t, "hi there", stdin)
}

func TestCommandSpeakerWritesTextToStdin(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "capture.sh")
	out := filepath.Join(dir, "spoken.txt")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat > \"$1\"\n"), 0o755))

	speaker := NewCommandSpeaker([]string{script, out})
	require.NoError(t, speaker.Speak(context.Background(), "  Question 1: hello  "))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "Question 1: hello", string(data))
}

func TestCommandSpeakerSkipsBlankText(t *testing.T) {
	speaker := NewCommandSpeaker(nil)
	require.NoError(t, speaker.Speak(context.Background(), "   "))
}

func TestCommandSpeakerRejectsEmptyArgv(t *testing.T) {
	err := NewCommandSpeaker(nil).Speak(context.Background(), "hello")
	require.ErrorContains(t, err, "argv cannot be empty")
}

func TestCommandSpeakerCancellationKillsProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	speaker := NewCommandSpeaker([]string{"sh", "-c", "exec sleep 5"})

	errCh := make(chan error, 1)
	go func() { errCh <- speaker.Speak(ctx, "hello") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("speaker did not stop after cancellation")
	}
}

func TestCueSamplesPresent(t *testing.T) {
	require.NotEmpty(t, cueSamples(CueRecordStart))
	require.NotEmpty(t, cueSamples(CueRecordStop))
	require.Empty(t, cueSamples(CueKind(99)))
}

func TestSynthesizeToneDuration(t *testing.T) {
	got := synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0.2})
	require.Len(t, got, samplesForDuration(100*time.Millisecond))
}

func TestSynthesizeToneInvalidSpecReturnsEmpty(t *testing.T) {
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 0, duration: 100 * time.Millisecond, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 0, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0}))
}

func TestCuePlayerDisabledDoesNotPlay(t *testing.T) {
	var played atomic.Int32
	player := &CuePlayer{play: func(context.Context, []int16, int, string) error {
		played.Add(1)
		return nil
	}}

	player.RecordStart(context.Background())
	require.Zero(t, played.Load())

	player.Enabled = true
	player.RecordStart(context.Background())
	player.RecordStop(context.Background())
	require.Equal(t, int32(2), played.Load())
}
