package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeVideo struct {
	name   string
	closed atomic.Int32
}

func (v *fakeVideo) Device() string { return v.name }
func (v *fakeVideo) Close() error   { v.closed.Add(1); return nil }

type fakeCamera struct {
	err    error
	opened []*fakeVideo
}

func (c *fakeCamera) Open(context.Context) (VideoStream, error) {
	if c.err != nil {
		return nil, c.err
	}
	v := &fakeVideo{name: "Fake Cam (/dev/video9)"}
	c.opened = append(c.opened, v)
	return v, nil
}

type fakeSink struct {
	bindErr error
	binds   atomic.Int32
	unbinds atomic.Int32
}

func (s *fakeSink) Bind(context.Context, VideoStream) error {
	if s.bindErr != nil {
		return s.bindErr
	}
	s.binds.Add(1)
	return nil
}

func (s *fakeSink) Unbind() { s.unbinds.Add(1) }

type fakeAudio struct {
	pcm     []byte
	stopped atomic.Int32
}

func (a *fakeAudio) Device() string { return "Fake Mic (mic-1)" }
func (a *fakeAudio) Stop() []byte   { a.stopped.Add(1); return a.pcm }

type fakeMic struct {
	err     error
	streams []*fakeAudio
}

func (m *fakeMic) Start(context.Context) (AudioStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := &fakeAudio{pcm: []byte{1, 0, 2, 0}}
	m.streams = append(m.streams, s)
	return s, nil
}

func TestAcquireVideoSuccessSetsReady(t *testing.T) {
	camera := &fakeCamera{}
	sink := &fakeSink{}
	m := NewManager(Options{Camera: camera, Sink: sink})

	require.NoError(t, m.AcquireVideo(context.Background()))
	state := m.State()
	require.True(t, state.CameraReady)
	require.Empty(t, state.LastError)
	require.Equal(t, "Fake Cam (/dev/video9)", state.CameraDevice)
	require.Equal(t, int32(1), sink.binds.Load())
}

func TestAcquireVideoTwiceReleasesPreviousStream(t *testing.T) {
	camera := &fakeCamera{}
	sink := &fakeSink{}
	m := NewManager(Options{Camera: camera, Sink: sink})

	require.NoError(t, m.AcquireVideo(context.Background()))
	require.NoError(t, m.AcquireVideo(context.Background()))

	require.Len(t, camera.opened, 2)
	require.Equal(t, int32(1), camera.opened[0].closed.Load())
	require.Zero(t, camera.opened[1].closed.Load())
	require.Equal(t, int32(1), sink.unbinds.Load())
}

func TestAcquireVideoFailureRecordsReason(t *testing.T) {
	m := NewManager(Options{Camera: &fakeCamera{err: errors.New("permission denied")}})

	err := m.AcquireVideo(context.Background())
	require.Error(t, err)
	state := m.State()
	require.False(t, state.CameraReady)
	require.Contains(t, state.LastError, "permission denied")
}

func TestAcquireVideoBindFailureClosesStream(t *testing.T) {
	camera := &fakeCamera{}
	m := NewManager(Options{Camera: camera, Sink: &fakeSink{bindErr: errors.New("no display")}})

	require.Error(t, m.AcquireVideo(context.Background()))
	require.Len(t, camera.opened, 1)
	require.Equal(t, int32(1), camera.opened[0].closed.Load())
	require.False(t, m.State().CameraReady)
}

func TestAcquireVideoWithoutCamera(t *testing.T) {
	m := NewManager(Options{})
	require.ErrorContains(t, m.AcquireVideo(context.Background()), "no camera")
	require.NotEmpty(t, m.State().LastError)
}

func TestAudioCaptureRoundTrip(t *testing.T) {
	mic := &fakeMic{}
	m := NewManager(Options{Microphone: mic})

	h, ok := m.StartAudioCapture(context.Background())
	require.True(t, ok)
	require.NotZero(t, h)
	require.True(t, m.State().Recording)

	wav := m.StopAudioCapture(h)
	require.NotEmpty(t, wav)
	require.Equal(t, "RIFF", string(wav[:4]))

	state := m.State()
	require.False(t, state.Recording)
	require.Equal(t, wav, state.LastAudio)
	require.Equal(t, "Fake Mic (mic-1)", state.AudioDevice)
	require.Equal(t, int32(1), mic.streams[0].stopped.Load())
}

func TestStopAudioCaptureStaleHandleIsNoop(t *testing.T) {
	mic := &fakeMic{}
	m := NewManager(Options{Microphone: mic})

	first, ok := m.StartAudioCapture(context.Background())
	require.True(t, ok)
	second, ok := m.StartAudioCapture(context.Background())
	require.True(t, ok)
	require.NotEqual(t, first, second)

	// Starting again discarded the first stream.
	require.Equal(t, int32(1), mic.streams[0].stopped.Load())

	require.Nil(t, m.StopAudioCapture(first))
	require.True(t, m.State().Recording)
	require.NotNil(t, m.StopAudioCapture(second))
	require.Nil(t, m.StopAudioCapture(second))
	require.Nil(t, m.StopAudioCapture(0))
}

func TestStartAudioCaptureFailureReturnsFalse(t *testing.T) {
	m := NewManager(Options{Microphone: &fakeMic{err: errors.New("no audio input devices found")}})

	h, ok := m.StartAudioCapture(context.Background())
	require.False(t, ok)
	require.Zero(t, h)
	state := m.State()
	require.False(t, state.Recording)
	require.Contains(t, state.LastError, "Unable to access microphone")
}

func TestStartAudioCaptureWithoutMicrophone(t *testing.T) {
	m := NewManager(Options{})
	_, ok := m.StartAudioCapture(context.Background())
	require.False(t, ok)
}

func TestClearAudio(t *testing.T) {
	m := NewManager(Options{Microphone: &fakeMic{}})
	h, _ := m.StartAudioCapture(context.Background())
	m.StopAudioCapture(h)
	require.NotEmpty(t, m.State().LastAudio)

	m.ClearAudio()
	require.Empty(t, m.State().LastAudio)
}

func TestReleaseStopsEverythingAndIsIdempotent(t *testing.T) {
	camera := &fakeCamera{}
	mic := &fakeMic{}
	sink := &fakeSink{}
	m := NewManager(Options{Camera: camera, Sink: sink, Microphone: mic})

	require.NoError(t, m.AcquireVideo(context.Background()))
	_, ok := m.StartAudioCapture(context.Background())
	require.True(t, ok)

	m.Release()
	m.Release()

	state := m.State()
	require.False(t, state.CameraReady)
	require.False(t, state.Recording)
	require.Equal(t, int32(1), camera.opened[0].closed.Load())
	require.Equal(t, int32(1), mic.streams[0].stopped.Load())
	require.Equal(t, int32(1), sink.unbinds.Load())
}

func TestDumpAudioWritesDebugFile(t *testing.T) {
	stateDir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateDir)

	m := NewManager(Options{Microphone: &fakeMic{}, DumpAudio: true})
	h, _ := m.StartAudioCapture(context.Background())
	wav := m.StopAudioCapture(h)

	matches, err := filepath.Glob(filepath.Join(stateDir, "intervu", "debug", "audio-*.wav"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	require.Equal(t, wav, data)
}

func TestCommandSinkSubstitutesDeviceAndKillsOnUnbind(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "device.txt")
	script := filepath.Join(dir, "preview.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$1\" > \""+out+"\"\nexec sleep 30\n"), 0o755))

	sink := &CommandSink{Argv: []string{script, "{device}"}}
	require.NoError(t, sink.Bind(context.Background(), &fakeVideo{name: "/dev/video9"}))

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out)
		return err == nil && string(data) == "/dev/video9\n"
	}, 3*time.Second, 10*time.Millisecond)

	sink.Unbind()
	sink.Unbind()
}

func TestCommandSinkRejectsEmptyArgv(t *testing.T) {
	sink := &CommandSink{}
	require.ErrorContains(t, sink.Bind(context.Background(), &fakeVideo{}), "argv cannot be empty")
}

func TestCString(t *testing.T) {
	require.Equal(t, "uvcvideo", cString([]byte{'u', 'v', 'c', 'v', 'i', 'd', 'e', 'o', 0, 0}))
	require.Equal(t, "ab", cString([]byte{'a', 'b'}))
}
