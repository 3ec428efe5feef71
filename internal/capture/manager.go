// Package capture owns the camera and microphone for one interview session.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbright/intervu/internal/audio"
)

// VideoStream is an opened camera.
type VideoStream interface {
	Device() string
	Close() error
}

// Camera opens the configured video device.
type Camera interface {
	Open(ctx context.Context) (VideoStream, error)
}

// Sink displays a bound video stream.
type Sink interface {
	Bind(ctx context.Context, stream VideoStream) error
	Unbind()
}

// AudioStream is an in-progress microphone recording.
type AudioStream interface {
	Device() string
	// Stop releases the device and returns the raw s16 mono PCM captured so far.
	Stop() []byte
}

// Microphone starts recordings on the selected input.
type Microphone interface {
	Start(ctx context.Context) (AudioStream, error)
}

// RecordingHandle identifies one StartAudioCapture call. Zero is never issued.
type RecordingHandle uint64

// State is a snapshot of capture readiness.
type State struct {
	CameraReady  bool
	Recording    bool
	LastAudio    []byte
	LastError    string
	CameraDevice string
	AudioDevice  string
}

// Options configures a Manager.
type Options struct {
	Camera     Camera
	Sink       Sink
	Microphone Microphone
	Logger     *slog.Logger
	// DumpAudio writes every finished recording under the debug state dir.
	DumpAudio bool
}

// Manager serializes device access. All methods are safe for concurrent use.
type Manager struct {
	camera    Camera
	sink      Sink
	mic       Microphone
	logger    *slog.Logger
	dumpAudio bool

	mu          sync.Mutex
	video       VideoStream
	recording   AudioStream
	stopCapture context.CancelFunc
	handle      RecordingHandle
	nextHandle  RecordingHandle
	state       State
}

// NewManager constructs a Manager. A nil Sink binds nothing.
func NewManager(opts Options) *Manager {
	sink := opts.Sink
	if sink == nil {
		sink = NoopSink{}
	}
	return &Manager{
		camera:    opts.Camera,
		sink:      sink,
		mic:       opts.Microphone,
		logger:    opts.Logger,
		dumpAudio: opts.DumpAudio,
	}
}

// AcquireVideo opens the camera and binds it to the sink, replacing any bound stream.
func (m *Manager) AcquireVideo(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseVideoLocked()

	if m.camera == nil {
		return m.videoFailedLocked(fmt.Errorf("no camera configured"))
	}
	stream, err := m.camera.Open(ctx)
	if err != nil {
		return m.videoFailedLocked(err)
	}
	if err := m.sink.Bind(ctx, stream); err != nil {
		_ = stream.Close()
		return m.videoFailedLocked(fmt.Errorf("bind camera preview: %w", err))
	}

	m.video = stream
	m.state.CameraReady = true
	m.state.CameraDevice = stream.Device()
	m.state.LastError = ""
	m.logInfo("camera acquired", "device", stream.Device())
	return nil
}

func (m *Manager) videoFailedLocked(err error) error {
	m.state.CameraReady = false
	m.state.LastError = "Unable to access camera: " + err.Error()
	m.logWarn("camera acquisition failed", "error", err.Error())
	return err
}

// StartAudioCapture begins buffering microphone PCM. It reports false on failure.
func (m *Manager) StartAudioCapture(ctx context.Context) (RecordingHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.discardRecordingLocked()
	m.state.LastAudio = nil

	if m.mic == nil {
		m.state.LastError = "Unable to access microphone: no microphone configured"
		return 0, false
	}

	// The recording outlives the caller's request; only Stop or Release ends it.
	captureCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := m.mic.Start(captureCtx)
	if err != nil {
		cancel()
		m.state.LastError = "Unable to access microphone: " + err.Error()
		m.logWarn("microphone start failed", "error", err.Error())
		return 0, false
	}

	m.nextHandle++
	m.handle = m.nextHandle
	m.recording = stream
	m.stopCapture = cancel
	m.state.Recording = true
	m.state.AudioDevice = stream.Device()
	m.state.LastError = ""
	return m.handle, true
}

// StopAudioCapture finalizes the recording for h into a WAV blob.
// A stale handle or an idle microphone returns nil.
func (m *Manager) StopAudioCapture(h RecordingHandle) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h == 0 || h != m.handle || m.recording == nil {
		return nil
	}

	pcm := m.recording.Stop()
	m.stopCapture()
	m.recording = nil
	m.stopCapture = nil
	m.handle = 0
	m.state.Recording = false

	wav := audio.EncodeWAV(pcm, audio.SampleRate, 1)
	m.state.LastAudio = wav
	if m.dumpAudio {
		if path, err := writeDebugAudio(wav); err != nil {
			m.logWarn("unable to write debug audio dump", "error", err.Error())
		} else {
			m.logInfo("debug audio dump written", "path", path)
		}
	}
	return wav
}

// ClearAudio drops the last finished recording.
func (m *Manager) ClearAudio() {
	m.mu.Lock()
	m.state.LastAudio = nil
	m.mu.Unlock()
}

// Release stops every device. Safe to call repeatedly.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.discardRecordingLocked()
	m.releaseVideoLocked()
}

// State returns a snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state
	snapshot.LastAudio = append([]byte(nil), m.state.LastAudio...)
	return snapshot
}

func (m *Manager) discardRecordingLocked() {
	if m.recording == nil {
		return
	}
	_ = m.recording.Stop()
	m.stopCapture()
	m.recording = nil
	m.stopCapture = nil
	m.handle = 0
	m.state.Recording = false
}

func (m *Manager) releaseVideoLocked() {
	if m.video == nil {
		return
	}
	m.sink.Unbind()
	if err := m.video.Close(); err != nil {
		m.logWarn("camera close failed", "error", err.Error())
	}
	m.video = nil
	m.state.CameraReady = false
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
