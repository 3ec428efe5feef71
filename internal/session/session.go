// Package session runs the interview turn controller: question flow, recording, and hand-off to reporting.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/intervu/internal/capture"
	"github.com/rbright/intervu/internal/fsm"
	"github.com/rbright/intervu/internal/interview"
	"github.com/rbright/intervu/internal/ipc"
	"github.com/rbright/intervu/internal/report"
	"github.com/rbright/intervu/internal/speech"
)

type action int

const (
	actionStart action = iota + 1
	actionRetry
	actionRecord
	actionStop
	actionSubmit
	actionSkip
)

func (a action) String() string {
	switch a {
	case actionStart:
		return "start"
	case actionRetry:
		return "retry"
	case actionRecord:
		return "record"
	case actionStop:
		return "stop"
	case actionSubmit:
		return "submit"
	case actionSkip:
		return "skip"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// QuestionSource loads the question set for a candidate.
type QuestionSource interface {
	Questions(ctx context.Context, email string) (interview.Set, error)
}

// Transcriber converts one recorded answer (WAV) to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Reporter finalizes the transcript once every question is answered.
type Reporter interface {
	Finalize(ctx context.Context, t interview.Transcript) report.Outcome
}

// Capture is the device surface the controller drives.
type Capture interface {
	AcquireVideo(ctx context.Context) error
	StartAudioCapture(ctx context.Context) (capture.RecordingHandle, bool)
	StopAudioCapture(h capture.RecordingHandle) []byte
	ClearAudio()
	Release()
	State() capture.State
}

// Voice plays interviewer utterances; a new Play cancels the previous one.
type Voice interface {
	Play(ctx context.Context, lines ...string) *speech.Utterance
	Cancel()
}

// Cues plays the record start/stop tones.
type Cues interface {
	RecordStart(context.Context)
	RecordStop(context.Context)
}

// Observer receives every state change.
type Observer interface {
	Observe(Event)
}

// Event is one observable state change.
type Event struct {
	Session  string    `json:"session"`
	Type     string    `json:"type"`
	State    fsm.State `json:"state"`
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Question string    `json:"question,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

type noopCues struct{}

func (noopCues) RecordStart(context.Context) {}
func (noopCues) RecordStop(context.Context)  {}

type noopObserver struct{}

func (noopObserver) Observe(Event) {}

// Options wires the controller's collaborators. Nil optional fields fall back to no-ops.
type Options struct {
	Email       string
	JobID       string
	Logger      *slog.Logger
	Questions   QuestionSource
	Transcriber Transcriber
	Reporter    Reporter
	Capture     Capture
	Voice       Voice
	Cues        Cues
	Observer    Observer
	Now         func() time.Time
}

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	Session    string
	State      fsm.State
	Questions  int
	Responses  []interview.Response
	Outcome    report.Outcome
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

type eventKind int

const (
	eventSpoken eventKind = iota + 1
	eventTranscription
)

type loopEvent struct {
	kind eventKind
	id   uint64
	text string
	err  error
}

// Controller owns one interview session. Only Run mutates the session state.
type Controller struct {
	id          string
	email       string
	jobID       string
	logger      *slog.Logger
	source      QuestionSource
	transcriber Transcriber
	reporter    Reporter
	capture     Capture
	voice       Voice
	cues        Cues
	observer    Observer
	now         func() time.Time

	// loop-owned
	set           interview.Set
	state         SessionState
	utterance     uint64
	recording     capture.RecordingHandle
	transcription uint64

	mu       sync.RWMutex
	snapshot SessionState
	question string
	total    int

	queueMu sync.Mutex
	queued  action
	actions chan action
	events  chan loopEvent
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(opts Options) *Controller {
	c := &Controller{
		id:          uuid.NewString(),
		email:       strings.TrimSpace(opts.Email),
		jobID:       strings.TrimSpace(opts.JobID),
		logger:      opts.Logger,
		source:      opts.Questions,
		transcriber: opts.Transcriber,
		reporter:    opts.Reporter,
		capture:     opts.Capture,
		voice:       opts.Voice,
		cues:        opts.Cues,
		observer:    opts.Observer,
		now:         opts.Now,
		state:       NewState(),
		snapshot:    NewState(),
		actions:     make(chan action, 1),
		events:      make(chan loopEvent, 4),
	}
	if c.email == "" {
		c.email = interview.DefaultEmail
	}
	if c.reporter == nil {
		c.reporter = report.New(nil, nil, opts.Logger)
	}
	if c.capture == nil {
		c.capture = capture.NewManager(capture.Options{Logger: opts.Logger})
	}
	if c.voice == nil {
		c.voice = speech.NewVoice(speech.Silent{}, 0, opts.Logger)
	}
	if c.cues == nil {
		c.cues = noopCues{}
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// ID is the session identifier used for live events.
func (c *Controller) ID() string { return c.id }

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Phase
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Run executes one interview from question loading to completion or cancellation.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{Session: c.id, StartedAt: c.now()}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.capture.Release()
	defer c.voice.Cancel()

	finish := func(err error) Result {
		result.State = c.state.Phase
		result.Questions = len(c.set.Questions)
		result.Responses = c.state.Responses
		result.Err = err
		result.FinishedAt = c.now()
		return result
	}

	c.update("load", c.mustAdvance(Load(c.state)))

	set, err := c.loadQuestions(loopCtx)
	if err != nil {
		c.setError("Failed to load interview questions: " + err.Error())
		return finish(err)
	}
	c.set = set
	c.publishQuestion()

	c.acquireVideo(loopCtx)

	for {
		select {
		case <-ctx.Done():
			c.logInfo("session cancelled", "state", string(c.state.Phase))
			return finish(ctx.Err())
		case a := <-c.actions:
			c.dequeued()
			c.apply(loopCtx, a)
		case ev := <-c.events:
			c.onEvent(ev)
		}

		if c.state.Phase == fsm.StateFinishing {
			outcome, err := c.finalize(loopCtx)
			result.Outcome = outcome
			return finish(err)
		}
	}
}

func (c *Controller) loadQuestions(ctx context.Context) (interview.Set, error) {
	if c.source == nil {
		return interview.Set{}, errors.New("no question source configured")
	}
	set, err := c.source.Questions(ctx, c.email)
	if err != nil {
		return interview.Set{}, fmt.Errorf("load questions: %w", err)
	}
	if err := set.Validate(); err != nil {
		return interview.Set{}, fmt.Errorf("load questions: %w", err)
	}
	if len(set.Questions) == 0 {
		return interview.Set{}, ErrNoQuestions
	}
	c.logInfo("questions loaded", "email", c.email, "count", len(set.Questions), "position", set.Position)
	return set, nil
}

func (c *Controller) acquireVideo(ctx context.Context) {
	if err := c.capture.AcquireVideo(ctx); err != nil {
		msg := c.capture.State().LastError
		if msg == "" {
			msg = "Unable to access camera: " + err.Error()
		}
		c.setError(msg)
		return
	}
	c.setError("")
	c.emit("camera_ready", "")
}

func (c *Controller) apply(ctx context.Context, a action) {
	c.logDebug("action", "action", a.String(), "state", string(c.state.Phase))

	switch a {
	case actionRetry:
		if c.state.Phase != fsm.StateSetup {
			return
		}
		c.acquireVideo(ctx)
	case actionStart:
		next, err := Start(c.state, c.capture.State().CameraReady, c.set.Questions)
		if err != nil {
			c.reject(a, err)
			return
		}
		c.update("started", next)
		c.speak(ctx,
			welcomeLine(c.set.Candidate(), len(c.set.Questions)),
			questionLine(0, c.set.Questions[0]),
		)
	case actionRecord:
		next, err := BeginRecording(c.state)
		if err != nil {
			c.reject(a, err)
			return
		}
		c.capture.ClearAudio()
		h, ok := c.capture.StartAudioCapture(ctx)
		if !ok {
			failed, _ := CaptureFailed(next, microphoneErrorMessage)
			c.update("capture_failed", failed)
			return
		}
		c.recording = h
		c.update("recording", next)
		c.cues.RecordStart(ctx)
	case actionStop:
		next, err := EndRecording(c.state)
		if err != nil {
			c.reject(a, err)
			return
		}
		wav := c.capture.StopAudioCapture(c.recording)
		c.recording = 0
		c.cues.RecordStop(ctx)
		c.update("transcribing", next)
		c.transcribe(ctx, wav)
	case actionSubmit:
		next, err := Submit(c.state, c.set.Questions, c.now())
		if err != nil {
			if errors.Is(err, ErrEmptyTranscript) {
				c.setError(emptySubmitMessage)
			}
			c.reject(a, err)
			return
		}
		c.advance(ctx, "submitted", next, submitTransitionLine)
	case actionSkip:
		next, err := Skip(c.state, c.set.Questions, c.now())
		if err != nil {
			c.reject(a, err)
			return
		}
		c.advance(ctx, "skipped", next, skipTransitionLine)
	}
}

func (c *Controller) advance(ctx context.Context, eventType string, next SessionState, transition string) {
	c.capture.ClearAudio()
	c.update(eventType, next)
	if next.Phase == fsm.StateFinishing {
		return
	}
	c.speak(ctx, transition, questionLine(next.Index, c.set.Questions[next.Index]))
}

func (c *Controller) transcribe(ctx context.Context, wav []byte) {
	c.transcription++
	id := c.transcription

	if len(wav) == 0 || c.transcriber == nil {
		go c.deliver(ctx, loopEvent{kind: eventTranscription, id: id, err: errors.New("no audio captured")})
		return
	}

	go func() {
		text, err := c.transcriber.Transcribe(ctx, wav)
		c.deliver(ctx, loopEvent{kind: eventTranscription, id: id, text: text, err: err})
	}()
}

func (c *Controller) speak(ctx context.Context, lines ...string) {
	u := c.voice.Play(ctx, lines...)
	c.utterance = u.ID()
	go func() {
		<-u.Done()
		c.deliver(ctx, loopEvent{kind: eventSpoken, id: u.ID()})
	}()
}

// deliver hands an async completion to the loop, dropping it once the loop has exited.
func (c *Controller) deliver(ctx context.Context, ev loopEvent) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Controller) onEvent(ev loopEvent) {
	switch ev.kind {
	case eventSpoken:
		if ev.id != c.utterance || c.state.Phase != fsm.StateSpeaking {
			return
		}
		next, err := SpeechFinished(c.state)
		if err != nil {
			return
		}
		c.update("spoken", next)
	case eventTranscription:
		if ev.id != c.transcription || c.state.Phase != fsm.StateTranscribing {
			return
		}
		if ev.err != nil {
			c.logWarn("transcription failed", "question", c.state.Index, "error", ev.err.Error())
			next, _ := TranscriptionFailed(c.state, transcribeErrorMessage)
			c.update("transcription_failed", next)
			return
		}
		next, _ := Transcribed(c.state, strings.TrimSpace(ev.text))
		c.update("transcribed", next)
	}
}

func (c *Controller) finalize(ctx context.Context) (report.Outcome, error) {
	if err := c.say(ctx, closingLine); err != nil {
		return report.Outcome{}, err
	}

	outcome := c.reporter.Finalize(ctx, c.transcript())

	line := degradedLine
	if outcome.Scored {
		line = scoredLine
	}
	if err := c.say(ctx, line); err != nil {
		return outcome, err
	}

	next, err := Complete(c.state, c.set.Questions)
	if err != nil {
		return outcome, err
	}
	c.update("completed", next)
	return outcome, nil
}

// say plays lines and blocks until they finish.
func (c *Controller) say(ctx context.Context, lines ...string) error {
	u := c.voice.Play(ctx, lines...)
	c.utterance = u.ID()
	if err := u.Wait(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Controller) transcript() interview.Transcript {
	return interview.Transcript{
		Email:     c.email,
		JobID:     c.jobID,
		Candidate: c.set.Candidate(),
		Questions: c.set.Questions,
		Responses: c.state.Responses,
	}
}

func (c *Controller) reject(a action, err error) {
	c.logInfo("action rejected", "action", a.String(), "state", string(c.state.Phase), "error", err.Error())
	if errors.Is(err, ErrCameraNotReady) {
		c.setError(cameraNotReadyMessage)
	}
}

func (c *Controller) mustAdvance(next SessionState, err error) SessionState {
	if err != nil {
		c.logWarn("unexpected transition failure", "error", err.Error())
	}
	return next
}

func (c *Controller) setError(message string) {
	if c.state.Error == message {
		return
	}
	c.state.Error = message
	c.update("error", c.state)
}

func (c *Controller) update(eventType string, next SessionState) {
	c.state = next

	question := ""
	if len(c.set.Questions) > 0 && next.Index < len(c.set.Questions) {
		question = c.set.Questions[next.Index].Text
	}

	c.mu.Lock()
	c.snapshot = next
	c.question = question
	c.total = len(c.set.Questions)
	c.mu.Unlock()

	c.emit(eventType, next.Error)
}

func (c *Controller) publishQuestion() {
	c.update("questions_loaded", c.state)
}

func (c *Controller) emit(eventType string, message string) {
	c.mu.RLock()
	ev := Event{
		Session:  c.id,
		Type:     eventType,
		State:    c.snapshot.Phase,
		Index:    c.snapshot.Index,
		Total:    c.total,
		Question: c.question,
		Message:  message,
		At:       c.now(),
	}
	c.mu.RUnlock()
	c.observer.Observe(ev)
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.status()
	case "start":
		if c.State() == fsm.StateSetup && !c.capture.State().CameraReady {
			return c.response(false, "", "cannot start: "+ErrCameraNotReady.Error())
		}
		return c.request(actionStart, "start", fsm.EventStart)
	case "retry":
		state := c.State()
		if state != fsm.StateSetup {
			return c.response(false, "", fmt.Sprintf("cannot retry from state %s", state))
		}
		return c.enqueue(actionRetry, "retry")
	case "record":
		return c.request(actionRecord, "record", fsm.EventRecord)
	case "stop":
		return c.request(actionStop, "stop", fsm.EventStop)
	case "submit":
		return c.request(actionSubmit, "submit", fsm.EventSubmit)
	case "skip":
		return c.request(actionSkip, "skip", fsm.EventSkip)
	case "toggle":
		switch c.State() {
		case fsm.StateAwaitingRecording:
			return c.request(actionRecord, "toggle", fsm.EventRecord)
		case fsm.StateRecording:
			return c.request(actionStop, "toggle", fsm.EventStop)
		case fsm.StateAwaitingSubmit:
			return c.request(actionSubmit, "toggle", fsm.EventSubmit)
		default:
			return c.request(actionRecord, "toggle", fsm.EventRecord)
		}
	default:
		return c.response(false, "", fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// request enqueues a when the current state accepts event.
func (c *Controller) request(a action, source string, event fsm.Event) ipc.Response {
	state := c.State()
	if state == fsm.StateTranscribing && (a == actionRecord || a == actionStop) {
		return c.response(false, "", "already transcribing")
	}
	if _, err := fsm.Transition(state, event); err != nil {
		return c.response(false, "", fmt.Sprintf("cannot %s from state %s", source, state))
	}
	return c.enqueue(a, a.String())
}

// enqueue holds at most one pending action. A repeat of it is acknowledged; anything else is refused.
func (c *Controller) enqueue(a action, name string) ipc.Response {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	select {
	case c.actions <- a:
		c.queued = a
		return c.response(true, name+" requested", "")
	default:
	}
	if c.queued == a {
		return c.response(true, name+" already requested", "")
	}
	return c.response(false, "", fmt.Sprintf("busy: %s still pending", c.queued))
}

func (c *Controller) dequeued() {
	c.queueMu.Lock()
	c.queued = 0
	c.queueMu.Unlock()
}

func (c *Controller) status() ipc.Response {
	resp := c.response(true, "status", "")
	c.mu.RLock()
	if resp.Message == "status" && c.snapshot.Error != "" {
		resp.Message = c.snapshot.Error
	}
	c.mu.RUnlock()
	return resp
}

func (c *Controller) response(ok bool, message string, errText string) ipc.Response {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp := ipc.Response{
		OK:         ok,
		State:      string(c.snapshot.Phase),
		Message:    message,
		Error:      errText,
		Session:    c.id,
		Transcript: c.snapshot.Transcript,
	}
	if c.total > 0 && c.snapshot.Started {
		resp.Question = c.question
		resp.Progress = fmt.Sprintf("%d/%d", c.snapshot.Index+1, c.total)
	}
	return resp
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
