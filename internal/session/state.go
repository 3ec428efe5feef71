package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rbright/intervu/internal/fsm"
	"github.com/rbright/intervu/internal/interview"
)

var (
	// ErrCameraNotReady rejects start until the camera is acquired.
	ErrCameraNotReady = errors.New("camera is not ready")
	// ErrNoQuestions rejects start when the question bank is empty.
	ErrNoQuestions = errors.New("no interview questions found")
	// ErrEmptyTranscript rejects submit without a usable answer.
	ErrEmptyTranscript = errors.New("no response recorded for this question")
	// ErrAlreadyAnswered guards against appending two responses for one question.
	ErrAlreadyAnswered = errors.New("question already answered")
)

// SessionState is the turn controller's data. Transition functions never mutate their input.
type SessionState struct {
	Phase      fsm.State
	Index      int
	Responses  []interview.Response
	Transcript string
	Started    bool
	Completed  bool
	SpeechDone bool
	Error      string
}

// NewState returns the idle state.
func NewState() SessionState {
	return SessionState{Phase: fsm.StateIdle}
}

func (s SessionState) apply(event fsm.Event) (SessionState, error) {
	next, err := fsm.Transition(s.Phase, event)
	if err != nil {
		return s, err
	}
	s.Phase = next
	return s, nil
}

// Load enters setup.
func Load(s SessionState) (SessionState, error) {
	return s.apply(fsm.EventLoad)
}

// Start begins the interview at the first question.
func Start(s SessionState, cameraReady bool, questions []interview.Question) (SessionState, error) {
	if _, err := fsm.Transition(s.Phase, fsm.EventStart); err != nil {
		return s, err
	}
	if !cameraReady {
		return s, ErrCameraNotReady
	}
	if len(questions) == 0 {
		return s, ErrNoQuestions
	}
	next, _ := s.apply(fsm.EventStart)
	next.Index = 0
	next.Started = true
	next.SpeechDone = false
	next.Transcript = ""
	next.Error = ""
	return next, nil
}

// SpeechFinished marks the current question as spoken.
func SpeechFinished(s SessionState) (SessionState, error) {
	next, err := s.apply(fsm.EventSpoken)
	if err != nil {
		return s, err
	}
	next.SpeechDone = true
	return next, nil
}

// BeginRecording discards any previous transcript for the current question.
func BeginRecording(s SessionState) (SessionState, error) {
	next, err := s.apply(fsm.EventRecord)
	if err != nil {
		return s, err
	}
	next.Transcript = ""
	next.Error = ""
	return next, nil
}

// CaptureFailed returns to awaiting_recording with a user-visible reason.
func CaptureFailed(s SessionState, message string) (SessionState, error) {
	next, err := s.apply(fsm.EventCaptureFailed)
	if err != nil {
		return s, err
	}
	next.Error = message
	return next, nil
}

// EndRecording moves to transcribing.
func EndRecording(s SessionState) (SessionState, error) {
	return s.apply(fsm.EventStop)
}

// Transcribed stores the recognized answer text.
func Transcribed(s SessionState, text string) (SessionState, error) {
	next, err := s.apply(fsm.EventTranscribed)
	if err != nil {
		return s, err
	}
	next.Transcript = text
	next.Error = ""
	return next, nil
}

// TranscriptionFailed returns to awaiting_recording so the answer can be re-recorded.
func TranscriptionFailed(s SessionState, message string) (SessionState, error) {
	next, err := s.apply(fsm.EventTranscribeFailed)
	if err != nil {
		return s, err
	}
	next.Transcript = ""
	next.Error = message
	return next, nil
}

// Submit records the transcript as the current answer and advances.
func Submit(s SessionState, questions []interview.Question, now time.Time) (SessionState, error) {
	if _, err := fsm.Transition(s.Phase, fsm.EventSubmit); err != nil {
		return s, err
	}
	answer := strings.TrimSpace(s.Transcript)
	if answer == "" {
		return s, ErrEmptyTranscript
	}
	return record(s, questions, answer, false, now, fsm.EventSubmit, fsm.EventSubmitFinal)
}

// Skip records whatever was transcribed, or the skipped marker, and advances.
func Skip(s SessionState, questions []interview.Question, now time.Time) (SessionState, error) {
	if _, err := fsm.Transition(s.Phase, fsm.EventSkip); err != nil {
		return s, err
	}
	answer := strings.TrimSpace(s.Transcript)
	if answer == "" {
		answer = interview.SkippedAnswer
	}
	return record(s, questions, answer, true, now, fsm.EventSkip, fsm.EventSkipFinal)
}

func record(
	s SessionState,
	questions []interview.Question,
	answer string,
	skipped bool,
	now time.Time,
	advance fsm.Event,
	final fsm.Event,
) (SessionState, error) {
	if s.Index < 0 || s.Index >= len(questions) {
		return s, fmt.Errorf("question index %d out of range [0,%d)", s.Index, len(questions))
	}
	if len(s.Responses) != s.Index {
		return s, ErrAlreadyAnswered
	}

	q := questions[s.Index]
	next := s
	next.Responses = append(slices.Clone(s.Responses), interview.Response{
		QuestionID: q.ID,
		Question:   q.Text,
		Answer:     answer,
		Timestamp:  now,
		Skipped:    skipped,
	})
	next.Transcript = ""
	next.Error = ""

	if s.Index < len(questions)-1 {
		next, _ = next.apply(advance)
		next.Index++
		next.SpeechDone = false
		return next, nil
	}
	next, _ = next.apply(final)
	return next, nil
}

// Complete ends the session once every question has a response.
func Complete(s SessionState, questions []interview.Question) (SessionState, error) {
	if len(s.Responses) != len(questions) {
		return s, fmt.Errorf("cannot complete with %d responses for %d questions", len(s.Responses), len(questions))
	}
	next, err := s.apply(fsm.EventComplete)
	if err != nil {
		return s, err
	}
	next.Completed = true
	return next, nil
}
