// Package fsm defines the interview turn-taking state table.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle              State = "idle"
	StateSetup             State = "setup"
	StateSpeaking          State = "speaking"
	StateAwaitingRecording State = "awaiting_recording"
	StateRecording         State = "recording"
	StateTranscribing      State = "transcribing"
	StateAwaitingSubmit    State = "awaiting_submit"
	StateFinishing         State = "finishing"
	StateCompleted         State = "completed"
)

const (
	EventLoad             Event = "load"
	EventStart            Event = "start"
	EventSpoken           Event = "spoken"
	EventRecord           Event = "record"
	EventStop             Event = "stop"
	EventCaptureFailed    Event = "capture_failed"
	EventTranscribed      Event = "transcribed"
	EventTranscribeFailed Event = "transcribe_failed"
	EventSubmit           Event = "submit"
	EventSubmitFinal      Event = "submit_final"
	EventSkip             Event = "skip"
	EventSkipFinal        Event = "skip_final"
	EventComplete         Event = "complete"
)

// Transition returns the state reached by applying event to current.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventLoad:
			return StateSetup, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSetup:
		switch event {
		case EventStart:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSpeaking:
		switch event {
		case EventSpoken:
			return StateAwaitingRecording, nil
		case EventSkip:
			return StateSpeaking, nil
		case EventSkipFinal:
			return StateFinishing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingRecording:
		switch event {
		case EventRecord:
			return StateRecording, nil
		case EventSkip:
			return StateSpeaking, nil
		case EventSkipFinal:
			return StateFinishing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateTranscribing, nil
		case EventCaptureFailed:
			return StateAwaitingRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribing:
		switch event {
		case EventTranscribed:
			return StateAwaitingSubmit, nil
		case EventTranscribeFailed:
			return StateAwaitingRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingSubmit:
		switch event {
		case EventRecord:
			return StateRecording, nil
		case EventSubmit, EventSkip:
			return StateSpeaking, nil
		case EventSubmitFinal, EventSkipFinal:
			return StateFinishing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFinishing:
		switch event {
		case EventComplete:
			return StateCompleted, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCompleted:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Terminal reports whether no further events are accepted from state.
func Terminal(state State) bool {
	return state == StateCompleted
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
