// Package fsm implements the session state machine: Idle, Recording, and
// Transcribing, with a fixed set of legal transitions.
package fsm

import "fmt"

// State is one of the three session states.
type State string

// Event is a state-machine input.
type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventTranscribed Event = "transcribed"
)

// Transition returns the next state for (current, event), or an error if
// the transition is not legal. On error, current is returned unchanged.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		if event == EventStart {
			return StateRecording, nil
		}
		return current, invalidTransition(current, event)
	case StateRecording:
		if event == EventStop {
			return StateTranscribing, nil
		}
		return current, invalidTransition(current, event)
	case StateTranscribing:
		if event == EventTranscribed {
			return StateIdle, nil
		}
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
