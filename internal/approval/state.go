package approval

import (
	"errors"
	"fmt"
	"slices"

	"github.com/AlexZinkM/wallet-guard/internal/model"
)

// ErrIllegalTransition is returned when a flow is asked to move along an edge
// that is not in the transition table.
var ErrIllegalTransition = errors.New("illegal approval transition")

// State is a step of the approval workflow.
type State int

const (
	Requested State = iota
	ContextOpened
	AwaitingConsent
	AwaitingPassword
	PasswordInvalidRetry
	Rejected
	KeyExtracted
	ExtractionFailed
)

var stateNames = map[State]string{
	Requested:            "requested",
	ContextOpened:        "context_opened",
	AwaitingConsent:      "awaiting_consent",
	AwaitingPassword:     "awaiting_password",
	PasswordInvalidRetry: "password_invalid_retry",
	Rejected:             "rejected",
	KeyExtracted:         "key_extracted",
	ExtractionFailed:     "extraction_failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

var transitions = map[State][]State{
	Requested:            {ContextOpened, Rejected},
	ContextOpened:        {AwaitingConsent, Rejected},
	AwaitingConsent:      {AwaitingPassword, Rejected},
	AwaitingPassword:     {Rejected, PasswordInvalidRetry, KeyExtracted, ExtractionFailed},
	PasswordInvalidRetry: {AwaitingPassword},
}

// Flow is one run of the workflow. It records every state it went through
// and never holds key material.
type Flow struct {
	Request model.ApprovalRequest

	state   State
	trace   []State
	prompts int
}

func newFlow(req model.ApprovalRequest) *Flow {
	return &Flow{
		Request: req,
		state:   Requested,
		trace:   []State{Requested},
	}
}

// State returns the current state.
func (f *Flow) State() State {
	return f.state
}

// Trace returns the visited states in order, starting with Requested.
func (f *Flow) Trace() []State {
	return slices.Clone(f.trace)
}

// Prompts returns how many times a password was asked for.
func (f *Flow) Prompts() int {
	return f.prompts
}

func (f *Flow) transition(to State) error {
	if !slices.Contains(transitions[f.state], to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, f.state, to)
	}
	f.state = to
	f.trace = append(f.trace, to)
	return nil
}
