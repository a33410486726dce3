package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a conversation ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrDialogNotFound is returned when a dialog id is not registered.
var ErrDialogNotFound = errors.New("dialog not found")

// ErrStackOverflow is returned when pushing a frame would exceed the maximum stack depth.
var ErrStackOverflow = errors.New("dialog stack overflow")

// ErrInvalidDefinition is returned when a dialog definition cannot be registered.
var ErrInvalidDefinition = errors.New("invalid dialog definition")

// ErrInvalidTurn is returned for malformed inbound activities.
var ErrInvalidTurn = errors.New("invalid turn")

// ErrStepLimit is returned when a single turn runs too many steps, usually a replace loop.
var ErrStepLimit = errors.New("step limit exceeded")

// StepError wraps a failure raised by a dialog step.
type StepError struct {
	DialogID  string
	StepIndex int
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("dialog %s step %d: %v", e.DialogID, e.StepIndex, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
