package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrTransferInFlight is returned when a transfer is already pending for the flow
	ErrTransferInFlight  = errors.New("transfer already in flight")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotConnected      = errors.New("wallet is not connected")
)

// TransitionError reports an action that is not allowed from the current step
type TransitionError struct {
	Action string
	From   Step
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from %s step", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError is an inline input error on the amount step
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation fields
const (
	FieldAmount  = "amount"
	FieldMessage = "message"
)
