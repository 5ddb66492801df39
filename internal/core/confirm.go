package core

import (
	"errors"
	"fmt"
)

// ConfirmState is the state of a Confirmation.
type ConfirmState int

const (
	Idle ConfirmState = iota
	Confirming
	Confirmed
	Cancelled
)

func (s ConfirmState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Confirming:
		return "confirming"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("ConfirmState(%d)", int(s))
}

var (
	ErrInvalidTransition = errors.New("invalid confirmation transition")
	ErrNotConfirmed      = errors.New("action not confirmed")
)

// Decision is the outcome handed to a destructive operation.
type Decision struct {
	State  ConfirmState
	Prompt string
}

// Approved reports whether the action may proceed.
func (d Decision) Approved() bool { return d.State == Confirmed }

// Require returns ErrNotConfirmed unless the decision was confirmed.
func (d Decision) Require() error {
	if !d.Approved() {
		return fmt.Errorf("%w: %s", ErrNotConfirmed, d.State)
	}
	return nil
}

// Confirm builds an already confirmed decision, for callers that collected
// consent elsewhere (a --yes flag, for instance).
func Confirm(prompt string) Decision {
	return Decision{State: Confirmed, Prompt: prompt}
}

// Confirmation guards a destructive action:
//
//	Idle -Request-> Confirming -Confirm-> Confirmed
//	                           -Cancel--> Cancelled
//
// Reset returns to Idle from any state. It is not safe for concurrent use.
type Confirmation struct {
	state  ConfirmState
	prompt string
}

func (c *Confirmation) State() ConfirmState { return c.state }

func (c *Confirmation) Prompt() string { return c.prompt }

// Request asks for confirmation with the given prompt.
func (c *Confirmation) Request(prompt string) error {
	if c.state != Idle {
		return fmt.Errorf("%w: request from %s", ErrInvalidTransition, c.state)
	}
	c.state = Confirming
	c.prompt = prompt
	return nil
}

func (c *Confirmation) Confirm() error {
	if c.state != Confirming {
		return fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, c.state)
	}
	c.state = Confirmed
	return nil
}

func (c *Confirmation) Cancel() error {
	if c.state != Confirming {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, c.state)
	}
	c.state = Cancelled
	return nil
}

// Reset discards any pending or finished decision.
func (c *Confirmation) Reset() {
	c.state = Idle
	c.prompt = ""
}

// Result returns the decision. It is only approved once Confirm succeeded.
func (c *Confirmation) Result() Decision {
	return Decision{State: c.state, Prompt: c.prompt}
}
