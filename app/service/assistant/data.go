package assistant

import (
	"context"
	"errors"
)

// UnknownActionResult is reported to the model for actions outside the catalog.
const UnknownActionResult = "Sorry, I can't do that."

// ApologyText closes an exchange that failed on the model or in an action.
const ApologyText = "Sorry, I'm having trouble connecting. Please try again later."

var (
	ErrBusy      = errors.New("assistant is busy")
	ErrQueueFull = errors.New("assistant queue is full")
	ErrClosed    = errors.New("assistant is closed")
)

type State int32

const (
	StateIdle State = iota
	StateAwaitingFirstResponse
	StateExecutingAction
	StateAwaitingSecondResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstResponse:
		return "awaiting_first_response"
	case StateExecutingAction:
		return "executing_action"
	case StateAwaitingSecondResponse:
		return "awaiting_second_response"
	}

	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Outcome string

const (
	// OutcomeIgnored means the utterance was blank and nothing happened.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeReplied is a plain text answer after one round trip.
	OutcomeReplied Outcome = "replied"
	// OutcomeActionReplied is an answer after an action and a second round trip.
	OutcomeActionReplied Outcome = "action_replied"
	// OutcomeFailed means the exchange ended with the apology turn.
	OutcomeFailed Outcome = "failed"
)

// Exchange summarizes one utterance mediated to completion.
type Exchange struct {
	Outcome Outcome `json:"outcome"`
	Action  string  `json:"action,omitempty"`
	Result  string  `json:"result,omitempty"`
	Reply   string  `json:"reply,omitempty"`
}

// Job is a queued utterance waiting for the single dispatch worker.
type Job struct {
	ctx       context.Context
	utterance string
	reply     chan jobResult
}

type jobResult struct {
	exchange *Exchange
	err      error
}
