package engine

import "errors"

// Validation errors: reported to the actor, state unchanged, retry unlimited.
var (
	ErrInvalidDate = errors.New("invalid date")
	ErrEmptyInput  = errors.New("empty input")
)

// Reference errors: reported generically, state unchanged.
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrStaleAction      = errors.New("action no longer applies")
	ErrNoActiveSession  = errors.New("no active session")
	ErrSessionActive    = errors.New("session already active")
	ErrBirthdayUnknown  = errors.New("participant has no birthday")
)

// Flow outcomes surfaced as errors so callers can branch with errors.Is.
var (
	ErrUnexpectedInput = errors.New("no input expected in current state")
	ErrAllContributed  = errors.New("every participant has contributed")
)

// ErrNoDocument is returned by a Store when nothing has been persisted yet.
var ErrNoDocument = errors.New("document not found")
