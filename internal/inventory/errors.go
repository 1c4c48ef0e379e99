package inventory

import (
	"errors"
	"fmt"
)

// Kind classifies inventory failures so callers can map them to responses.
type Kind string

// Error kinds.
const (
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation_failure"
	KindInsufficientQuantity   Kind = "insufficient_quantity"
	KindMissingReturnDate      Kind = "missing_return_date"
	KindTerminalState          Kind = "terminal_state_violation"
	KindInvalidTransition      Kind = "invalid_transition"
	KindInvalidTransactionType Kind = "invalid_transaction_type"
	KindConflict               Kind = "conflict"
)

// Error is a domain failure with a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for errors carrying a specific message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrInsufficientQuantity   = &Error{Kind: KindInsufficientQuantity}
	ErrMissingReturnDate      = &Error{Kind: KindMissingReturnDate}
	ErrTerminalState          = &Error{Kind: KindTerminalState}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrInvalidTransactionType = &Error{Kind: KindInvalidTransactionType}
	ErrConflict               = &Error{Kind: KindConflict}
)

func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an inventory error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
