package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies ledger failures so callers can map them to responses.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindUnbalanced  Kind = "unbalanced_entry"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindConcurrency Kind = "concurrency"
)

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrValidation  = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrUnbalanced  = &Error{Kind: KindUnbalanced, Message: "journal entry does not balance"}
	ErrConflict    = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNotFound    = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConcurrency = &Error{Kind: KindConcurrency, Message: "concurrent modification, retry"}
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	ID      string `json:"id,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field) && (t.ID == "" || t.ID == e.ID)
}

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Unbalanced(debit, credit fmt.Stringer) *Error {
	return &Error{
		Kind:    KindUnbalanced,
		Field:   "lines",
		Message: fmt.Sprintf("total debit %s does not equal total credit %s", debit, credit),
	}
}

func Conflict(id, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, ID: id, Message: fmt.Sprintf(format, args...)}
}

func NotFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, ID: id, Message: what + " not found"}
}

func Concurrency(scope string, err error) *Error {
	return &Error{Kind: KindConcurrency, ID: scope, Message: "allocation raced with another writer", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
