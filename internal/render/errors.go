package render

import (
	"errors"
	"fmt"
)

// ErrorKind classifies render failures so the API layer can pick a status
// code without inspecting error text.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindExternalTool
	KindEncoding
)

// Error is the failure type every render operation returns. Message is safe
// to send to the client; Err keeps the wrapped cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification of err, defaulting to KindInternal for
// anything that is not a render.Error.
func KindOf(err error) ErrorKind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}
