package api

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	// ErrUnauthenticated means no credential, or the server rejected it.
	// Callers must invalidate the local session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials means the login was rejected
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidInput means the request was rejected before any network call
	ErrInvalidInput = errors.New("invalid input")
	// ErrUploadRejected means the server refused or failed to process an upload
	ErrUploadRejected = errors.New("upload rejected")
	// ErrUnreachable covers transport failures and unexpected responses
	ErrUnreachable = errors.New("server unreachable")
)

// Error describes a failed gateway operation
type Error struct {
	Op      string // "login", "history", "upload", "report"
	Kind    error  // one of the Err* kinds above
	Status  int    // HTTP status, 0 when no response was received
	Message string // server-provided detail, if any
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(op string, kind error, status int, message string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Status: status, Message: message, Err: cause}
}

// IsUnauthenticated reports whether err requires the session to be dropped
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
