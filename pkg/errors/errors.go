package errors

import (
	"errors"
	"fmt"
)

// Error represents a typed call-outcome error. Terminal errors end the call
// through a single announce-and-hangup exit; TextKey names the catalog entry
// spoken to the caller before hanging up.
type Error struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	TextKey  string `json:"-"`
	Terminal bool   `json:"-"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Terminal creates an Error that ends the call, announcing the given text key.
func Terminal(code string, message string, textKey string) *Error {
	return &Error{Code: code, Message: message, TextKey: textKey, Terminal: true}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WrapAs attaches a cause to one of the predefined errors, keeping its
// terminal behaviour and the caller-facing text key.
func WrapAs(base *Error, err error, message string) *Error {
	if message == "" {
		message = base.Message
	}
	return &Error{
		Code:     base.Code,
		Message:  message,
		TextKey:  base.TextKey,
		Terminal: base.Terminal,
		Err:      err,
	}
}

// Predefined errors covering the call failure taxonomy.
var (
	// Identification failures: no retry, the call ends.
	ErrCallerNotFound = Terminal("CALLER_NOT_FOUND", "caller not found", "IDENTIFY.NOT_FOUND")
	ErrNoActiveClass  = Terminal("NO_ACTIVE_CLASS", "representative has no active class", "IDENTIFY.NO_ACTIVE_CLASS")

	// Input failures: retried locally, terminal once attempts run out.
	ErrInvalidInput = New("INVALID_INPUT", "input did not match grammar")
	ErrMaxAttempts  = Terminal("MAX_ATTEMPTS", "input attempts exhausted", "GENERAL.MAX_ATTEMPTS")

	// Call-control failures: the caller is already gone, nothing to announce.
	ErrHangup  = New("HANGUP", "caller hung up")
	ErrTimeout = New("TIMEOUT", "voice gateway timed out waiting for input")

	// Catalog and storage failures.
	ErrNoData      = Terminal("NO_DATA", "required catalog is empty", "GENERAL.NO_DATA")
	ErrPersistence = Terminal("PERSISTENCE", "storage transaction failed", "GENERAL.SAVE_FAILED")
	ErrInternal    = Terminal("INTERNAL", "internal error", "GENERAL.SAVE_FAILED")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:     ErrInternal.Code,
		Message:  ErrInternal.Message,
		TextKey:  ErrInternal.TextKey,
		Terminal: true,
		Err:      err,
	}
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsHangup reports whether err represents a dropped call (hangup or gateway
// timeout), where no farewell can be played.
func IsHangup(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == ErrHangup.Code || e.Code == ErrTimeout.Code
}
