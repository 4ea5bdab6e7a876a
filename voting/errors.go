// Copyright (c) 2025 The PicPoll Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrPermission  = errors.New("permission denied")
	ErrUnavailable = errors.New("storage unavailable")
	ErrNotFound    = errors.New("not found")
)

// Error carries a kind, a message safe to show to the client, and the
// underlying cause (which is only logged).
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func unavailable(msg string, err error) error {
	return &Error{Kind: ErrUnavailable, Msg: msg, Err: err}
}

// Validationf builds a validation error for transport-level parse failures
// so that they are reported exactly like service-level ones.
func Validationf(format string, args ...any) error {
	return validationf(format, args...)
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
