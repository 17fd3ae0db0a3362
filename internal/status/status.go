// Package status defines the closed set of result codes the runtime's
// foreign-function boundary returns, and the structured error type that
// carries one of them across internal package boundaries.
package status

import (
	"errors"
	"fmt"
)

// Code is one of the closed status codes from spec §6/§7. Every entry point
// exposed across the FFI boundary returns one of these.
type Code string

const (
	Ok              Code = "Ok"
	NullPointer     Code = "NullPointer"
	InvalidArgument Code = "InvalidArgument"
	LengthMismatch  Code = "LengthMismatch"
	InvalidUtf8     Code = "InvalidUtf8"
	RuntimeError    Code = "RuntimeError"
	Cancelled       Code = "Cancelled"
	NotFound        Code = "NotFound"
)

// Error is a structured error carrying an operation name, a status code, a
// human message, and an optional wrapped cause. Modeled on the per-op
// structured error used by the io_uring-backed sibling in this corpus
// (ehrlich-b-go-ublk/errors.go): Op/Code/Msg/Inner with Unwrap/Is support,
// adapted here to the closed status-code taxonomy instead of errno mapping.
type Error struct {
	Op    string
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		if e.Op == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	if e.Op == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is against another *Error, compared by Code. To test
// an error against a bare Code value, use the package-level Is.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// New builds a structured error for op, tagged with code.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// Wrap attaches op/code context to an existing error, preserving it as the
// cause so errors.Unwrap / errors.As keep working.
func Wrap(op string, code Code, inner error) *Error {
	if inner == nil {
		return nil
	}
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

// CodeOf extracts the status code from err, defaulting to RuntimeError for
// any error that isn't one of ours — callers at the FFI boundary must always
// have a code to return.
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return RuntimeError
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
