// Package errors carries the coded errors shared by the dump pipeline, the
// CLI and the HTTP API. Every failure that crosses a package boundary gets a
// Code so callers can branch on what went wrong without parsing message text:
// the writer distinguishes a missing asset file (ASSET_NOT_FOUND, aborts the
// dump) from a missing class inside a found file (recovered, field skipped),
// and the API maps codes onto HTTP status classes.
//
// Construct with New or Wrap, test with Is, and surface messages to users via
// UserMessage, which drops the code prefix:
//
//	if err := store.Load(ctx, fileID); err != nil {
//	    return errors.Wrap(errors.ErrCodeAssetNotFound, err, "load file %d", fileID)
//	}
//
//	if errors.Is(err, errors.ErrCodeAssetNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure category. Codes appear verbatim in log output
// and API error payloads.
type Code string

const (
	// Rejected input: bad flags, malformed profiles, unknown formats.
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidProfile Code = "INVALID_PROFILE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Lookups that came up empty.
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeAssetNotFound    Code = "ASSET_NOT_FOUND"
	ErrCodeUnknownReference Code = "UNKNOWN_REFERENCE"

	// Graph traversal failures.
	ErrCodeInvalidPointer   Code = "INVALID_POINTER"
	ErrCodeMaxDepthExceeded Code = "MAX_DEPTH_EXCEEDED"

	// Everything that should not happen.
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a code with a formatted message and, when wrapping, the
// underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to the errors.Is/As machinery.
func (e *Error) Unwrap() error { return e.Cause }

// New builds a coded error with a Printf-style message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates cause with a code and message. The cause stays reachable
// through Unwrap, so stdlib errors.Is still finds it.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// find walks err's chain and returns the first *Error, or nil.
func find(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Is reports whether the first coded error in err's chain carries code.
// Plain errors never match.
func Is(err error, code Code) bool {
	if e := find(err); e != nil {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first coded error in err's chain, or the
// empty string for plain errors.
func GetCode(err error) Code {
	if e := find(err); e != nil {
		return e.Code
	}
	return ""
}

// UserMessage returns the message to show a person: the coded message without
// its code prefix, or err.Error() for plain errors.
func UserMessage(err error) string {
	if e := find(err); e != nil {
		return e.Message
	}
	return err.Error()
}
