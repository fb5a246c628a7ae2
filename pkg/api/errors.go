package api

import "errors"

// Errors that can be returned by the host. Callers should compare with
// errors.Is, since they are usually wrapped with the offending label.
var (
	// ErrNotConfigured means that the label has not been assigned yet: either
	// the configuration request is still queued, or it was never sent.
	ErrNotConfigured = errors.New("widget not configured")
	// ErrTypeMismatch means that the physical widget lacks a capability the
	// call needs.
	ErrTypeMismatch = errors.New("widget type mismatch")
	// ErrNoWidget means that the toolkit has no physical widget with the
	// given name.
	ErrNoWidget = errors.New("no such physical widget")
	// ErrDuplicate means that the label is already assigned.
	ErrDuplicate = errors.New("label already assigned")
	// ErrInvalidParams means that the request could not be decoded.
	ErrInvalidParams = errors.New("invalid params")
	// ErrStopped means that the host is shutting down and no longer serves
	// requests.
	ErrStopped = errors.New("render host stopped")
)

// Error codes for the errors above, in the range reserved by JSON-RPC for
// implementation-defined server errors.
const (
	CodeNotConfigured int64 = -32001
	CodeTypeMismatch  int64 = -32002
	CodeNoWidget      int64 = -32003
	CodeDuplicate     int64 = -32004
	CodeStopped       int64 = -32005
	// Same as the standard JSON-RPC code.
	CodeInvalidParams int64 = -32602
)

var codes = []struct {
	err  error
	code int64
}{
	{ErrNotConfigured, CodeNotConfigured},
	{ErrTypeMismatch, CodeTypeMismatch},
	{ErrNoWidget, CodeNoWidget},
	{ErrDuplicate, CodeDuplicate},
	{ErrInvalidParams, CodeInvalidParams},
	{ErrStopped, CodeStopped},
}

// CodeOf returns the error code for err, and whether err wraps one of the
// errors defined in this package.
func CodeOf(err error) (int64, bool) {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code, true
		}
	}
	return 0, false
}

// ErrorOf returns the error for an error code, or nil if the code is not one
// defined in this package.
func ErrorOf(code int64) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
