package zarr

import "errors"

// Error represents a domain error from zarr entry operations.
//
// These are business logic errors (dataset not found, undecodable
// metadata) as opposed to infrastructure errors, which are carried in
// the Code CodeStorageFailure with the underlying cause wrapped.
type Error struct {
	// Code is the error category.
	Code ErrorCode

	// Message is a human-readable error description.
	Message string

	// Path is the node path related to the error, if applicable.
	Path string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// ErrorCode represents the category of a zarr error.
type ErrorCode int

const (
	// CodeNotFound indicates an open was attempted on a node that does
	// not exist. Surfaced before any metadata is read.
	CodeNotFound ErrorCode = iota

	// CodeMalformedMetadata indicates a persisted metadata record (most
	// importantly its dtype field) does not decode. Never silently
	// defaulted.
	CodeMalformedMetadata

	// CodeStorageFailure indicates the store could not create or access
	// the underlying node or key. Propagated, never retried.
	CodeStorageFailure

	// CodeInvalidArgument indicates caller-supplied values are invalid
	// (mismatched ranks, wrong chunk payload size, wrong string width).
	CodeInvalidArgument

	// CodeAlreadyExists indicates a creation conflict reported by the
	// storage medium.
	CodeAlreadyExists
)

func newNotFound(path string) *Error {
	return &Error{Code: CodeNotFound, Message: "node does not exist", Path: path}
}

func newMalformedMetadata(path, message string, cause error) *Error {
	return &Error{Code: CodeMalformedMetadata, Message: message, Path: path, Cause: cause}
}

func newStorageFailure(path string, cause error) *Error {
	return &Error{Code: CodeStorageFailure, Message: "storage failure", Path: path, Cause: cause}
}

func newInvalidArgument(message string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: message}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsNotFound reports whether err is a CodeNotFound zarr error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsMalformedMetadata reports whether err is a CodeMalformedMetadata
// zarr error.
func IsMalformedMetadata(err error) bool { return hasCode(err, CodeMalformedMetadata) }

// IsStorageFailure reports whether err is a CodeStorageFailure zarr error.
func IsStorageFailure(err error) bool { return hasCode(err, CodeStorageFailure) }

// IsInvalidArgument reports whether err is a CodeInvalidArgument zarr error.
func IsInvalidArgument(err error) bool { return hasCode(err, CodeInvalidArgument) }
