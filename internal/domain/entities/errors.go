package entities

import (
	"errors"
	"fmt"
)

// ErrorKind is the failure taxonomy of the classification pipeline.
// Every operation returns success or one of these typed failures; there is no
// silent fallback to an unverified classification.
type ErrorKind string

const (
	// ErrInvalidInput: empty/missing query, rejected before any external call.
	ErrInvalidInput ErrorKind = "invalid_input"
	// ErrEmbeddingUnavailable: embedding service failure, fatal for the request.
	ErrEmbeddingUnavailable ErrorKind = "embedding_unavailable"
	// ErrSourceUnavailable: one retriever failed. Degraded, not fatal - the
	// pipeline absorbs it and treats the source as having no results.
	ErrSourceUnavailable ErrorKind = "source_unavailable"
	// ErrOracleUnavailable: reasoning oracle call failed, fatal.
	ErrOracleUnavailable ErrorKind = "oracle_unavailable"
	// ErrTimeout: the caller's deadline elapsed, the query is abandoned.
	ErrTimeout ErrorKind = "timeout"
	// ErrUnparsableResponse: oracle output matched neither recognized shape.
	ErrUnparsableResponse ErrorKind = "unparsable_response"
)

// Error is a typed pipeline failure. It wraps the underlying cause so callers
// can use errors.Is/errors.As on both the kind and the cause chain.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on kind so errors.Is(err, &Error{Kind: k}) works with sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds a typed pipeline failure.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the error kind from an error chain, or "" if untyped.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
