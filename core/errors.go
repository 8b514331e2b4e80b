package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies a dispatch failure for logging and reply composition.
type ErrorKind string

const (
	// KindValidation marks malformed or missing arguments. User-correctable;
	// the message is shown verbatim.
	KindValidation ErrorKind = "validation"
	// KindUpstream marks an unavailable or erroring external collaborator.
	// Shown as a generic retry-later message, logged with detail.
	KindUpstream ErrorKind = "upstream"
	// KindTimeout marks a bounded wait that elapsed. Treated as upstream for
	// the user, distinguished in logs.
	KindTimeout ErrorKind = "timeout"
	// KindInternal marks a programmer or invariant violation. Fatal to the
	// single dispatch, never to the process.
	KindInternal ErrorKind = "internal"
)

// DispatchError is the single error type crossing the dispatch boundary.
// Capability is empty for failures on the conversational path.
type DispatchError struct {
	Kind       ErrorKind `json:"kind"`
	Capability string    `json:"capability,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

func (e *DispatchError) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("dispatch error [%s] in %s: %s", e.Kind, e.Capability, e.Message)
	}
	return fmt.Sprintf("dispatch error [%s]: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *DispatchError) Unwrap() error { return e.Err }

// UserMessage renders the reply text shown to the user. Validation messages
// are shown verbatim; everything else collapses to a generic retry hint so
// upstream detail never leaks into the conversation.
func (e *DispatchError) UserMessage() string {
	switch e.Kind {
	case KindValidation:
		return e.Message
	case KindUpstream, KindTimeout:
		return "The service is unavailable right now, please try again later."
	default:
		return "Something went wrong processing your message."
	}
}

// NewValidationError reports malformed user input for a capability.
func NewValidationError(capability, format string, args ...any) *DispatchError {
	return &DispatchError{Kind: KindValidation, Capability: capability, Message: fmt.Sprintf(format, args...)}
}

// NewUpstreamError wraps a failure of an external collaborator.
func NewUpstreamError(capability string, err error) *DispatchError {
	return &DispatchError{Kind: KindUpstream, Capability: capability, Message: err.Error(), Err: err}
}

// NewTimeoutError wraps an elapsed deadline on an external call.
func NewTimeoutError(capability string, err error) *DispatchError {
	return &DispatchError{Kind: KindTimeout, Capability: capability, Message: "deadline exceeded", Err: err}
}

// NewInternalError reports a broken invariant such as an empty user key.
func NewInternalError(format string, args ...any) *DispatchError {
	return &DispatchError{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, mapping context deadline errors to
// KindTimeout and anything unrecognized to KindUpstream.
func KindOf(err error) ErrorKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUpstream
}
