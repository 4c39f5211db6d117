package core

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable identifier of a TaggedError.
// Callers branch on the code, never on the message text.
type ErrorCode string

const (
	// CodePluginErrorRequestWillFetch marks a failure raised by a
	// requestWillFetch hook (or by duplicating the request for it).
	CodePluginErrorRequestWillFetch ErrorCode = "plugin-error-request-will-fetch"

	// CodeInvalidRequest marks a fetch that could not be turned into a
	// request (missing request, empty or malformed URL).
	CodeInvalidRequest ErrorCode = "invalid-request"
)

// DetailThrownError is the details key holding the underlying cause.
const DetailThrownError = "thrownError"

// Details is the structured payload attached to a TaggedError.
type Details map[string]any

// TaggedError is a structured error carrying a stable code and a details bag.
// It is distinguishable from pass-through errors via errors.As or IsCode.
type TaggedError struct {
	code    ErrorCode
	message string
	details Details
}

// compile-time guarantee that *TaggedError implements error
var _ error = (*TaggedError)(nil)

// NewTaggedError builds a TaggedError. The message is derived
// deterministically from code and details; details are cloned.
func NewTaggedError(code ErrorCode, details Details) *TaggedError {
	return &TaggedError{
		code:    code,
		message: messageFor(code, details),
		details: cloneDetails(details),
	}
}

func (e *TaggedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.message
}

// Code returns the stable error code.
func (e *TaggedError) Code() ErrorCode { return e.code }

// Message returns the human-readable message.
func (e *TaggedError) Message() string { return e.message }

// Details returns a copy of the details bag. Mutating it does not affect e.
func (e *TaggedError) Details() Details { return cloneDetails(e.details) }

// Unwrap exposes the thrownError detail (when it is an error) so errors.Is and
// errors.As reach the underlying cause.
func (e *TaggedError) Unwrap() error {
	if e == nil {
		return nil
	}
	if cause, ok := e.details[DetailThrownError].(error); ok {
		return cause
	}
	return nil
}

// IsCode reports whether err (or any error it wraps) is a TaggedError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var te *TaggedError
	if !errors.As(err, &te) {
		return false
	}
	return te.code == code
}

var messageGenerators = map[ErrorCode]func(d Details) string{
	CodePluginErrorRequestWillFetch: func(d Details) string {
		return fmt.Sprintf("requestWillFetch extension failed: %v", d[DetailThrownError])
	},
	CodeInvalidRequest: func(d Details) string {
		if cause, ok := d[DetailThrownError]; ok {
			return fmt.Sprintf("invalid request %q: %v", d["url"], cause)
		}
		return fmt.Sprintf("invalid request %q", d["url"])
	},
}

func messageFor(code ErrorCode, details Details) string {
	if gen, ok := messageGenerators[code]; ok {
		return gen(details)
	}
	if len(details) == 0 {
		return string(code)
	}
	// fmt prints maps with sorted keys, so the fallback stays deterministic.
	return fmt.Sprintf("%s :: %v", code, map[string]any(details))
}

func cloneDetails(in Details) Details {
	if len(in) == 0 {
		return nil
	}

	out := make(Details, len(in))

	for k, v := range in {
		if mv, ok := v.(map[string]any); ok {
			out[k] = cloneMap(mv)
			continue
		}

		out[k] = v
	}

	return out
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if mv, ok := v.(map[string]any); ok {
			out[k] = cloneMap(mv)
			continue
		}
		out[k] = v
	}
	return out
}
