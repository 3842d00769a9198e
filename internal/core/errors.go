package core

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so callers can branch (retry, reword,
// report verbatim) without matching on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindServiceUnavailable
	KindMalformedResponse
	KindSchemaViolation
	KindStorageFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindMalformedResponse:
		return "malformed_response"
	case KindSchemaViolation:
		return "schema_violation"
	case KindStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

// Error is the failure value returned by every core operation.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "extract" or "append expense"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds a core error with a formatted message and no cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds a core error around a cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first core error in err's chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Retryable reports whether resubmitting the whole message may succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindServiceUnavailable
}
