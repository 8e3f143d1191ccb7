package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable       = errors.New("server unavailable")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrMalformedResponse = errors.New("malformed response")
)

const maxErrorBody = 512

// Error describes a failed backend call. Kind is one of the package
// sentinels; Err, when set, is the underlying cause.
type Error struct {
	Op     string
	Kind   error
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "backend call failed"
	}
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return e.Kind == target }

func newError(op string, kind error, status int, body []byte, cause error) *Error {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &Error{Op: op, Kind: kind, Status: status, Body: string(body), Err: cause}
}
