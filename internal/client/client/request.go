package client

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Request is one backend call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	Header http.Header

	// TokenOptional lets a mutating request go out without a token when none
	// can be acquired.
	TokenOptional bool
}

func (r *Request) op() string {
	return r.Method + " " + r.Path
}

// Mutating reports whether the method needs a synchronizer token.
func Mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Response is a fully read backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte

	op string
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status <= 299
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return newError(r.op, ErrMalformedResponse, r.Status, r.Body, err)
	}
	return nil
}

// Malformed reports a body that decoded but lacks what the caller needs.
func (r *Response) Malformed(cause error) *Error {
	return newError(r.op, ErrMalformedResponse, r.Status, r.Body, cause)
}
