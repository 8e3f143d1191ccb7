package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// PreHook may modify the request before it is sent. A non-nil error aborts
// the call.
type PreHook func(ctx context.Context, req *Request) error

// PostHook inspects a response. Every post-hook runs; the first error is
// returned to the caller.
type PostHook func(ctx context.Context, req *Request, resp *Response) error

const RequestIDHeader = "X-Request-ID"

func requestID(_ context.Context, req *Request) error {
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return nil
}

func (c *HTTPClient) injectToken(ctx context.Context, req *Request) error {
	if !Mutating(req.Method) {
		return nil
	}
	if req.Form == nil {
		req.Form = url.Values{}
	}

	tok, err := c.tokens.EnsureToken(ctx)
	if err != nil {
		if req.TokenOptional {
			c.log.Warn(ctx, "sending without token", "op", req.op(), "error", err)
			return nil
		}
		return err
	}
	req.Header.Set(c.headerName, tok)
	req.Form.Set(c.formField, tok)
	if req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", c.baseURL.String())
	}
	return nil
}

// invalidate keeps the session state in line with what the backend
// rejected: 403 means the token is stale, 401 means the session is gone.
func (c *HTTPClient) invalidate(ctx context.Context, req *Request, resp *Response) error {
	switch resp.Status {
	case http.StatusForbidden:
		c.state.ClearToken()
		c.log.Info(ctx, "token rejected, cleared", "op", req.op(), "request_id", req.Header.Get(RequestIDHeader))
		return newError(req.op(), ErrForbidden, resp.Status, resp.Body, nil)
	case http.StatusUnauthorized:
		if err := c.state.ClearIdentity(ctx); err != nil {
			c.log.Error(ctx, "failed to clear identity", "error", err)
		}
		c.log.Info(ctx, "session rejected, identity cleared", "op", req.op(), "request_id", req.Header.Get(RequestIDHeader))
		return newError(req.op(), ErrUnauthorized, resp.Status, resp.Body, nil)
	}
	return nil
}

func checkStatus(_ context.Context, req *Request, resp *Response) error {
	if resp.OK() {
		return nil
	}
	return newError(req.op(), ErrUnexpectedStatus, resp.Status, resp.Body, nil)
}
