package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/dmitrijs2005/splitfair/internal/logging"
)

const maxResponseBody = 1 << 20

// TokenSource hands out the synchronizer token, acquiring it if needed.
type TokenSource interface {
	EnsureToken(ctx context.Context) (string, error)
}

// SessionState is what the pipeline invalidates on 401 and 403.
type SessionState interface {
	ClearToken()
	ClearIdentity(ctx context.Context) error
}

type Options struct {
	BaseURL string
	// HeaderName and FormField carry the token on mutating requests.
	HeaderName string
	FormField  string
	Logger     logging.Logger
}

type Option func(*HTTPClient)

// WithPreHook appends h after the built-in pre-hooks.
func WithPreHook(h PreHook) Option {
	return func(c *HTTPClient) { c.pre = append(c.pre, h) }
}

// WithPostHook appends h after the built-in post-hooks.
func WithPostHook(h PostHook) Option {
	return func(c *HTTPClient) { c.post = append(c.post, h) }
}

// HTTPClient is safe for concurrent use.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	tokens     TokenSource
	state      SessionState
	headerName string
	formField  string
	log        logging.Logger

	pre  []PreHook
	post []PostHook
}

func New(httpClient *http.Client, tokens TokenSource, state SessionState, opts Options, options ...Option) (*HTTPClient, error) {
	if tokens == nil || state == nil {
		return nil, fmt.Errorf("token source and session state are required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse baseURL: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	header, field := opts.HeaderName, opts.FormField
	if header == "" {
		header = "X-CSRFToken"
	}
	if field == "" {
		field = "csrfmiddlewaretoken"
	}

	c := &HTTPClient{
		httpClient: httpClient,
		baseURL:    base,
		tokens:     tokens,
		state:      state,
		headerName: header,
		formField:  field,
		log:        log.With("component", "client"),
	}
	c.pre = []PreHook{requestID, c.injectToken}
	c.post = []PostHook{c.invalidate, checkStatus}
	for _, o := range options {
		o(c)
	}
	return c, nil
}

// NewHTTPClient returns an *http.Client with a cookie jar, so the session
// and token cookies set by the backend are sent back on later requests.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// Do sends req through the hook chain. When the backend answered, the
// response is returned even if a post-hook reported an error.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.Header == nil {
		req.Header = http.Header{}
	}
	op := req.op()

	for _, h := range c.pre {
		if err := h(ctx, req); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn(ctx, "request failed", "op", op, "error", err)
		return nil, newError(op, ErrUnavailable, 0, nil, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, newError(op, ErrUnavailable, httpResp.StatusCode, nil, err)
	}
	resp := &Response{Status: httpResp.StatusCode, Header: httpResp.Header, Body: body, op: op}

	c.log.Debug(ctx, "request done",
		"op", op,
		"status", resp.Status,
		"request_id", req.Header.Get(RequestIDHeader),
		"elapsed", time.Since(start))

	var first error
	for _, h := range c.post {
		if err := h(ctx, req, resp); err != nil && first == nil {
			first = err
		}
	}
	return resp, first
}

func (c *HTTPClient) build(ctx context.Context, req *Request) (*http.Request, error) {
	rel, err := url.Parse(req.Path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	full := c.baseURL.ResolveReference(rel)
	if len(req.Query) > 0 {
		full.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Form != nil {
		body = strings.NewReader(req.Form.Encode())
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, full.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return httpReq, nil
}
