// Package csrf acquires the backend's synchronizer (anti-forgery) token.
//
// The token is taken from the session store when cached, otherwise from the
// token endpoint, otherwise from the token cookie the backend may already
// have set in the shared cookie jar. Concurrent acquisitions are collapsed
// into one network call.
package csrf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/splitfair/internal/logging"
)

// Token sources reported to Options.OnAcquire.
const (
	SourceEndpoint = "endpoint"
	SourceCookie   = "cookie"
	SourceFailed   = "failed"
)

const maxTokenBody = 64 << 10

// TokenStore is the part of the session store the acquirer needs.
type TokenStore interface {
	Token() (string, bool)
	SetToken(token string)
}

type Options struct {
	// BaseURL is the backend root; cookies are looked up for it.
	BaseURL string
	// TokenPath is the token endpoint, relative to BaseURL.
	TokenPath string
	// CookieName is the fallback cookie, e.g. "csrftoken".
	CookieName string

	Logger logging.Logger
	// OnAcquire, if set, is called once per network acquisition with one of
	// the Source constants.
	OnAcquire func(source string)
}

type Acquirer struct {
	httpClient *http.Client
	store      TokenStore
	baseURL    *url.URL
	endpoint   *url.URL
	cookieName string
	log        logging.Logger
	onAcquire  func(string)

	group singleflight.Group
}

// New creates an Acquirer. httpClient should carry the cookie jar shared
// with the request pipeline; without a jar the cookie fallback is disabled.
func New(httpClient *http.Client, store TokenStore, opts Options) (*Acquirer, error) {
	if store == nil {
		return nil, fmt.Errorf("token store is nil")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	rel, err := url.Parse(opts.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("parse token path: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	onAcquire := opts.OnAcquire
	if onAcquire == nil {
		onAcquire = func(string) {}
	}

	return &Acquirer{
		httpClient: httpClient,
		store:      store,
		baseURL:    base,
		endpoint:   base.ResolveReference(rel),
		cookieName: opts.CookieName,
		log:        log.With("component", "csrf"),
		onAcquire:  onAcquire,
	}, nil
}

// EnsureToken returns the cached token, acquiring one first if none is
// cached. A cached token is trusted until someone clears it.
func (a *Acquirer) EnsureToken(ctx context.Context) (string, error) {
	if tok, ok := a.store.Token(); ok {
		return tok, nil
	}
	return a.acquire(ctx, false)
}

// FetchToken acquires a token from the network even when one is cached. If
// an acquisition is already in flight, the caller gets its result.
func (a *Acquirer) FetchToken(ctx context.Context) (string, error) {
	return a.acquire(ctx, true)
}

// acquireKey is shared by EnsureToken and FetchToken so that at most one
// acquisition is in flight at a time.
const acquireKey = "acquire"

// acquire joins the in-flight acquisition or starts one. The shared call is
// detached from ctx so one caller giving up does not fail the others; each
// caller still stops waiting when its own ctx ends.
func (a *Acquirer) acquire(ctx context.Context, force bool) (string, error) {
	ch := a.group.DoChan(acquireKey, func() (any, error) {
		if !force {
			if tok, ok := a.store.Token(); ok {
				return tok, nil
			}
		}
		return a.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (a *Acquirer) fetch(ctx context.Context) (string, error) {
	tok, endpointErr := a.fromEndpoint(ctx)
	if endpointErr == nil && tok != "" {
		a.store.SetToken(tok)
		a.onAcquire(SourceEndpoint)
		a.log.Debug(ctx, "token acquired", "source", SourceEndpoint)
		return tok, nil
	}
	if endpointErr == nil {
		endpointErr = errNoTokenField
	}

	if tok, ok := a.fromCookie(); ok {
		a.store.SetToken(tok)
		a.onAcquire(SourceCookie)
		a.log.Debug(ctx, "token acquired", "source", SourceCookie, "endpoint_error", endpointErr)
		return tok, nil
	}

	a.onAcquire(SourceFailed)
	a.log.Warn(ctx, "token acquisition failed", "endpoint", a.endpoint.String(), "error", endpointErr)
	return "", &AcquisitionError{Endpoint: a.endpoint.String(), Err: endpointErr}
}

type tokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

func (a *Acquirer) fromEndpoint(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTokenBody)).Decode(&body); err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return strings.TrimSpace(body.CSRFToken), nil
}

func (a *Acquirer) fromCookie() (string, bool) {
	if a.httpClient.Jar == nil || a.cookieName == "" {
		return "", false
	}
	for _, c := range a.httpClient.Jar.Cookies(a.baseURL) {
		if c.Name == a.cookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
