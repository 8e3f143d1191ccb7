package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/splitfair/internal/client/backendtest"
	"github.com/dmitrijs2005/splitfair/internal/client/csrf"
	"github.com/dmitrijs2005/splitfair/internal/client/models"
	"github.com/dmitrijs2005/splitfair/internal/client/session"
)

type env struct {
	backend *backendtest.Server
	store   *session.Store
	client  *HTTPClient
}

func newEnv(t *testing.T, options ...Option) *env {
	t.Helper()
	backend := backendtest.New(t)
	backend.AddUser("alice", "s3cret")
	return newEnvFor(t, backend, backend.URL, options...)
}

func newEnvFor(t *testing.T, backend *backendtest.Server, baseURL string, options ...Option) *env {
	t.Helper()
	httpClient, err := NewHTTPClient(5 * time.Second)
	require.NoError(t, err)

	store, err := session.NewStore(context.Background(), nil, nil)
	require.NoError(t, err)

	acq, err := csrf.New(httpClient, store, csrf.Options{
		BaseURL:    baseURL,
		TokenPath:  backendtest.TokenPath,
		CookieName: backendtest.TokenCookie,
	})
	require.NoError(t, err)

	c, err := New(httpClient, acq, store, Options{
		BaseURL:    baseURL,
		HeaderName: backendtest.TokenHeader,
		FormField:  backendtest.TokenField,
	}, options...)
	require.NoError(t, err)

	return &env{backend: backend, store: store, client: c}
}

func loginRequest() *Request {
	return &Request{
		Method: http.MethodPost,
		Path:   backendtest.LoginPath,
		Form:   url.Values{"username": {"alice"}, "password": {"s3cret"}},
	}
}

func createRequest(name string) *Request {
	return &Request{
		Method: http.MethodPost,
		Path:   backendtest.CreateEventPath,
		Form:   url.Values{"name": {name}, "participants": {"alice,bob"}},
	}
}

func TestDo_ReadOnlyRequestCarriesNoToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.client.Do(ctx, loginRequest())
	require.NoError(t, err)
	fetches := e.backend.TokenFetches()

	resp, err := e.client.Do(ctx, &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	calls := e.backend.Calls(backendtest.EventsPath)
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Header.Get(backendtest.TokenHeader))
	assert.NotEmpty(t, calls[0].Header.Get(RequestIDHeader))
	assert.Equal(t, fetches, e.backend.TokenFetches())
}

func TestDo_MutatingRequestCarriesTokenInHeaderAndForm(t *testing.T) {
	e := newEnv(t)

	resp, err := e.client.Do(context.Background(), loginRequest())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	calls := e.backend.Calls(backendtest.LoginPath)
	require.Len(t, calls, 1)
	assert.Equal(t, e.backend.Token(), calls[0].Header.Get(backendtest.TokenHeader))
	assert.Equal(t, e.backend.Token(), calls[0].Form.Get(backendtest.TokenField))
	assert.Equal(t, "alice", calls[0].Form.Get("username"))
	assert.NotEmpty(t, calls[0].Header.Get("Referer"))
}

func TestDo_MutatingRequestWithoutFormGetsTokenBody(t *testing.T) {
	e := newEnv(t)

	_, err := e.client.Do(context.Background(), &Request{Method: http.MethodPost, Path: backendtest.LogoutPath})
	require.NoError(t, err)

	calls := e.backend.Calls(backendtest.LogoutPath)
	require.Len(t, calls, 1)
	assert.Equal(t, e.backend.Token(), calls[0].Form.Get(backendtest.TokenField))
}

func TestDo_ForbiddenClearsTokenKeepsIdentity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.client.Do(ctx, loginRequest())
	require.NoError(t, err)
	require.NoError(t, e.store.SetIdentity(ctx, models.Identity{ID: 1, Username: "alice"}))
	require.EqualValues(t, 1, e.backend.TokenFetches())

	e.backend.SetToken("rotated")

	resp, err := e.client.Do(ctx, createRequest("Trip"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Contains(t, apiErr.Body, "CSRF")

	_, ok := e.store.Token()
	assert.False(t, ok, "token cleared")
	_, ok = e.store.Identity()
	assert.True(t, ok, "identity kept")

	resp, err = e.client.Do(ctx, createRequest("Trip"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.EqualValues(t, 2, e.backend.TokenFetches(), "next mutating call acquires a fresh token")
}

func TestDo_UnauthorizedClearsIdentity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.SetIdentity(ctx, models.Identity{ID: 1, Username: "alice"}))
	e.store.SetToken(e.backend.Token())

	_, err := e.client.Do(ctx, &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, errors.Is(err, ErrUnexpectedStatus), "first post-hook error wins")

	_, ok := e.store.Identity()
	assert.False(t, ok)
	_, ok = e.store.Token()
	assert.True(t, ok, "token kept")
}

func TestDo_UnexpectedStatus(t *testing.T) {
	e := newEnv(t)
	e.backend.Force(backendtest.EventsPath, http.StatusInternalServerError)

	_, err := e.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "GET "+backendtest.EventsPath, apiErr.Op)
}

func TestDo_TransportErrorIsUnavailable(t *testing.T) {
	backend := backendtest.New(t)
	dead := backend.URL
	backend.Close()

	e := newEnvFor(t, backend, dead)
	_, err := e.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_TokenFailureAbortsBeforeDispatch(t *testing.T) {
	e := newEnv(t)
	e.backend.TokenDelivery(false, false)

	_, err := e.client.Do(context.Background(), loginRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, csrf.ErrTokenUnavailable)
	assert.Empty(t, e.backend.Calls(backendtest.LoginPath))
}

func TestDo_TokenOptionalProceedsWithoutToken(t *testing.T) {
	e := newEnv(t)
	e.backend.TokenDelivery(false, false)

	_, err := e.client.Do(context.Background(), &Request{
		Method:        http.MethodPost,
		Path:          backendtest.LogoutPath,
		TokenOptional: true,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	calls := e.backend.Calls(backendtest.LogoutPath)
	require.Len(t, calls, 1)
	assert.Empty(t, calls[0].Header.Get(backendtest.TokenHeader))
}

func TestDo_HooksRunInOrderAndAllPostHooksRun(t *testing.T) {
	var (
		mu    sync.Mutex
		trace []string
	)
	record := func(s string) {
		mu.Lock()
		trace = append(trace, s)
		mu.Unlock()
	}
	hookErr := errors.New("hook failed")

	e := newEnv(t,
		WithPreHook(func(_ context.Context, req *Request) error {
			assert.NotEmpty(t, req.Header.Get(RequestIDHeader), "built-in pre-hooks run first")
			record("pre1")
			return nil
		}),
		WithPreHook(func(context.Context, *Request) error {
			record("pre2")
			return nil
		}),
		WithPostHook(func(_ context.Context, _ *Request, resp *Response) error {
			record("post1")
			return hookErr
		}),
		WithPostHook(func(context.Context, *Request, *Response) error {
			record("post2")
			return nil
		}),
	)
	e.backend.Force(backendtest.EventsPath, http.StatusInternalServerError)

	_, err := e.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.NotErrorIs(t, err, hookErr)
	assert.Equal(t, []string{"pre1", "pre2", "post1", "post2"}, trace)

	trace = nil
	e.backend.Force(backendtest.EventsPath, 0)
	_, err = e.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDo_PreHookErrorAbortsRequest(t *testing.T) {
	stop := errors.New("stop")
	e := newEnv(t, WithPreHook(func(context.Context, *Request) error { return stop }))

	_, err := e.client.Do(context.Background(), &Request{Method: http.MethodGet, Path: backendtest.EventsPath})
	assert.ErrorIs(t, err, stop)
	assert.Empty(t, e.backend.Calls(backendtest.EventsPath))
}

func TestDo_ConcurrentMutatingCallsShareOneFetch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.client.Do(ctx, loginRequest())
	require.NoError(t, err)
	e.store.ClearToken()
	before := e.backend.TokenFetches()

	started, release := e.backend.HoldToken()
	errs := make(chan error, 2)
	go func() {
		_, err := e.client.Do(ctx, createRequest("Trip"))
		errs <- err
	}()
	<-started
	go func() {
		_, err := e.client.Do(ctx, createRequest("Dinner"))
		errs <- err
	}()
	time.Sleep(50 * time.Millisecond)
	release()

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.Equal(t, before+1, e.backend.TokenFetches())
	assert.Len(t, e.backend.Events(), 2)
}

func TestNew_Validation(t *testing.T) {
	store, err := session.NewStore(context.Background(), nil, nil)
	require.NoError(t, err)

	_, err = New(nil, nil, store, Options{BaseURL: "http://localhost"})
	assert.Error(t, err)

	acq, err := csrf.New(nil, store, csrf.Options{BaseURL: "http://localhost", TokenPath: "/csrf-token/"})
	require.NoError(t, err)
	_, err = New(nil, acq, store, Options{})
	assert.Error(t, err)
}
