// Package services contains application services for the SplitFair client.
// This file defines the authentication service: login, register, logout and
// the local view of who is logged in.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/splitfair/internal/client/client"
	"github.com/dmitrijs2005/splitfair/internal/client/models"
	"github.com/dmitrijs2005/splitfair/internal/client/session"
	"github.com/dmitrijs2005/splitfair/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Init: acquire a fresh token so the first form submission does not wait.
//   - Login / Register: authenticate against the backend and record the
//     returned identity. On failure the identity is left as it was.
//   - Logout: tell the backend, then always forget the identity and token
//     locally; the backend error, if any, is returned afterwards.
//   - CurrentUser / IsAuthenticated: local state only, no I/O.
type AuthService interface {
	Init(ctx context.Context) error
	Login(ctx context.Context, username, password string) (models.Identity, error)
	Register(ctx context.Context, reg models.Registration) (models.Identity, error)
	Logout(ctx context.Context) error
	CurrentUser() (models.Identity, bool)
	IsAuthenticated() bool
}

// Doer sends a request through the client pipeline.
type Doer interface {
	Do(ctx context.Context, req *client.Request) (*client.Response, error)
}

// Tokens is the token acquisition protocol.
type Tokens interface {
	EnsureToken(ctx context.Context) (string, error)
	FetchToken(ctx context.Context) (string, error)
}

// AuthPaths are the backend endpoints used by AuthService.
type AuthPaths struct {
	Login    string
	Register string
	Logout   string
}

type authService struct {
	api    Doer
	tokens Tokens
	store  *session.Store
	paths  AuthPaths
	log    logging.Logger
}

func NewAuthService(api Doer, tokens Tokens, store *session.Store, paths AuthPaths, log logging.Logger) AuthService {
	if paths.Login == "" {
		paths.Login = "/api/login/"
	}
	if paths.Register == "" {
		paths.Register = "/register/"
	}
	if paths.Logout == "" {
		paths.Logout = "/logout/"
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &authService{api: api, tokens: tokens, store: store, paths: paths, log: log.With("component", "auth")}
}

func (a *authService) Init(ctx context.Context) error {
	if _, err := a.tokens.FetchToken(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return nil
}

func (a *authService) Login(ctx context.Context, username, password string) (models.Identity, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}
	id, err := a.authenticate(ctx, "login", a.paths.Login, form)
	if err != nil {
		return models.Identity{}, fmt.Errorf("login: %w", err)
	}
	return id, nil
}

func (a *authService) Register(ctx context.Context, reg models.Registration) (models.Identity, error) {
	form := url.Values{
		"username":  {reg.Username},
		"email":     {reg.Email},
		"password1": {reg.Password},
		"password2": {reg.Confirmation},
	}
	id, err := a.authenticate(ctx, "register", a.paths.Register, form)
	if err != nil {
		return models.Identity{}, fmt.Errorf("register: %w", err)
	}
	return id, nil
}

var errNoUser = errors.New("response has no user")

type authResponse struct {
	User *models.Identity `json:"user"`
}

// authenticate posts form and records the identity from the reply. The
// token is acquired up front so a missing token fails before any
// credentials leave the process.
func (a *authService) authenticate(ctx context.Context, op, path string, form url.Values) (models.Identity, error) {
	if _, err := a.tokens.EnsureToken(ctx); err != nil {
		return models.Identity{}, err
	}

	resp, err := a.api.Do(ctx, &client.Request{Method: http.MethodPost, Path: path, Form: form})
	if err != nil {
		return models.Identity{}, err
	}

	var body authResponse
	if err := resp.Decode(&body); err != nil {
		return models.Identity{}, err
	}
	if body.User == nil || body.User.Username == "" {
		return models.Identity{}, resp.Malformed(errNoUser)
	}

	id := *body.User
	if err := a.store.SetIdentity(ctx, id); err != nil {
		// The session is live; only the copy kept across restarts is lost.
		a.log.Warn(ctx, "identity not persisted", "username", id.Username, "error", err)
	}
	a.log.Info(ctx, op+" succeeded", "username", id.Username)
	return id, nil
}

// Logout leaves token acquisition to the pipeline: with TokenOptional a
// failed acquisition is logged there and the request goes out without one.
func (a *authService) Logout(ctx context.Context) error {
	_, callErr := a.api.Do(ctx, &client.Request{
		Method:        http.MethodPost,
		Path:          a.paths.Logout,
		TokenOptional: true,
	})

	if err := a.store.ClearIdentity(ctx); err != nil {
		a.log.Warn(ctx, "persisted identity not cleared", "error", err)
	}
	a.store.ClearToken()

	if callErr != nil {
		return fmt.Errorf("logout: %w", callErr)
	}
	a.log.Info(ctx, "logged out")
	return nil
}

func (a *authService) CurrentUser() (models.Identity, bool) {
	return a.store.Identity()
}

func (a *authService) IsAuthenticated() bool {
	_, ok := a.store.Identity()
	return ok
}
