// Package backendtest runs an in-process imitation of the SplitFair backend
// for tests: session cookies, a synchronizer token checked on every mutating
// request, and the auth and events endpoints.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/splitfair/internal/client/models"
)

// Endpoint paths, matching the client's default configuration.
const (
	TokenPath       = "/csrf-token/"
	LoginPath       = "/api/login/"
	RegisterPath    = "/register/"
	LogoutPath      = "/logout/"
	EventsPath      = "/api/events/"
	CreateEventPath = "/api/events/create/"

	TokenCookie   = "csrftoken"
	SessionCookie = "sessionid"
	TokenHeader   = "X-CSRFToken"
	TokenField    = "csrfmiddlewaretoken"
)

// Call is one request as seen by the server.
type Call struct {
	Method string
	Header http.Header
	Form   url.Values
}

type account struct {
	id       int64
	email    string
	password string
}

type Server struct {
	*httptest.Server

	mu sync.Mutex

	token string
	// tokenInBody and tokenCookie control how the token endpoint hands out
	// the token; both start true.
	tokenInBody    bool
	tokenCookie    bool
	tokenStatus    int
	malformedToken bool

	hold    chan struct{}
	started chan struct{}
	release func()

	accounts map[string]account
	sessions map[string]string
	events   []models.Event
	forced   map[string]int
	calls    map[string][]Call

	tokenFetches atomic.Int64
}

// New starts a server and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		token:       uuid.NewString(),
		tokenInBody: true,
		tokenCookie: true,
		accounts:    make(map[string]account),
		sessions:    make(map[string]string),
		forced:      make(map[string]int),
		calls:       make(map[string][]Call),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, s.handleToken)
	mux.HandleFunc(LoginPath, s.mutating(s.handleLogin))
	mux.HandleFunc(RegisterPath, s.mutating(s.handleRegister))
	mux.HandleFunc(LogoutPath, s.mutating(s.handleLogout))
	mux.HandleFunc(EventsPath, s.handleEvents)
	mux.HandleFunc(CreateEventPath, s.mutating(s.handleCreateEvent))

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(func() {
		s.mu.Lock()
		release := s.release
		s.mu.Unlock()
		if release != nil {
			release()
		}
		s.Close()
	})
	return s
}

// AddUser creates an account that can log in.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = account{id: int64(len(s.accounts) + 1), password: password}
}

// Token is the token the server currently accepts.
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken changes the accepted token; previously issued tokens go stale.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// TokenDelivery selects whether the token endpoint returns the token in its
// JSON body, in a cookie, or both.
func (s *Server) TokenDelivery(inBody, inCookie bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenInBody = inBody
	s.tokenCookie = inCookie
}

// FailToken makes the token endpoint answer with status (0 restores normal
// behaviour). Cookies are still set when enabled.
func (s *Server) FailToken(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenStatus = status
}

// MalformToken makes the token endpoint return a body that is not JSON.
func (s *Server) MalformToken(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformedToken = on
}

// HoldToken blocks token requests until release is called. started is
// signalled when the first held request arrives.
func (s *Server) HoldToken() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = make(chan struct{})
	s.started = make(chan struct{}, 1)
	hold := s.hold
	var once sync.Once
	s.release = func() { once.Do(func() { close(hold) }) }
	return s.started, s.release
}

// Force makes every request to path answer with status (0 clears it).
func (s *Server) Force(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.forced, path)
		return
	}
	s.forced[path] = status
}

// TokenFetches counts requests to the token endpoint.
func (s *Server) TokenFetches() int64 {
	return s.tokenFetches.Load()
}

// Calls returns the requests received on path, oldest first.
func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls[path]...)
}

// Events returns the events created so far.
func (s *Server) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Event(nil), s.events...)
}

// ExpireSessions logs every client out server-side.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()

		s.mu.Lock()
		s.calls[r.URL.Path] = append(s.calls[r.URL.Path], Call{
			Method: r.Method,
			Header: r.Header.Clone(),
			Form:   cloneValues(r.PostForm),
		})
		status, forced := s.forced[r.URL.Path]
		s.mu.Unlock()

		if forced {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// mutating enforces POST and the synchronizer token, which may come in the
// header or in the form field.
func (s *Server) mutating(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
			return
		}
		want := s.Token()
		if r.Header.Get(TokenHeader) != want && r.PostForm.Get(TokenField) != want {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.tokenFetches.Add(1)

	s.mu.Lock()
	hold, started := s.hold, s.started
	token, inBody, inCookie := s.token, s.tokenInBody, s.tokenCookie
	status, malformed := s.tokenStatus, s.malformedToken
	s.mu.Unlock()

	if hold != nil {
		select {
		case started <- struct{}{}:
		default:
		}
		<-hold
	}

	if inCookie {
		http.SetCookie(w, &http.Cookie{Name: TokenCookie, Value: token, Path: "/"})
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{})
		return
	}
	if malformed {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("<html>not json"))
		return
	}
	body := map[string]string{}
	if inBody {
		body["csrfToken"] = token
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.PostForm.Get("username")

	s.mu.Lock()
	acc, ok := s.accounts[username]
	s.mu.Unlock()

	if !ok || acc.password != r.PostForm.Get("password") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}
	s.startSession(w, username)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    models.Identity{ID: acc.id, Username: username},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	username := r.PostForm.Get("username")
	email := r.PostForm.Get("email")
	p1, p2 := r.PostForm.Get("password1"), r.PostForm.Get("password2")

	if username == "" || p1 == "" || p1 != p2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": "invalid registration"})
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[username]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": "username taken"})
		return
	}
	acc := account{id: int64(len(s.accounts) + 1), email: email, password: p1}
	s.accounts[username] = acc
	s.mu.Unlock()

	s.startSession(w, username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"user": models.Identity{ID: acc.id, Username: username, Email: email},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
		return
	}
	if _, ok := s.user(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	writeJSON(w, http.StatusOK, s.Events())
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.user(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	name := r.PostForm.Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Name is required"})
		return
	}

	s.mu.Lock()
	s.events = append(s.events, models.Event{
		ID:           int64(len(s.events) + 1),
		Title:        name,
		Description:  r.PostForm.Get("description"),
		Participants: models.ParseParticipants(r.PostForm.Get("participants")),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Event created successfully"})
}

func (s *Server) startSession(w http.ResponseWriter, username string) {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = username
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
}

func (s *Server) user(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.sessions[c.Value]
	return u, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
