package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/splitfair/internal/client/models"
	"github.com/dmitrijs2005/splitfair/internal/logging"
)

// IdentityRepository persists the identity record. Load returns (nil, nil)
// when nothing is stored.
type IdentityRepository interface {
	Load(ctx context.Context) (*models.Identity, error)
	Save(ctx context.Context, id models.Identity) error
	Delete(ctx context.Context) error
}

// Store is safe for concurrent use. Each read or write is atomic on its own;
// there are no multi-step transactions. Identity writes are serialized so the
// persisted record always matches the last in-memory change.
type Store struct {
	mu       sync.RWMutex
	token    string
	identity *models.Identity

	// writeMu orders identity writes across memory and repo; readers only
	// take mu.
	writeMu sync.Mutex

	repo IdentityRepository
	log  logging.Logger
}

// NewStore creates a Store and loads a previously persisted identity from
// repo. A nil repo gives a memory-only store.
func NewStore(ctx context.Context, repo IdentityRepository, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Store{repo: repo, log: log.With("component", "session")}

	if repo == nil {
		return s, nil
	}
	id, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if id != nil {
		s.identity = id
		s.log.Debug(ctx, "restored identity", "username", id.Username)
	}
	return s, nil
}

// Token returns the cached token and whether one is present.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// SetToken replaces the cached token. An empty token clears it.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Store) ClearToken() {
	s.SetToken("")
}

// Identity returns a copy of the current identity record.
func (s *Store) Identity() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// SetIdentity records id as the logged-in user. The in-memory record changes
// before persistence is attempted, so readers see it even if the write to
// the repository fails; that failure is returned.
func (s *Store) SetIdentity(ctx context.Context, id models.Identity) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, id); err != nil {
		s.log.Error(ctx, "persist identity failed", "error", err)
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}

// ClearIdentity forgets the logged-in user, in memory first and then in the
// repository.
func (s *Store) ClearIdentity(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()

	if s.repo == nil {
		return nil
	}
	if err := s.repo.Delete(ctx); err != nil {
		s.log.Error(ctx, "delete persisted identity failed", "error", err)
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}
