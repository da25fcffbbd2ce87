package campaign

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogforge/distributor/internal/assets"
	"github.com/blogforge/distributor/internal/models"
)

// Session is one in-flight wizard run. All mutation goes through the
// Manager, which holds the store lock; sessions themselves are plain data.
type Session struct {
	ID         string                   `json:"id"`
	Spec       models.CampaignSpec      `json:"spec"`
	Content    *models.GeneratedContent `json:"content,omitempty"`
	Assets     assets.Mapping           `json:"-"`
	Results    []models.InjectionResult `json:"results,omitempty"`
	Current    Step                     `json:"current_step"`
	MaxReached Step                     `json:"max_reached_step"`
	// ValidationErrors holds the messages from the last failed advance.
	// Cleared once the step validates.
	ValidationErrors []string `json:"validation_errors,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// sessionTTL evicts abandoned wizard runs.
const sessionTTL = 24 * time.Hour

// Store is an in-memory session registry. Wizard sessions are operator
// scratch state; losing them on restart is acceptable.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new session starting at the sites step.
func (s *Store) Create() *Session {
	now := time.Now().UTC()
	session := &Session{
		ID:        uuid.NewString(),
		Assets:    make(assets.Mapping),
		Current:   StepSites,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired(now)
	s.sessions[session.ID] = session
	return session
}

// Get returns the session or models.ErrNotFound.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return session, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Mutate runs fn under the store lock and stamps UpdatedAt on success.
func (s *Store) Mutate(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := fn(session); err != nil {
		return err
	}
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// evictExpired is called under the write lock.
func (s *Store) evictExpired(now time.Time) {
	for id, session := range s.sessions {
		if now.Sub(session.UpdatedAt) > sessionTTL {
			delete(s.sessions, id)
		}
	}
}
