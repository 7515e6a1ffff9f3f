// Package session owns the client's single authenticated identity.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/models"
)

// Persister saves the session outside the process so that one-shot CLI runs
// and the terminal UI share an identity.
type Persister interface {
	Load() (models.Session, bool, error)
	Save(models.Session) error
	Clear() error
}

// Store is the only owner of the session credential. All reads and writes of
// the token go through it.
type Store struct {
	mu        sync.RWMutex
	current   models.Session
	persister Persister
	listeners []func(models.Session, bool)
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister keeps the session in sync with p.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store, seeding it from the persister if one is set.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.persister != nil {
		s.reload()
	}
	return s
}

// Get returns the current session.
func (s *Store) Get() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, !s.current.IsZero()
}

// Token returns the current bearer token, empty when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

// Set replaces the session. A zero session is equivalent to Clear.
func (s *Store) Set(sess models.Session) {
	if sess.IsZero() {
		s.Clear()
		return
	}

	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(sess); err != nil {
			s.logger.Warn("failed to persist session", zap.Error(err))
		}
	}
	s.notify(sess, true)
}

// Clear drops the session.
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = models.Session{}
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Clear(); err != nil {
			s.logger.Warn("failed to clear persisted session", zap.Error(err))
		}
	}
	s.notify(models.Session{}, false)
}

// OnChange registers fn to be called after every Set, Clear or reload.
func (s *Store) OnChange(fn func(models.Session, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// reload replaces the in-memory session with the persisted one without
// writing back.
func (s *Store) reload() {
	sess, ok, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("failed to load persisted session", zap.Error(err))
		return
	}
	if !ok {
		sess = models.Session{}
	}

	s.mu.Lock()
	changed := s.current != sess
	s.current = sess
	s.mu.Unlock()

	if changed {
		s.notify(sess, !sess.IsZero())
	}
}

func (s *Store) notify(sess models.Session, signedIn bool) {
	s.mu.RLock()
	listeners := make([]func(models.Session, bool), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(sess, signedIn)
	}
}
