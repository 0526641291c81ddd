// Package session holds the authenticated identity and token between
// login and logout/expiry. The Store is the single owner of session
// state; every other component reads it through the Store's methods and
// durable persistence happens nowhere else.
package session

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Role is the server-assigned user role.
type Role string

const (
	// RoleUser is a regular customer.
	RoleUser Role = "USER"

	// RoleAdmin may manage products and all orders.
	RoleAdmin Role = "ADMIN"
)

// User mirrors the server's user record. Server-truth only; the client
// never derives fields from it.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session is the current authentication state.
type Session struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

// clone returns a copy sharing no pointers with s, so a caller holding
// it cannot mutate the store's state.
func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Store owns the session. Reads and writes go through its methods; the
// in-memory copy and the persisted copy are written under one lock so a
// caller never observes them out of sync.
type Store struct {
	mu      sync.RWMutex
	session Session
	storage Storage
	subs    map[int]func(Session)
	nextSub int
	logger  zerolog.Logger
}

// New creates a Store backed by the given storage and restores a prior
// session from it, so an authenticated request can be attempted right
// after a process restart.
func New(storage Storage) (*Store, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}

	s := &Store{
		storage: storage,
		subs:    make(map[int]func(Session)),
		logger:  log.With().Str("component", "session-store").Logger(),
	}

	restored, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if restored != nil && restored.User != nil {
		s.session = *restored
		s.logger.Info().
			Int64("user_id", restored.User.ID).
			Msg("Restored session from storage")
	}

	return s, nil
}

// SetAuth stores the identity and token of a freshly authenticated
// user. Called only after a successful login or register.
func (s *Store) SetAuth(user User, token string) {
	s.mu.Lock()
	s.session = Session{
		User:            &user,
		Token:           token,
		IsAuthenticated: true,
	}
	if err := s.storage.Save(s.session); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session")
	}
	subs := s.snapshotSubs()
	current := s.session.clone()
	s.mu.Unlock()

	s.logger.Info().Int64("user_id", user.ID).Msg("Session established")
	notify(subs, current)
}

// Logout clears the session and its persisted copy. Called by explicit
// user action or by the 401 interceptor.
func (s *Store) Logout() {
	s.mu.Lock()
	s.session = Session{}
	if err := s.storage.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted session")
	}
	subs := s.snapshotSubs()
	current := s.session.clone()
	s.mu.Unlock()

	s.logger.Info().Msg("Session cleared")
	notify(subs, current)
}

// UpdateUser replaces the cached user profile without touching the
// token (profile edits).
func (s *Store) UpdateUser(user User) {
	s.mu.Lock()
	s.session.User = &user
	if err := s.storage.Save(s.session); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist session")
	}
	subs := s.snapshotSubs()
	current := s.session.clone()
	s.mu.Unlock()

	notify(subs, current)
}

// Current returns a copy of the session. Mutating the copy or its user
// has no effect on the store; writes go through SetAuth and UpdateUser.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.clone()
}

// Token returns the current token, empty when unauthenticated. It
// implements the transport's TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated
}

// Subscribe registers fn to run after every session change. The
// returned id cancels the subscription via Unsubscribe.
func (s *Store) Subscribe(fn func(Session)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return id
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

func (s *Store) snapshotSubs() []func(Session) {
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

// notify runs outside the lock so a subscriber may call back into the
// store.
func notify(subs []func(Session), current Session) {
	for _, fn := range subs {
		fn(current)
	}
}
