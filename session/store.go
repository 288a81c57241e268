package session

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Store is the single owner of session state. Every surface of the client
// (auth flows, the gateway, view resolution) reads and writes the session
// through a Store; token, role and user id always change as one unit.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	current Session
	subs    map[int]func(Session)
	nextSub int
	nowTime func() time.Time
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// NewStore creates a Store over the given storage backend. An unreadable
// backend degrades to a logged-out session rather than failing.
func NewStore(storage Storage, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[NewStore] storage is required")
	}

	store := &Store{
		storage: storage,
		subs:    make(map[int]func(Session)),
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(store)
	}

	loaded, err := storage.Load()
	if err != nil {
		loaded = Session{}
	}
	store.current = loaded

	return store, nil
}

// Get returns the current session, possibly the zero session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the session with a new principal. All three fields are
// persisted in one storage write; on a storage failure the store degrades
// to logged out and the error is returned.
func (s *Store) Set(token string, role Role, userID string) error {
	if token == "" {
		return errors.Wrap(EmptyTokenErr, "[Store.Set]")
	}
	if userID == "" {
		return errors.Wrap(EmptyUserIDErr, "[Store.Set]")
	}
	if _, err := ParseRole(role.String()); err != nil {
		return errors.Wrap(err, "[Store.Set]")
	}

	next := Session{
		Token:     token,
		Role:      role,
		UserID:    userID,
		ExpiresAt: tokenExpiry(token),
	}

	s.mu.Lock()
	if err := s.storage.Save(next); err != nil {
		s.current = Session{}
		_ = s.storage.Clear()
		subs := s.snapshotSubs()
		s.mu.Unlock()
		notify(subs, Session{})
		return errors.Wrapf(StorageFailureErr, "[Store.Set] %v", err)
	}
	s.current = next
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, next)
	return nil
}

// Clear removes the session. Clearing an already-empty store is a no-op:
// no storage write, no notification. Storage failures still clear the
// in-memory view, so callers never observe a stale authenticated session.
func (s *Store) Clear() {
	s.mu.Lock()
	if !s.current.Authenticated() {
		s.mu.Unlock()
		return
	}
	s.current = Session{}
	_ = s.storage.Clear()
	subs := s.snapshotSubs()
	s.mu.Unlock()

	notify(subs, Session{})
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	return s.Get().Authenticated()
}

// HasRole reports whether the store holds an authenticated session with the
// expected role.
func (s *Store) HasRole(expected Role) bool {
	current := s.Get()
	return current.Authenticated() && current.Role == expected
}

// Expired reports whether the held token is locally known to be expired.
func (s *Store) Expired() bool {
	return s.Get().ExpiredBy(s.nowTime())
}

// Subscribe registers a callback invoked after every state change, with the
// new session value. The returned function unsubscribes. Callbacks run
// outside the store lock; they may call back into the store.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshotSubs copies the subscriber list; callers must hold the lock.
func (s *Store) snapshotSubs() []func(Session) {
	subs := make([]func(Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Session), current Session) {
	for _, fn := range subs {
		fn(current)
	}
}
