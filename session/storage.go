package session

import "sync"

// Storage persists a session across process restarts. Implementations must
// treat Save and Clear as whole-record operations: partial writes are never
// exposed to Load.
type Storage interface {
	// Load returns the persisted session, or the zero session when none exists
	Load() (Session, error)

	// Save replaces the persisted session
	Save(Session) error

	// Clear removes the persisted session
	Clear() error
}

// MemoryStorage is an in-memory Storage for tests and ephemeral runs.
type MemoryStorage struct {
	mu      sync.Mutex
	current Session
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

func (m *MemoryStorage) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Session{}
	return nil
}
