package fakestorage

import (
	"sync"

	"github.com/civilshq/civilshq-go/session"
)

var _ session.Storage = (*FakeStorage)(nil)

// FakeStorage is an in-memory session.Storage that records call counts and
// can be made to fail on demand.
type FakeStorage struct {
	lock    sync.Mutex
	current session.Session

	SaveErr  error
	LoadErr  error
	ClearErr error

	SaveCalls  int
	LoadCalls  int
	ClearCalls int
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{}
}

func (fs *FakeStorage) Load() (session.Session, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.LoadCalls++
	if fs.LoadErr != nil {
		return session.Session{}, fs.LoadErr
	}
	return fs.current, nil
}

func (fs *FakeStorage) Save(s session.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.SaveCalls++
	if fs.SaveErr != nil {
		return fs.SaveErr
	}
	fs.current = s
	return nil
}

func (fs *FakeStorage) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.ClearCalls++
	if fs.ClearErr != nil {
		return fs.ClearErr
	}
	fs.current = session.Session{}
	return nil
}

// Seed installs a session directly, bypassing the error hooks.
func (fs *FakeStorage) Seed(s session.Session) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.current = s
}

// Stored returns the currently persisted session.
func (fs *FakeStorage) Stored() session.Session {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.current
}
