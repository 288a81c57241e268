package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

const sessionFileName = "session.civilshq"

// persistedSession is the on-disk shape, matching the browser storage keys
// the platform's web client uses.
type persistedSession struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
}

// FileStorage keeps the session in a single file under the data folder,
// encoded with a securecookie codec so a tampered or truncated file reads
// back as logged out instead of being trusted.
type FileStorage struct {
	path  string
	codec *securecookie.SecureCookie
}

// NewFileStorage creates a FileStorage rooted at folder. hashKey
// authenticates the file contents; blockKey additionally encrypts them and
// may be nil.
func NewFileStorage(folder string, hashKey, blockKey []byte) (*FileStorage, error) {
	if len(hashKey) == 0 {
		return nil, errors.New("[NewFileStorage] hashKey is required")
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStorage] os.MkdirAll")
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &FileStorage{
		path:  filepath.Join(folder, sessionFileName),
		codec: codec,
	}, nil
}

// Load reads and authenticates the persisted session. A missing file is a
// clean logged-out state; an unreadable or tampered file is reported as an
// error so the caller can degrade to logged out.
func (f *FileStorage) Load() (Session, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "[FileStorage.Load] os.ReadFile")
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return Session{}, errors.Wrap(err, "[FileStorage.Load] json.Unmarshal")
	}

	var record persistedSession
	if err := f.codec.Decode(sessionFileName, encoded, &record); err != nil {
		return Session{}, errors.Wrap(err, "[FileStorage.Load] codec.Decode")
	}

	role, err := ParseRole(record.Role)
	if err != nil {
		return Session{}, errors.Wrap(err, "[FileStorage.Load] ParseRole")
	}

	return Session{
		Token:     record.Token,
		Role:      role,
		UserID:    record.UserID,
		ExpiresAt: tokenExpiry(record.Token),
	}, nil
}

// Save writes the session atomically via a temp file rename.
func (f *FileStorage) Save(s Session) error {
	encoded, err := f.codec.Encode(sessionFileName, persistedSession{
		Token:  s.Token,
		Role:   s.Role.String(),
		UserID: s.UserID,
	})
	if err != nil {
		return errors.Wrap(err, "[FileStorage.Save] codec.Encode")
	}

	raw, err := json.Marshal(encoded)
	if err != nil {
		return errors.Wrap(err, "[FileStorage.Save] json.Marshal")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "[FileStorage.Save] os.WriteFile")
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return errors.Wrap(err, "[FileStorage.Save] os.Rename")
	}
	return nil
}

// Clear removes the session file. Clearing an absent file is not an error.
func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStorage.Clear] os.Remove")
	}
	return nil
}
