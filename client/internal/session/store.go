package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// storeKey is the single key the session record is persisted under.
const storeKey = "session"

// record is the persisted form of a Session.
type record struct {
	Subject    string `json:"subject"`
	Credential string `json:"credential"`
}

// Store persists a single session record in a JSON file.
// Access to the file is serialized with an advisory lock on path + ".lock".
type Store struct {
	path string
	lock *flock.Flock
}

// NewStore returns a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted session. A missing file or missing key yields
// an anonymous session without error.
func (s *Store) Load() (Session, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return Anonymous(), nil
	}
	if err := s.lock.RLock(); err != nil {
		return Anonymous(), fmt.Errorf("lock session file: %w", err)
	}
	defer s.unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Anonymous(), nil
	}
	if err != nil {
		return Anonymous(), fmt.Errorf("read session file: %w", err)
	}

	var doc map[string]record
	if err = json.Unmarshal(data, &doc); err != nil {
		return Anonymous(), fmt.Errorf("decode session file: %w", err)
	}
	rec, ok := doc[storeKey]
	if !ok || rec.Credential == "" {
		return Anonymous(), nil
	}
	return New(rec.Subject, rec.Credential), nil
}

// Save writes the session record, replacing any previous one.
func (s *Store) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	defer s.unlock()

	credential, _ := sess.Credential()
	doc := map[string]record{
		storeKey: {Subject: sess.Subject(), Credential: credential},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear removes the persisted record.
func (s *Store) Clear() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	defer s.unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Store) unlock() {
	if err := s.lock.Unlock(); err != nil {
		slog.Error("failed to release session file lock", "path", s.path, "error", err)
	}
}
