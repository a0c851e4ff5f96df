// Package session holds the local participant state: identity, profile,
// match status and partner reference. The store is the single source of
// truth for the client and mirrors every mutation to a JSON snapshot so a
// restart resumes the same session without re-registration.
package session

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"blinddate/backend/internal/config"
	"blinddate/backend/internal/models"
)

// Local session status values.
const (
	StatusIdle      = "idle"
	StatusSearching = "matching"
	StatusPaired    = "matched"
)

// Snapshot is the persisted session state. ID absent means unregistered,
// which implies StatusIdle.
type Snapshot struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Age          int      `json:"age,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	TargetGender string   `json:"target_gender,omitempty"`
	InstagramID  string   `json:"instagram_id,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Status       string   `json:"status"`
	PartnerID    string   `json:"partner_id,omitempty"`
}

// Store is a mutex-guarded session container. All mutations are total and
// write the snapshot through to disk best-effort.
type Store struct {
	mu   sync.Mutex
	snap Snapshot
	path string
}

// DefaultPath returns the fixed snapshot location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.SessionDirName, config.SessionFileName), nil
}

// NewStore loads the snapshot at path, or starts a fresh idle session when
// the file is absent or unreadable. An empty path keeps the store in-memory
// only.
func NewStore(path string) *Store {
	s := &Store{
		snap: Snapshot{Status: StatusIdle},
		path: path,
	}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s
	}
	if err != nil {
		log.Printf("session: failed to read snapshot %s: %v", path, err)
		return s
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("session: corrupt snapshot %s, starting fresh: %v", path, err)
		return s
	}
	if snap.ID == "" {
		// Identity absent forces idle regardless of what was written.
		snap = Snapshot{Status: StatusIdle}
	}
	if snap.Status == "" {
		snap.Status = StatusIdle
	}
	s.snap = snap
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Register adopts the platform-assigned identity and profile after a
// successful registration and moves the session into searching.
func (s *Store) Register(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		ID:           u.ID,
		Name:         u.Name,
		Age:          u.Age,
		Gender:       u.Gender,
		TargetGender: u.TargetGender,
		InstagramID:  u.InstagramID,
		Interests:    u.Interests,
		Status:       StatusSearching,
	}
	s.persist()
}

// SetProfile merges the given profile fields into the session. Zero-valued
// fields are left untouched.
func (s *Store) SetProfile(name string, age int, gender, targetGender, instagramID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.snap.Name = name
	}
	if age != 0 {
		s.snap.Age = age
	}
	if gender != "" {
		s.snap.Gender = gender
	}
	if targetGender != "" {
		s.snap.TargetGender = targetGender
	}
	if instagramID != "" {
		s.snap.InstagramID = instagramID
	}
	s.persist()
}

// Reset clears everything back to an unregistered idle session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{Status: StatusIdle}
	s.persist()
}

// SetMatch transitions to paired with the given partner. A store without an
// identity cannot be paired, so the call is a no-op then.
func (s *Store) SetMatch(partnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.ID == "" {
		return
	}
	s.snap.Status = StatusPaired
	s.snap.PartnerID = partnerID
	s.persist()
}

// ClearMatch drops the partner reference and returns to idle.
func (s *Store) ClearMatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Status = StatusIdle
	s.snap.PartnerID = ""
	s.persist()
}

// SetSearching marks the session as waiting for a partner.
func (s *Store) SetSearching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.ID == "" {
		return
	}
	s.snap.Status = StatusSearching
	s.persist()
}

// persist writes the snapshot through to disk. Callers hold s.mu.
func (s *Store) persist() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.snap, "", "  ")
	if err != nil {
		log.Printf("session: failed to encode snapshot: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		log.Printf("session: failed to create snapshot dir: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		log.Printf("session: failed to write snapshot %s: %v", s.path, err)
	}
}
