// Package session persists the authenticated-identity state across CLI
// invocations: bearer token, employee id and the cached profile.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/nkapoor/esshub/internal/models"
)

// ErrNoSession is returned when no session file exists yet.
var ErrNoSession = errors.New("no session")

// Data is the on-disk session shape. Any field may be absent: an employee id
// captured at login can exist before OTP verification produces a token.
type Data struct {
	Version    int                 `json:"version"`
	Token      string              `json:"token,omitempty"`
	EmployeeID string              `json:"employee_id,omitempty"`
	Profile    *models.UserProfile `json:"profile,omitempty"`
}

// Update carries the fields to write. Nil fields are left untouched.
type Update struct {
	Token      *string
	EmployeeID *string
	Profile    *models.UserProfile
}

// Store manages session state on the local filesystem.
type Store struct {
	baseDir string
}

// NewStore creates a session store.
// If baseDir is empty, uses ~/.esshub/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".esshub")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session store initialized")

	return &Store{baseDir: baseDir}, nil
}

// Save writes the provided fields, leaving the others untouched.
func (s *Store) Save(u Update) error {
	data, err := s.load()
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	if data == nil {
		data = &Data{Version: 1}
	}

	if u.Token != nil {
		data.Token = *u.Token
	}
	if u.EmployeeID != nil {
		data.EmployeeID = *u.EmployeeID
	}
	if u.Profile != nil {
		p := *u.Profile
		data.Profile = &p
	}

	return s.save(data)
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	data, err := s.load()
	return err == nil && data.Token != ""
}

// Token returns the stored bearer token.
func (s *Store) Token() (string, bool) {
	data, err := s.load()
	if err != nil || data.Token == "" {
		return "", false
	}
	return data.Token, true
}

// EmployeeID returns the stored employee id.
func (s *Store) EmployeeID() (string, bool) {
	data, err := s.load()
	if err != nil || data.EmployeeID == "" {
		return "", false
	}
	return data.EmployeeID, true
}

// Profile returns the cached profile snapshot.
func (s *Store) Profile() (*models.UserProfile, bool) {
	data, err := s.load()
	if err != nil || data.Profile == nil {
		return nil, false
	}
	p := *data.Profile
	return &p, true
}

// Clear removes token, employee id and profile as one operation: the file is
// replaced by an empty session in a single rename, so no partially-cleared
// state is ever readable.
func (s *Store) Clear() error {
	if err := s.save(&Data{Version: 1}); err != nil {
		return err
	}
	log.Debug().Msg("session cleared")
	return nil
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.baseDir, "session.json")
}

func (s *Store) load() (*Data, error) {
	raw, err := os.ReadFile(s.sessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &data, nil
}

// save writes the session file atomically.
func (s *Store) save(data *Data) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := s.sessionPath()
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
