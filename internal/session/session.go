// Package session stores the signed-in user and the bearer token the client sends to the server.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoSession indicates that nobody is signed in.
var ErrNoSession = errors.New("not signed in")

// User is the identity shown in the UI.
type User struct {
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	AvatarURL string `yaml:"avatar_url,omitempty"`
}

// Session is the current authenticated user and their token.
type Session struct {
	User      User      `yaml:"user"`
	Token     string    `yaml:"token"`
	CreatedAt time.Time `yaml:"created_at"`
}

// DisplayName returns the user's name, falling back to the email address.
func (s *Session) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.User.Name != "" {
		return s.User.Name
	}
	return s.User.Email
}

// Load reads the session file. A missing file yields ErrNoSession.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if strings.TrimSpace(s.Token) == "" {
		return nil, ErrNoSession
	}
	return &s, nil
}

// Save writes the session file with owner-only permissions.
func Save(path string, s *Session) error {
	if s == nil || strings.TrimSpace(s.Token) == "" {
		return errors.New("session token is required")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// SignOut removes the session file. Signing out twice is not an error.
func SignOut(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
