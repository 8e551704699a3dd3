package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// SessionStore persists the service session cookies between CLI invocations
// so every run does not start a fresh anonymous session. File access is
// serialized with a lock file because concurrent invocations share the store.
type SessionStore struct {
	path string
	lock *flock.Flock
}

// NewSessionStore creates a store rooted in the given state directory.
func NewSessionStore(stateDir string) *SessionStore {
	path := filepath.Join(stateDir, "session.json")
	return &SessionStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Domain  string    `json:"domain,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
	Secure  bool      `json:"secure,omitempty"`
}

// Load returns the persisted cookies, dropping any that have expired.
// A missing store file is not an error.
func (s *SessionStore) Load() ([]*http.Cookie, error) {
	if err := s.lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock session store: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session store: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse session store: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Domain:  c.Domain,
			Expires: c.Expires,
			Secure:  c.Secure,
		})
	}
	return cookies, nil
}

// Save replaces the persisted cookie set.
func (s *SessionStore) Save(cookies []*http.Cookie) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session store: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Domain:  c.Domain,
			Expires: c.Expires,
			Secure:  c.Secure,
		})
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session store: %w", err)
	}
	return nil
}

// Clear removes the persisted session.
func (s *SessionStore) Clear() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session store: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session store: %w", err)
	}
	return nil
}

// restoreCookies seeds a cookie jar with persisted cookies for the API host.
func restoreCookies(jar http.CookieJar, base *url.URL, cookies []*http.Cookie) {
	if jar == nil || base == nil || len(cookies) == 0 {
		return
	}
	jar.SetCookies(base, cookies)
}
