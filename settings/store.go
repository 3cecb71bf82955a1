// Package settings keeps the per-provider settings of the auto-translate
// step: API key, endpoint and model.
//
// The store is a JSON file in the XDG data directory,
// $XDG_DATA_HOME/xliffmerge/auth.json (default ~/.local/share/xliffmerge),
// written with mode 0600. Store.Resolve combines it with the profile and
// the environment into the Credentials a provider is built from.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	dataDirName = "xliffmerge"
	fileName    = "auth.json"
)

// Entry is what the store remembers about one provider. Empty fields fall
// back to the provider defaults.
type Entry struct {
	Key     string `json:"key,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
	Model   string `json:"model,omitempty"`
}

// IsZero reports whether the entry holds nothing.
func (e Entry) IsZero() bool {
	return e == Entry{}
}

// Store is the provider settings file.
type Store struct {
	path    string
	entries map[string]Entry
}

// DefaultPath returns the store location, honouring $XDG_DATA_HOME.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName, fileName), nil
}

// Open reads the store at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: map[string]Entry{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.entries == nil {
		s.entries = map[string]Entry{}
	}
	return s, nil
}

// OpenDefault opens the store at DefaultPath.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Get returns the entry of a provider and whether one is stored.
func (s *Store) Get(provider string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.entries[provider]
	return e, ok
}

// Providers returns the ids of all stored providers, sorted.
func (s *Store) Providers() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Update sets the non-empty fields of e on the provider's entry and saves
// the store. Fields left empty keep their stored value.
func (s *Store) Update(provider string, e Entry) error {
	if e.IsZero() {
		return fmt.Errorf("nothing to store for %s", provider)
	}
	cur := s.entries[provider]
	if e.Key != "" {
		cur.Key = e.Key
	}
	if e.BaseURL != "" {
		cur.BaseURL = e.BaseURL
	}
	if e.Model != "" {
		cur.Model = e.Model
	}
	s.entries[provider] = cur
	return s.save()
}

// Delete removes one provider and saves the store.
func (s *Store) Delete(provider string) error {
	if _, ok := s.entries[provider]; !ok {
		return nil
	}
	delete(s.entries, provider)
	return s.save()
}

// Clear removes every entry together with the file.
func (s *Store) Clear() error {
	s.entries = map[string]Entry{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding provider settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
