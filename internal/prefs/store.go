// Package prefs persists the user's keyword and author lists in a small
// key-value file. Each value is a string holding a JSON array of strings.
package prefs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/csheth/dailyfeed/internal/logger"
)

const (
	KeywordsKey = "arxiv_user_keywords"
	AuthorsKey  = "arxiv_user_authors"
)

// Store reads and writes one preference file.
type Store struct {
	path string
}

// NewStore returns a Store backed by path. The file need not exist.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the list saved under key. A missing or corrupt file, key or
// value yields an empty list.
func (s *Store) Load(key string) []string {
	entries, err := s.loadEntries()
	if err != nil {
		logger.Get().Warn("preferences unreadable", zap.String("path", s.path), zap.Error(err))
		return []string{}
	}
	raw, ok := entries[key]
	if !ok {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		logger.Get().Warn("preference value corrupt", zap.String("key", key), zap.Error(err))
		return []string{}
	}
	return clean(values)
}

// Save replaces the list under key, leaving other keys untouched.
func (s *Store) Save(key string, values []string) error {
	if s.path == "" {
		return fmt.Errorf("prefs: no path configured")
	}
	entries, err := s.loadEntries()
	if err != nil {
		// A corrupt file is replaced rather than blocking every later save.
		logger.Get().Warn("discarding corrupt preferences", zap.String("path", s.path), zap.Error(err))
		entries = map[string]string{}
	}
	encoded, err := json.Marshal(clean(values))
	if err != nil {
		return err
	}
	entries[key] = string(encoded)
	return s.writeEntries(entries)
}

func (s *Store) loadEntries() (map[string]string, error) {
	entries := map[string]string{}
	if s.path == "" {
		return entries, nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) writeEntries(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prefs-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// clean trims entries and drops blanks and exact duplicates, keeping order.
func clean(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

// SplitList parses a comma-separated list as typed on the command line.
func SplitList(input string) []string {
	return clean(strings.Split(input, ","))
}
