package memoize

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	applogger "AssetHist/pkg/logger"
)

// FileStore persists the whole cache map as JSON after every mutation
// and reloads it when the on-disk file changes under an external
// writer. There is no cross-process locking: racing writers can lose
// updates and callers fall back to recomputation on miss.
type FileStore struct {
	path   string
	logger *applogger.Logger

	mu     sync.Mutex
	m      map[string]Entry
	lastFP string
}

// NewFileStore creates a store backed by path. The parent directory is
// created if missing.
func NewFileStore(path string, l *applogger.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store dir: %w", err)
	}

	s := &FileStore{path: path, logger: l, m: make(map[string]Entry)}
	s.mu.Lock()
	s.reloadIfChanged()
	s.mu.Unlock()
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()
	e, ok := s.m[key]
	return e, ok
}

func (s *FileStore) Set(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()
	s.m[key] = e
	s.persist()
}

func (s *FileStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()
	if _, ok := s.m[key]; !ok {
		return
	}
	delete(s.m, key)
	s.persist()
}

func (s *FileStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]Entry)
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.warn("cache file remove failed", err)
	}
	s.lastFP = ""
}

func (s *FileStore) Invalidate(pred func(key string, e Entry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged()
	changed := false
	for k, e := range s.m {
		if pred(k, e) {
			delete(s.m, k)
			changed = true
		}
	}
	if changed {
		s.persist()
	}
}

// reloadIfChanged re-reads the file when its fingerprint differs from
// the last one seen, so external rewrites are picked up instead of
// trusting the in-memory copy. Malformed JSON is downgraded to an empty
// cache with a warning; it must never crash the process.
func (s *FileStore) reloadIfChanged() {
	fp := s.fingerprint()
	if fp == "" || fp == s.lastFP {
		return
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.warn("cache file read failed", err)
		return
	}

	m := make(map[string]Entry)
	if err := json.Unmarshal(raw, &m); err != nil {
		s.warn("cache file corrupt, starting empty", err)
		m = make(map[string]Entry)
	}
	s.m = m
	s.lastFP = fp
}

func (s *FileStore) persist() {
	raw, err := json.Marshal(s.m)
	if err != nil {
		s.warn("cache marshal failed", err)
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.warn("cache file write failed", err)
		return
	}
	s.lastFP = s.fingerprint()
}

// fingerprint hashes file size and mtime; good enough to detect an
// external rewrite without hashing contents.
func (s *FileStore) fingerprint() string {
	info, err := os.Stat(s.path)
	if err != nil {
		return ""
	}
	id := fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano())
	sum := md5.Sum([]byte(id))
	return hex.EncodeToString(sum[:])
}

func (s *FileStore) warn(msg string, err error) {
	if s.logger != nil {
		s.logger.Warn(msg, applogger.Error(err), applogger.String("path", s.path))
	}
}
