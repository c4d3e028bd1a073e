package memoize

import "sync"

// MemoryStore keeps entries in a mutex-guarded map.
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Entry
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]Entry)}
}

func (s *MemoryStore) Get(key string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[key]
	return e, ok
}

func (s *MemoryStore) Set(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = e
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *MemoryStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]Entry)
}

func (s *MemoryStore) Invalidate(pred func(key string, e Entry) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.m {
		if pred(k, e) {
			delete(s.m, k)
		}
	}
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
