package memory

import (
	"context"
	"sync"
)

// KV is an in-memory implementation of store.KV, used in tests and when the
// service runs without Redis.
type KV struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewKV() *KV {
	return &KV{entries: make(map[string][]byte)}
}

func (s *KV) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, true
}

func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.entries[key] = cp
	return nil
}

func (s *KV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
