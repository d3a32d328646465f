package persistence

import "sync"

// InMemoryStore is a trivial in-process PersistenceAdapter useful for tests,
// examples and single-process prototypes. It keeps all blobs in a map guarded
// by an RWMutex. Data is copied on save / retrieval to avoid accidental
// external mutation of internal buffers.
//
// This implementation is intentionally minimal; it does not enforce retention
// limits, size quotas, or eviction. For anything that must survive a process
// restart, use the badgerstore subpackage or another durable implementation.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewInMemoryStore returns an empty in-memory adapter.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

// Load returns a copy of the stored blob, or ok=false when the key is absent.
func (s *InMemoryStore) Load(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

// Save stores (or overwrites) the blob under the given key. The input slice is
// copied before storage.
func (s *InMemoryStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[key] = cp
	return nil
}

// Keys returns a snapshot of the stored keys, safe for caller mutation.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	return keys
}
