package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/logging"
)

// DefaultStorageKey is the adapter key the memory buckets are persisted under.
const DefaultStorageKey = "contextmesh/memories"

// buckets is the persisted shape of the three-tier store.
type buckets struct {
	Global   []core.Memory            `json:"global"`
	Projects map[string][]core.Memory `json:"projects"`
	Agents   map[string][]core.Memory `json:"agents"`
}

func emptyBuckets() buckets {
	return buckets{
		Global:   []core.Memory{},
		Projects: map[string][]core.Memory{},
		Agents:   map[string][]core.Memory{},
	}
}

// Filter selects which scope buckets participate in a Relevant query. Empty
// fields omit the corresponding scope; the global bucket always participates.
type Filter struct {
	ProjectID string
	AgentID   string
}

// Options configures a ScopedStore.
type Options struct {
	// Key is the adapter key the store blob is persisted under.
	Key string
	// Logger receives store diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// Now overrides the clock, primarily for tests.
	Now func() time.Time
}

// ScopedStore owns the three memory scope buckets and is the only writer to
// the persisted memory blob. Mutations are guarded by a mutex and written
// through to the adapter before returning.
//
// Memory ids are treated as unique across the whole store: an upsert naming an
// id that currently lives in a different bucket moves it, and Delete scans
// every bucket so duplicates left behind by older writers are cleaned up.
type ScopedStore struct {
	mu      sync.RWMutex
	adapter core.PersistenceAdapter
	key     string
	logger  logging.Logger
	now     func() time.Time
	data    buckets
}

// NewScopedStore constructs a store over the given adapter. Call Load before
// first use to hydrate previously persisted memories.
func NewScopedStore(adapter core.PersistenceAdapter, optFns ...func(o *Options)) *ScopedStore {
	opts := Options{
		Key:    DefaultStorageKey,
		Logger: logging.NoOpLogger{},
		Now:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ScopedStore{
		adapter: adapter,
		key:     opts.Key,
		logger:  opts.Logger,
		now:     opts.Now,
		data:    emptyBuckets(),
	}
}

// Load hydrates the buckets from the adapter. An absent blob starts the store
// empty; a malformed blob is discarded with a warning and likewise starts the
// store empty. Only an adapter read failure is returned to the caller.
func (s *ScopedStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.adapter.Load(s.key)
	if err != nil {
		return fmt.Errorf("load memory store: %w", err)
	}
	if !ok {
		s.data = emptyBuckets()
		return nil
	}

	var loaded buckets
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("discarding malformed memory blob", "key", s.key, "error", err)
		s.data = emptyBuckets()
		return nil
	}
	if loaded.Global == nil {
		loaded.Global = []core.Memory{}
	}
	if loaded.Projects == nil {
		loaded.Projects = map[string][]core.Memory{}
	}
	if loaded.Agents == nil {
		loaded.Agents = map[string][]core.Memory{}
	}
	s.data = loaded
	return nil
}

// Upsert inserts or merges a memory into the bucket addressed by ref and
// persists the store. The stored entry (with generated id and timestamps) is
// returned. Empty trimmed content is rejected with a ValidationError.
func (s *ScopedStore) Upsert(mem core.Memory, ref core.ScopeRef) (core.Memory, error) {
	if strings.TrimSpace(mem.Content) == "" {
		return core.Memory{}, &core.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if (ref.Scope == core.ScopeProject || ref.Scope == core.ScopeAgent) && ref.Key == "" {
		return core.Memory{}, &core.ValidationError{Field: "scope", Reason: fmt.Sprintf("%s scope requires a key", ref.Scope)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store-wide id uniqueness: an upsert naming an id that lives in another
	// bucket is a move.
	if mem.ID != "" {
		s.removeExcept(mem.ID, ref)
	}

	var stored core.Memory
	now := s.now().UTC()
	switch ref.Scope {
	case core.ScopeGlobal:
		s.data.Global, stored = mergeInto(s.data.Global, mem, now)
	case core.ScopeProject:
		s.data.Projects[ref.Key], stored = mergeInto(s.data.Projects[ref.Key], mem, now)
	case core.ScopeAgent:
		s.data.Agents[ref.Key], stored = mergeInto(s.data.Agents[ref.Key], mem, now)
	default:
		return core.Memory{}, &core.ValidationError{Field: "scope", Reason: fmt.Sprintf("unknown scope %q", ref.Scope)}
	}

	if err := s.persistLocked(); err != nil {
		return core.Memory{}, err
	}
	return stored, nil
}

// Delete removes the memory id from every bucket that contains it. Deleting
// an unknown id is a no-op, not an error.
func (s *ScopedStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeExcept(id, core.ScopeRef{}) {
		return nil
	}
	return s.persistLocked()
}

// removeExcept strips id from every bucket other than the one addressed by
// keep, reporting whether anything was removed. A zero keep removes from all
// buckets. Caller must hold the write lock.
func (s *ScopedStore) removeExcept(id string, keep core.ScopeRef) bool {
	removed := false
	if keep.Scope != core.ScopeGlobal {
		s.data.Global, removed = removeID(s.data.Global, id, removed)
	}
	for k, bucket := range s.data.Projects {
		if keep.Scope == core.ScopeProject && keep.Key == k {
			continue
		}
		s.data.Projects[k], removed = removeID(bucket, id, removed)
	}
	for k, bucket := range s.data.Agents {
		if keep.Scope == core.ScopeAgent && keep.Key == k {
			continue
		}
		s.data.Agents[k], removed = removeID(bucket, id, removed)
	}
	return removed
}

func removeID(bucket []core.Memory, id string, already bool) ([]core.Memory, bool) {
	out := bucket[:0]
	removed := already
	for _, m := range bucket {
		if m.ID == id {
			removed = true
			continue
		}
		out = append(out, m)
	}
	return out, removed
}

// Relevant returns the union of the global bucket and the buckets selected by
// the filter, deduplicated by id. A non-empty query keeps only memories whose
// content, title or tags contain it case-insensitively. Result order is not
// guaranteed.
func (s *ScopedStore) Relevant(f Filter, query string) []core.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]bool{}
	result := []core.Memory{}
	collect := func(bucket []core.Memory) {
		for _, m := range bucket {
			if seen[m.ID] || !m.Matches(query) {
				continue
			}
			seen[m.ID] = true
			result = append(result, m)
		}
	}
	collect(s.data.Global)
	if f.ProjectID != "" {
		collect(s.data.Projects[f.ProjectID])
	}
	if f.AgentID != "" {
		collect(s.data.Agents[f.AgentID])
	}
	return result
}

// Bucket returns a snapshot copy of a single scope bucket.
func (s *ScopedStore) Bucket(ref core.ScopeRef) []core.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bucket []core.Memory
	switch ref.Scope {
	case core.ScopeGlobal:
		bucket = s.data.Global
	case core.ScopeProject:
		bucket = s.data.Projects[ref.Key]
	case core.ScopeAgent:
		bucket = s.data.Agents[ref.Key]
	}
	out := make([]core.Memory, len(bucket))
	copy(out, bucket)
	return out
}

// persistLocked writes the buckets through to the adapter. Caller must hold
// the write lock.
func (s *ScopedStore) persistLocked() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("encode memory store: %w", err)
	}
	if err := s.adapter.Save(s.key, raw); err != nil {
		return fmt.Errorf("persist memory store: %w", err)
	}
	s.logger.Debug("memory store persisted", "key", s.key, "bytes", len(raw))
	return nil
}
