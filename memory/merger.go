package memory

import (
	"strings"
	"time"

	"github.com/hupe1980/contextmesh/core"
)

// DefaultTitle is assigned to memories written without a title.
const DefaultTitle = "Untitled Memory"

// mergeInto applies the upsert policy to a single bucket and returns the
// updated bucket plus the entry as stored.
//
// Policy:
//  1. Match an existing entry by id, else by exact trimmed content.
//  2. On match, candidate-supplied fields override the existing entry; Created
//     is kept, Modified is bumped to now.
//  3. Otherwise the candidate is appended with defaults filled in (generated
//     id, DefaultTitle, empty tags, core.DefaultImportance) and
//     Created = Modified = now.
func mergeInto(bucket []core.Memory, candidate core.Memory, now time.Time) ([]core.Memory, core.Memory) {
	idx := findMatch(bucket, candidate)
	if idx >= 0 {
		merged := mergeFields(bucket[idx], candidate)
		merged.Created = bucket[idx].Created
		merged.Modified = now
		bucket[idx] = merged
		return bucket, merged
	}

	if candidate.ID == "" {
		candidate.ID = core.NewID()
	}
	if candidate.Title == "" {
		candidate.Title = DefaultTitle
	}
	if candidate.Tags == nil {
		candidate.Tags = []string{}
	}
	if candidate.Importance < 1 || candidate.Importance > 5 {
		candidate.Importance = core.DefaultImportance
	}
	candidate.Created = now
	candidate.Modified = now
	return append(bucket, candidate), candidate
}

// findMatch locates the existing entry the candidate should merge into:
// id equality first, exact trimmed content second.
func findMatch(bucket []core.Memory, candidate core.Memory) int {
	if candidate.ID != "" {
		for i, m := range bucket {
			if m.ID == candidate.ID {
				return i
			}
		}
	}
	trimmed := strings.TrimSpace(candidate.Content)
	for i, m := range bucket {
		if strings.TrimSpace(m.Content) == trimmed {
			return i
		}
	}
	return -1
}

// mergeFields overlays candidate-supplied fields onto the existing entry.
// Zero values mean "not supplied" and leave the existing field untouched.
func mergeFields(existing, candidate core.Memory) core.Memory {
	merged := existing
	if candidate.ID != "" {
		merged.ID = candidate.ID
	}
	if candidate.Title != "" {
		merged.Title = candidate.Title
	}
	if candidate.Content != "" {
		merged.Content = candidate.Content
	}
	if candidate.Tags != nil {
		merged.Tags = append([]string(nil), candidate.Tags...)
	}
	if candidate.Importance >= 1 && candidate.Importance <= 5 {
		merged.Importance = candidate.Importance
	}
	return merged
}
