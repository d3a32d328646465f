package memory

import (
	"testing"
	"time"

	"github.com/hupe1980/contextmesh/core"
)

var mergeClock = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func TestMergeInto_AppliesDefaults(t *testing.T) {
	bucket, stored := mergeInto(nil, core.Memory{Content: "fresh"}, mergeClock)
	if len(bucket) != 1 {
		t.Fatalf("expected append, got %d entries", len(bucket))
	}
	if stored.ID == "" {
		t.Error("id should be generated")
	}
	if stored.Title != DefaultTitle {
		t.Errorf("title default missing: %q", stored.Title)
	}
	if stored.Tags == nil || len(stored.Tags) != 0 {
		t.Errorf("tags should default to an empty set: %#v", stored.Tags)
	}
	if stored.Importance != core.DefaultImportance {
		t.Errorf("importance should default to %d, got %d", core.DefaultImportance, stored.Importance)
	}
	if !stored.Created.Equal(mergeClock) || !stored.Modified.Equal(mergeClock) {
		t.Errorf("timestamps should be set to now: %v / %v", stored.Created, stored.Modified)
	}
}

func TestMergeInto_IdempotentUnderRepeatedInput(t *testing.T) {
	candidate := core.Memory{ID: "m1", Content: "stable fact", Title: "Fact", Importance: 4}
	bucket, _ := mergeInto(nil, candidate, mergeClock)
	bucket, again := mergeInto(bucket, candidate, mergeClock.Add(time.Minute))
	if len(bucket) != 1 {
		t.Fatalf("repeated identical input must not duplicate, got %d entries", len(bucket))
	}
	if again.Content != "stable fact" || again.Title != "Fact" || again.Importance != 4 {
		t.Fatalf("entry drifted under idempotent upsert: %+v", again)
	}
}

func TestMergeInto_CandidateOverridesSuppliedFieldsOnly(t *testing.T) {
	existing := core.Memory{
		ID: "m1", Title: "Original", Content: "original content",
		Tags: []string{"keep"}, Importance: 5,
		Created: mergeClock, Modified: mergeClock,
	}
	later := mergeClock.Add(time.Hour)
	bucket, merged := mergeInto([]core.Memory{existing}, core.Memory{ID: "m1", Content: "updated content"}, later)

	if len(bucket) != 1 {
		t.Fatalf("expected in-place merge, got %d entries", len(bucket))
	}
	if merged.Content != "updated content" {
		t.Errorf("supplied content should override: %q", merged.Content)
	}
	if merged.Title != "Original" || merged.Importance != 5 || len(merged.Tags) != 1 {
		t.Errorf("unsupplied fields must survive: %+v", merged)
	}
	if !merged.Created.Equal(mergeClock) {
		t.Error("created must be preserved")
	}
	if !merged.Modified.Equal(later) {
		t.Error("modified must be bumped")
	}
}

func TestMergeInto_MatchesByTrimmedContentWithoutID(t *testing.T) {
	existing := core.Memory{ID: "m1", Content: "  spaced fact  ", Created: mergeClock, Modified: mergeClock}
	bucket, merged := mergeInto([]core.Memory{existing}, core.Memory{Content: "spaced fact", Importance: 2}, mergeClock.Add(time.Minute))
	if len(bucket) != 1 {
		t.Fatalf("trimmed-content match must merge, got %d entries", len(bucket))
	}
	if merged.ID != "m1" {
		t.Fatalf("identity should stay with the existing entry, got id %q", merged.ID)
	}
	if merged.Importance != 2 {
		t.Fatalf("supplied importance should override, got %d", merged.Importance)
	}
}
