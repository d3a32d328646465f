package core

import "context"

// PersistenceAdapter is a schema-less key/value byte-blob store. Every durable
// structure in ContextMesh (the memory buckets, each conversation, the
// conversation index) is serialized into a single blob under one key.
//
// Load returns (nil, false, nil) for an absent key; implementations must not
// treat absence as an error. Save overwrites unconditionally.
//
// Writes are assumed atomic for a single caller only. Two processes sharing
// one key race read-modify-write cycles and the last write wins silently;
// ContextMesh does not detect or resolve such conflicts.
type PersistenceAdapter interface {
	Load(key string) (data []byte, ok bool, err error)
	Save(key string, data []byte) error
}

// SummarizeRequest asks a collaborator to condense a transcript excerpt.
type SummarizeRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

// SummarizeResult is the normalized collaborator response.
type SummarizeResult struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// Summarizer condenses conversation transcripts. Implementations apply a
// bounded timeout and return an error on transport failure; callers fall back
// to a default value and never retry.
type Summarizer interface {
	Summarize(ctx context.Context, req SummarizeRequest) (SummarizeResult, error)
}

// TitleRequest asks a collaborator to name a conversation from its opening
// messages.
type TitleRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
}

// TitleResult is the normalized collaborator response.
type TitleResult struct {
	Title string `json:"title"`
}

// TitleGenerator produces short conversation titles. Same failure contract as
// Summarizer: bounded timeout, no retries, caller falls back.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, req TitleRequest) (TitleResult, error)
}

// ProjectDirectory resolves project metadata for conversations linked to a
// project. The directory is an external collaborator; a miss is expected and
// non-fatal.
type ProjectDirectory interface {
	Project(id string) (Project, bool)
}

// Status classifies the outcome of an operation that involves a collaborator.
// A non-OK status always travels with a usable fallback value so callers are
// never blocked by a failed summary or title request.
type Status string

const (
	// StatusOK marks a successful collaborator result.
	StatusOK Status = "ok"
	// StatusFallback marks a default value substituted after a collaborator
	// failure, timeout or empty response.
	StatusFallback Status = "fallback"
	// StatusTooShort marks a summarize request answered locally because the
	// conversation has too few messages to condense.
	StatusTooShort Status = "too_short"
)
