// Package contextmesh provides a high-level façade over the scoped memory
// store, conversation repository and context compactor, enabling assistant
// backends to persist memories and fit unbounded transcripts into a bounded
// context budget. Most applications interact with this package by:
//  1. Creating a ContextMesh via New() (optionally overriding the default
//     in-memory persistence and the collaborator clients)
//  2. Appending messages as the conversation progresses (Append)
//  3. Calling PrepareRequest before each downstream reasoning call to obtain
//     the compacted message sequence plus the relevant memories
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable persistence adapter (for example the
// badgerstore subpackage), real summarization / title clients and a
// structured logger.
package contextmesh

import (
	"context"

	"github.com/hupe1980/contextmesh/compaction"
	"github.com/hupe1980/contextmesh/conversation"
	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/logging"
	"github.com/hupe1980/contextmesh/memory"
	"github.com/hupe1980/contextmesh/persistence"
)

// Options configures the ContextMesh instance.
type Options struct {
	// Persistence is the durable key/value adapter shared by the memory store
	// and the conversation repository (defaults to an in-memory adapter).
	Persistence core.PersistenceAdapter

	// Summarizer backs compaction and Summarize. May be nil; both then
	// degrade to their documented fallbacks.
	Summarizer core.Summarizer

	// Titles backs GenerateTitle. May be nil.
	Titles core.TitleGenerator

	// Projects resolves metadata for project-linked conversations. May be nil.
	Projects core.ProjectDirectory

	// Compaction is the context budget applied by Compact / PrepareRequest.
	Compaction compaction.Config

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ContextMesh is the high-level façade aggregating the store, repository and
// compactor.
type ContextMesh struct {
	opts          Options
	memories      *memory.ScopedStore
	conversations *conversation.Repository
	compactor     *compaction.Compactor
}

// Request is the derived payload for a downstream reasoning call: the
// compacted message sequence plus the memories relevant to the active scopes.
type Request struct {
	Messages []core.Message
	Memories []core.Memory
}

// New creates a new ContextMesh instance with optional overrides and hydrates
// previously persisted memories. Any unset service is initialized with an
// in-memory or no-op implementation.
func New(optFns ...func(o *Options)) (*ContextMesh, error) {
	opts := Options{
		Persistence: persistence.NewInMemoryStore(),
		Compaction:  compaction.DefaultConfig,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	memories := memory.NewScopedStore(opts.Persistence, func(o *memory.Options) {
		o.Logger = opts.Logger
	})
	if err := memories.Load(); err != nil {
		return nil, err
	}

	conversations := conversation.NewRepository(opts.Persistence, func(o *conversation.Options) {
		o.Summarizer = opts.Summarizer
		o.Titles = opts.Titles
		o.Projects = opts.Projects
		o.Logger = opts.Logger
	})

	compactor := compaction.New(opts.Summarizer, func(o *compaction.Options) {
		o.Config = opts.Compaction
		o.Logger = opts.Logger
	})

	return &ContextMesh{
		opts:          opts,
		memories:      memories,
		conversations: conversations,
		compactor:     compactor,
	}, nil
}

// Memories exposes the scoped memory store.
func (m *ContextMesh) Memories() *memory.ScopedStore { return m.memories }

// Conversations exposes the conversation repository.
func (m *ContextMesh) Conversations() *conversation.Repository { return m.conversations }

// Remember upserts a memory into the addressed scope bucket.
func (m *ContextMesh) Remember(mem core.Memory, ref core.ScopeRef) (core.Memory, error) {
	return m.memories.Upsert(mem, ref)
}

// Forget deletes a memory id from every bucket that contains it.
func (m *ContextMesh) Forget(id string) error { return m.memories.Delete(id) }

// Recall returns the memories relevant to the given scopes and query.
func (m *ContextMesh) Recall(f memory.Filter, query string) []core.Memory {
	return m.memories.Relevant(f, query)
}

// Append adds a message to the conversation, creating it when absent.
func (m *ContextMesh) Append(ctx context.Context, conversationID string, msg core.Message) (*core.Conversation, error) {
	return m.conversations.Append(ctx, conversationID, msg)
}

// Compact returns the conversation's messages fitted to the configured budget.
func (m *ContextMesh) Compact(ctx context.Context, conversationID string) ([]core.Message, error) {
	conv, err := m.conversations.Get(conversationID)
	if err != nil {
		return nil, err
	}
	return m.compactor.Compact(ctx, conv), nil
}

// PrepareRequest assembles the payload for a downstream reasoning call: the
// compacted message sequence for the conversation plus the memories relevant
// to the given scopes and query.
func (m *ContextMesh) PrepareRequest(ctx context.Context, conversationID string, f memory.Filter, query string) (Request, error) {
	msgs, err := m.Compact(ctx, conversationID)
	if err != nil {
		return Request{}, err
	}
	return Request{Messages: msgs, Memories: m.memories.Relevant(f, query)}, nil
}

// GenerateTitle names the conversation, falling back to a default title on
// collaborator failure.
func (m *ContextMesh) GenerateTitle(ctx context.Context, conversationID string) (conversation.TitleOutcome, error) {
	return m.conversations.GenerateTitle(ctx, conversationID)
}

// Summarize condenses the conversation, falling back to fixed texts when the
// conversation is too short or the collaborator fails.
func (m *ContextMesh) Summarize(ctx context.Context, conversationID string) (conversation.SummaryOutcome, error) {
	return m.conversations.Summarize(ctx, conversationID)
}
