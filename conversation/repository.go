package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/logging"
)

const (
	// DefaultKeyPrefix prefixes the adapter keys conversations are stored under.
	DefaultKeyPrefix = "contextmesh/conversation/"
	// DefaultIndexKey is the adapter key holding the list of known conversation ids.
	DefaultIndexKey = "contextmesh/conversations"

	// TitlePromptMaxMessages and TitlePromptMaxChars bound the prompt built
	// for title generation.
	TitlePromptMaxMessages = 3
	TitlePromptMaxChars    = 500

	// SummaryPromptMaxChars bounds the transcript excerpt handed to the summarizer.
	SummaryPromptMaxChars = 5000
	// MinMessagesToSummarize is the threshold below which Summarize answers
	// locally without consulting the collaborator.
	MinMessagesToSummarize = 3

	// DefaultTitle is the fallback when title generation fails or returns nothing.
	DefaultTitle = "Untitled Conversation"
	// TooShortSummaryText is the fixed result for conversations below the
	// summarize threshold.
	TooShortSummaryText = "Conversation is too short to summarize."
	// FailedSummaryText is the fallback when the summarizer fails or times out.
	FailedSummaryText = "Summary unavailable."
)

// TitleOutcome carries a title plus how it was produced. Status is
// core.StatusFallback when the collaborator failed or answered empty; the
// Title is usable either way.
type TitleOutcome struct {
	Title  string      `json:"title"`
	Status core.Status `json:"status"`
}

// SummaryOutcome carries a summary plus how it was produced. On
// core.StatusTooShort and core.StatusFallback the Summary holds a fixed,
// documented text and nothing is persisted.
type SummaryOutcome struct {
	Summary core.Summary `json:"summary"`
	Status  core.Status  `json:"status"`
}

// Options configures a Repository.
type Options struct {
	// Summarizer backs Summarize. May be nil; Summarize then always falls back.
	Summarizer core.Summarizer
	// Titles backs GenerateTitle. May be nil; GenerateTitle then always falls back.
	Titles core.TitleGenerator
	// Projects resolves metadata for project-linked conversations. May be nil.
	Projects core.ProjectDirectory
	// Logger receives repository diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
	// KeyPrefix and IndexKey override the adapter keys.
	KeyPrefix string
	IndexKey  string
	// Now overrides the clock, primarily for tests.
	Now func() time.Time
}

// Repository exclusively owns conversation entities. All reads return clones
// so callers can never mutate persisted state in place; all mutations are
// written through to the adapter before returning.
type Repository struct {
	mu         sync.Mutex
	adapter    core.PersistenceAdapter
	summarizer core.Summarizer
	titles     core.TitleGenerator
	projects   core.ProjectDirectory
	logger     logging.Logger
	keyPrefix  string
	indexKey   string
	now        func() time.Time
}

// NewRepository constructs a repository over the given adapter.
func NewRepository(adapter core.PersistenceAdapter, optFns ...func(o *Options)) *Repository {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		KeyPrefix: DefaultKeyPrefix,
		IndexKey:  DefaultIndexKey,
		Now:       time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Repository{
		adapter:    adapter,
		summarizer: opts.Summarizer,
		titles:     opts.Titles,
		projects:   opts.Projects,
		logger:     opts.Logger,
		keyPrefix:  opts.KeyPrefix,
		indexKey:   opts.IndexKey,
		now:        opts.Now,
	}
}

// Append adds a message to the conversation, creating the conversation when
// it does not exist yet (an empty id creates one with a generated id). For
// project-linked conversations the message is annotated with project metadata
// when available; a directory miss is non-fatal. The updated conversation is
// returned as a clone.
func (r *Repository) Append(ctx context.Context, conversationID string, msg core.Message) (*core.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conv *core.Conversation
	if conversationID == "" {
		conv = core.NewConversation(core.NewID())
	} else {
		loaded, ok, err := r.loadLocked(conversationID)
		if err != nil {
			return nil, err
		}
		if ok {
			conv = loaded
		} else {
			conv = core.NewConversation(conversationID)
		}
	}

	if msg.ID == "" {
		msg.ID = core.NewID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.now().UTC()
	}
	r.attachProjectContext(conv, &msg)

	conv.AddMessage(msg)
	if err := r.persistLocked(conv); err != nil {
		return nil, err
	}
	return conv.Clone(), nil
}

// attachProjectContext annotates the message with project metadata when the
// conversation is project-linked and the message lacks it. Failure to resolve
// the project is logged and ignored.
func (r *Repository) attachProjectContext(conv *core.Conversation, msg *core.Message) {
	if conv.ProjectID == "" || r.projects == nil {
		return
	}
	if msg.Metadata != nil && msg.Metadata.ProjectContext != nil {
		return
	}
	project, ok := r.projects.Project(conv.ProjectID)
	if !ok {
		r.logger.Debug("project not found in directory, message stored without project context",
			"conversation_id", conv.ID, "project_id", conv.ProjectID)
		return
	}
	if msg.Metadata == nil {
		msg.Metadata = &core.MessageMetadata{}
	}
	msg.Metadata.ProjectContext = &core.ProjectContext{
		Name:        project.Name,
		Description: project.Description,
		Tags:        append([]string(nil), project.Tags...),
	}
}

// Get returns a clone of the conversation or core.ErrNotFound.
func (r *Repository) Get(id string) (*core.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok, err := r.loadLocked(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, core.ErrNotFound)
	}
	return conv.Clone(), nil
}

// List returns the ids of all known conversations in stable (sorted) order.
func (r *Repository) List() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadIndexLocked()
}

// SetProject links (or unlinks, with an empty id) the conversation to a project.
func (r *Repository) SetProject(conversationID, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok, err := r.loadLocked(conversationID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}
	conv.ProjectID = projectID
	conv.Updated = r.now().UTC()
	return r.persistLocked(conv)
}

// GenerateTitle names the conversation from its opening messages. Any
// collaborator failure or empty response yields the default title with
// StatusFallback; a generated title is persisted onto the conversation.
func (r *Repository) GenerateTitle(ctx context.Context, conversationID string) (TitleOutcome, error) {
	r.mu.Lock()
	conv, ok, err := r.loadLocked(conversationID)
	r.mu.Unlock()
	if err != nil {
		return TitleOutcome{}, err
	}
	if !ok {
		return TitleOutcome{}, fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}

	if r.titles == nil {
		return TitleOutcome{Title: DefaultTitle, Status: core.StatusFallback}, nil
	}

	start := time.Now()
	res, err := r.titles.GenerateTitle(ctx, core.TitleRequest{
		ConversationID: conv.ID,
		Content:        titlePrompt(conv),
	})
	if err != nil || res.Title == "" {
		r.logger.Warn("title generation failed, using default",
			"conversation_id", conv.ID, "duration", time.Since(start), "error", err)
		return TitleOutcome{Title: DefaultTitle, Status: core.StatusFallback}, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-load so a concurrent append between the collaborator call and this
	// write is not clobbered.
	if current, ok, loadErr := r.loadLocked(conversationID); loadErr == nil && ok {
		current.Title = res.Title
		current.Updated = r.now().UTC()
		if persistErr := r.persistLocked(current); persistErr != nil {
			return TitleOutcome{}, persistErr
		}
	}
	return TitleOutcome{Title: res.Title, Status: core.StatusOK}, nil
}

// Summarize condenses the conversation. Conversations with fewer than
// MinMessagesToSummarize messages receive a fixed too-short result without
// any collaborator call; collaborator failures yield a fixed fallback text.
// A successful summary is cached on the conversation and persisted.
func (r *Repository) Summarize(ctx context.Context, conversationID string) (SummaryOutcome, error) {
	r.mu.Lock()
	conv, ok, err := r.loadLocked(conversationID)
	r.mu.Unlock()
	if err != nil {
		return SummaryOutcome{}, err
	}
	if !ok {
		return SummaryOutcome{}, fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}

	if len(conv.Messages) < MinMessagesToSummarize {
		return SummaryOutcome{
			Summary: core.Summary{Summary: TooShortSummaryText},
			Status:  core.StatusTooShort,
		}, nil
	}
	if r.summarizer == nil {
		return SummaryOutcome{
			Summary: core.Summary{Summary: FailedSummaryText},
			Status:  core.StatusFallback,
		}, nil
	}

	start := time.Now()
	res, err := r.summarizer.Summarize(ctx, core.SummarizeRequest{
		ConversationID: conv.ID,
		Content:        conv.Transcript(SummaryPromptMaxChars),
	})
	if err != nil || res.Summary == "" {
		r.logger.Warn("summarization failed, using fallback",
			"conversation_id", conv.ID, "duration", time.Since(start), "error", err)
		return SummaryOutcome{
			Summary: core.Summary{Summary: FailedSummaryText},
			Status:  core.StatusFallback,
		}, nil
	}

	summary := core.Summary{Summary: res.Summary, KeyPoints: res.KeyPoints}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok, loadErr := r.loadLocked(conversationID); loadErr == nil && ok {
		current.SetSummary(summary)
		if persistErr := r.persistLocked(current); persistErr != nil {
			return SummaryOutcome{}, persistErr
		}
	}
	return SummaryOutcome{Summary: summary, Status: core.StatusOK}, nil
}

// titlePrompt joins the first few messages into a bounded prompt excerpt.
func titlePrompt(conv *core.Conversation) string {
	excerpt := ""
	for i, msg := range conv.Messages {
		if i >= TitlePromptMaxMessages {
			break
		}
		if i > 0 {
			excerpt += "\n"
		}
		excerpt += msg.Role + ": " + msg.Content
		if len(excerpt) >= TitlePromptMaxChars {
			break
		}
	}
	if len(excerpt) > TitlePromptMaxChars {
		excerpt = excerpt[:TitlePromptMaxChars]
	}
	return excerpt
}

func (r *Repository) key(id string) string { return r.keyPrefix + id }

// loadLocked reads one conversation blob. A malformed blob is discarded with
// a warning and reported as absent. Caller must hold the lock.
func (r *Repository) loadLocked(id string) (*core.Conversation, bool, error) {
	raw, ok, err := r.adapter.Load(r.key(id))
	if err != nil {
		return nil, false, fmt.Errorf("load conversation %s: %w", id, err)
	}
	if !ok {
		return nil, false, nil
	}
	var conv core.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		r.logger.Warn("discarding malformed conversation blob", "conversation_id", id, "error", err)
		return nil, false, nil
	}
	return &conv, true, nil
}

// persistLocked writes the conversation and keeps the index current. Caller
// must hold the lock.
func (r *Repository) persistLocked(conv *core.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation %s: %w", conv.ID, err)
	}
	if err := r.adapter.Save(r.key(conv.ID), raw); err != nil {
		return fmt.Errorf("persist conversation %s: %w", conv.ID, err)
	}

	ids, err := r.loadIndexLocked()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == conv.ID {
			return nil
		}
	}
	ids = append(ids, conv.ID)
	sort.Strings(ids)
	rawIdx, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode conversation index: %w", err)
	}
	if err := r.adapter.Save(r.indexKey, rawIdx); err != nil {
		return fmt.Errorf("persist conversation index: %w", err)
	}
	return nil
}

// loadIndexLocked reads the id index; absent or malformed starts empty.
func (r *Repository) loadIndexLocked() ([]string, error) {
	raw, ok, err := r.adapter.Load(r.indexKey)
	if err != nil {
		return nil, fmt.Errorf("load conversation index: %w", err)
	}
	if !ok {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		r.logger.Warn("discarding malformed conversation index", "error", err)
		return []string{}, nil
	}
	return ids, nil
}
