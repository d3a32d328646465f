package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scope identifies the visibility partition a memory lives in. A memory
// belongs to exactly one scope bucket; global memories are visible everywhere,
// project and agent memories only when that project / agent is active.
type Scope string

const (
	// ScopeGlobal marks memories visible in every context.
	ScopeGlobal Scope = "global"
	// ScopeProject marks memories visible only when their project is active.
	ScopeProject Scope = "project"
	// ScopeAgent marks memories visible only when their agent is active.
	ScopeAgent Scope = "agent"
)

// ScopeRef addresses a concrete scope bucket. Key is required for project and
// agent scopes and ignored for the global scope.
type ScopeRef struct {
	Scope Scope  `json:"scope"`
	Key   string `json:"key,omitempty"`
}

// GlobalScope returns the ScopeRef for the global bucket.
func GlobalScope() ScopeRef { return ScopeRef{Scope: ScopeGlobal} }

// ProjectScope returns the ScopeRef for a project bucket.
func ProjectScope(projectID string) ScopeRef {
	return ScopeRef{Scope: ScopeProject, Key: projectID}
}

// AgentScope returns the ScopeRef for an agent bucket.
func AgentScope(agentID string) ScopeRef {
	return ScopeRef{Scope: ScopeAgent, Key: agentID}
}

// DefaultImportance is assigned to memories written without an explicit
// importance rating (valid range 1-5).
const DefaultImportance = 3

// Memory is a titled, tagged fact persisted in one of the three scopes for
// later retrieval. Content is the identity-bearing field: two memories with
// byte-identical trimmed content are considered the same fact by the merge
// policy.
type Memory struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags,omitempty"`
	Importance int       `json:"importance"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

// HasTag reports whether the memory carries the given tag (case sensitive).
func (m Memory) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Matches reports whether the memory's content, title or any tag contains the
// query case-insensitively. An empty query matches everything.
func (m Memory) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(m.Content), q) || strings.Contains(strings.ToLower(m.Title), q) {
		return true
	}
	for _, t := range m.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Conversation roles. Only these three appear in persisted messages; the
// compactor additionally emits synthetic system messages carrying summaries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ProjectContext is the project metadata attached to messages written inside a
// project-linked conversation.
type ProjectContext struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// MessageMetadata carries optional per-message annotations.
type MessageMetadata struct {
	ProjectContext *ProjectContext `json:"project_context,omitempty"`
}

// Message is a single conversation turn. After persistence it should be
// treated as immutable.
type Message struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// NewMessage constructs a message with a fresh id and UTC timestamp.
func NewMessage(role, content string) Message {
	return Message{ID: NewID(), Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// NewUserMessage is a convenience wrapper for a user-authored message.
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage is a convenience wrapper for an assistant message.
func NewAssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// Summary is a cached condensation of a conversation.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// Conversation is an ordered, append-only sequence of messages, optionally
// linked to a project and optionally carrying a cached summary.
//
// Contract:
//   - Messages is append-only; existing entries are never rewritten
//   - Summary may be stale relative to the newest messages;
//     MessageCountAtSummary records how many messages existed when it was
//     computed so callers can detect staleness
//   - Clone performs deep copies for safe divergence.
type Conversation struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title,omitempty"`
	ProjectID             string    `json:"project_id,omitempty"`
	Messages              []Message `json:"messages"`
	Summary               *Summary  `json:"summary,omitempty"`
	MessageCountAtSummary int       `json:"message_count_at_summary,omitempty"`
	Created               time.Time `json:"created"`
	Updated               time.Time `json:"updated"`
}

// NewConversation creates an empty conversation with the given id.
func NewConversation(id string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{ID: id, Messages: []Message{}, Created: now, Updated: now}
}

// AddMessage appends a message and bumps the Updated timestamp.
func (c *Conversation) AddMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.Updated = time.Now().UTC()
}

// SetSummary caches a summary together with the current message count.
func (c *Conversation) SetSummary(s Summary) {
	c.Summary = &Summary{Summary: s.Summary, KeyPoints: append([]string(nil), s.KeyPoints...)}
	c.MessageCountAtSummary = len(c.Messages)
	c.Updated = time.Now().UTC()
}

// SummaryStale reports whether messages were appended after the cached
// summary was computed (false when no summary exists).
func (c *Conversation) SummaryStale() bool {
	return c.Summary != nil && len(c.Messages) > c.MessageCountAtSummary
}

// Transcript renders the conversation as role-prefixed lines, truncated to
// maxChars (0 means unlimited). This is the canonical prompt form handed to
// summarization clients.
func (c *Conversation) Transcript(maxChars int) string {
	var b strings.Builder
	for i, msg := range c.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		if maxChars > 0 && b.Len() >= maxChars {
			break
		}
	}
	s := b.String()
	if maxChars > 0 && len(s) > maxChars {
		s = s[:maxChars]
	}
	return s
}

// Clone returns a deep copy of the conversation safe for independent mutation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]Message, len(c.Messages))
	copy(clone.Messages, c.Messages)
	if c.Summary != nil {
		s := Summary{Summary: c.Summary.Summary, KeyPoints: append([]string(nil), c.Summary.KeyPoints...)}
		clone.Summary = &s
	}
	return &clone
}

// Project is the directory record describing a project a conversation may be
// linked to. Consumed, not owned: the authoritative project list lives with an
// external collaborator.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// NewID generates a globally unique identifier for memories, messages and
// conversations.
func NewID() string { return uuid.NewString() }
