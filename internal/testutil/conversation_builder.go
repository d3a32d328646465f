package testutil

import (
	"fmt"
	"time"

	"github.com/hupe1980/contextmesh/core"
)

// ConversationBuilder helps construct conversations with fluent chaining for tests.
// Example:
//
//	conv := NewConversationBuilder("c1").Project("p1").Turns(10).Build()
type ConversationBuilder struct {
	id        string
	projectID string
	summary   *core.Summary
	messages  []core.Message
}

// NewConversationBuilder creates a new builder for a conversation with the given id.
// Use chainable methods (Project, Message, Turns, Summary) then call Build.
func NewConversationBuilder(id string) *ConversationBuilder {
	return &ConversationBuilder{id: id}
}

// Project links the resulting conversation to a project (chainable).
func (b *ConversationBuilder) Project(projectID string) *ConversationBuilder {
	b.projectID = projectID
	return b
}

// Message appends a single message (chainable).
func (b *ConversationBuilder) Message(role, content string) *ConversationBuilder {
	b.messages = append(b.messages, core.NewMessage(role, content))
	return b
}

// Turns appends n messages alternating user/assistant with deterministic
// content ("msg-0" ... "msg-n-1") and strictly increasing timestamps (chainable).
func (b *ConversationBuilder) Turns(n int) *ConversationBuilder {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		msg := core.Message{
			ID:        fmt.Sprintf("msg-%d", i),
			Role:      role,
			Content:   fmt.Sprintf("msg-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		b.messages = append(b.messages, msg)
	}
	return b
}

// Summary pre-caches a summary on the resulting conversation (chainable).
func (b *ConversationBuilder) Summary(text string, keyPoints ...string) *ConversationBuilder {
	b.summary = &core.Summary{Summary: text, KeyPoints: keyPoints}
	return b
}

// Build returns a *core.Conversation with the configured messages and summary.
func (b *ConversationBuilder) Build() *core.Conversation {
	c := core.NewConversation(b.id)
	c.ProjectID = b.projectID
	c.Messages = append(c.Messages, b.messages...)
	if b.summary != nil {
		c.SetSummary(*b.summary)
	}
	return c
}
