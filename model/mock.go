package model

import (
	"context"
	"sync"

	"github.com/hupe1980/contextmesh/core"
)

// Mock is a deterministic in-process Summarizer and TitleGenerator useful for
// tests and examples. It records call counts so tests can assert how often a
// collaborator was consulted.
type Mock struct {
	mu sync.Mutex

	// SummaryText and KeyPoints are returned by Summarize when Err is nil.
	SummaryText string
	KeyPoints   []string

	// TitleText is returned by GenerateTitle when Err is nil.
	TitleText string

	// Err, when set, fails every call.
	Err error

	summarizeCalls int
	titleCalls     int
}

// NewMock constructs a Mock with canned responses.
func NewMock(summary, title string) *Mock {
	return &Mock{SummaryText: summary, TitleText: title}
}

// Summarize implements core.Summarizer.
func (m *Mock) Summarize(_ context.Context, _ core.SummarizeRequest) (core.SummarizeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summarizeCalls++
	if m.Err != nil {
		return core.SummarizeResult{}, m.Err
	}
	return core.SummarizeResult{Summary: m.SummaryText, KeyPoints: append([]string(nil), m.KeyPoints...)}, nil
}

// GenerateTitle implements core.TitleGenerator.
func (m *Mock) GenerateTitle(_ context.Context, _ core.TitleRequest) (core.TitleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titleCalls++
	if m.Err != nil {
		return core.TitleResult{}, m.Err
	}
	return core.TitleResult{Title: m.TitleText}, nil
}

// SummarizeCalls returns how many times Summarize was invoked.
func (m *Mock) SummarizeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summarizeCalls
}

// TitleCalls returns how many times GenerateTitle was invoked.
func (m *Mock) TitleCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.titleCalls
}
