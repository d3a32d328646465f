// Package anthropic backs the Summarizer and TitleGenerator contracts with
// the Anthropic Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/model"
)

// Options configures the Anthropic client adapter (model id, max tokens,
// temperature, API key, request timeout). Extend via functional options to
// preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	// Timeout bounds each request when the caller's context carries no
	// deadline. Failed or timed out requests are never retried here; callers
	// fall back to default values.
	Timeout time.Duration
}

// Client wraps the Anthropic Messages API behind the core.Summarizer and
// core.TitleGenerator contracts.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// NewClient creates a new Anthropic client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Client{client: &client, opts: opts}
}

// NewClientFromClient creates a new adapter from an existing SDK client.
func NewClientFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.3,
		MaxTokens:   1024,
		Timeout:     20 * time.Second,
	}
}

// Summarize implements core.Summarizer.
func (c *Client) Summarize(ctx context.Context, req core.SummarizeRequest) (core.SummarizeResult, error) {
	text, err := c.complete(ctx, model.SummarizeSystemPrompt, model.SummarizePrompt(req.Content))
	if err != nil {
		return core.SummarizeResult{}, err
	}
	res := model.NormalizeSummary(text)
	if res.Summary == "" {
		return core.SummarizeResult{}, fmt.Errorf("empty summary response")
	}
	return res, nil
}

// GenerateTitle implements core.TitleGenerator.
func (c *Client) GenerateTitle(ctx context.Context, req core.TitleRequest) (core.TitleResult, error) {
	text, err := c.complete(ctx, model.TitleSystemPrompt, model.TitlePrompt(req.Content))
	if err != nil {
		return core.TitleResult{}, err
	}
	res := model.NormalizeTitle(text)
	if res.Title == "" {
		return core.TitleResult{}, fmt.Errorf("empty title response")
	}
	return res, nil
}

// complete issues a single-turn request and concatenates the text blocks of
// the response.
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String(), nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opts.Timeout)
}
