// Package openai backs the Summarizer and TitleGenerator contracts with the
// OpenAI Chat Completions API.
package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"

	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/model"
)

// Options configure the OpenAI client adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Timeout bounds each request when the caller's context carries no
	// deadline. No retries; callers fall back to default values.
	Timeout time.Duration
}

// Client wraps the OpenAI Chat Completions API behind the core.Summarizer and
// core.TitleGenerator contracts.
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient creates a new OpenAI client using the official SDK.
func NewClient(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewClientFromClient(&client, optFns...)
}

// NewClientFromClient creates a new adapter from an existing SDK client.
func NewClientFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.3,
		MaxCompletionTokens: 1024,
		Timeout:             20 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
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

// complete issues a single-turn chat completion and returns the first choice's text.
func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.opts.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opts.Timeout)
}
