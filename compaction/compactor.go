package compaction

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/logging"
)

// SummaryInputMaxChars caps how much role-prefixed transcript is handed to the
// summarizer when no cached summary exists.
const SummaryInputMaxChars = 5000

// Config defines the context budget for a compaction run.
//
// MaxMessages is a target, not a hard ceiling: the reserved first message,
// the summary message and the recent window are never truncated to force an
// exact cap, so output may exceed MaxMessages when the reserved regions alone
// already meet it.
type Config struct {
	// MaxMessages is the target size of the compacted sequence.
	MaxMessages int

	// RecentToKeep is the number of trailing messages always kept verbatim.
	RecentToKeep int

	// IncludeSummary controls whether a synthetic system message carrying a
	// conversation summary is inserted after the first message.
	IncludeSummary bool
}

// DefaultConfig provides the standard context budget.
var DefaultConfig = Config{
	MaxMessages:    10,
	RecentToKeep:   6,
	IncludeSummary: true,
}

// Options configures a Compactor.
type Options struct {
	// Config is the context budget applied to every Compact call.
	Config Config
	// Logger receives compaction diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Compactor produces bounded message sequences from conversations. It only
// reads conversations and returns derived, non-persisted views; the single
// mutation it performs is caching a freshly requested summary on the
// conversation value so repeated runs reuse it.
//
// A cached summary is reused even when messages were appended after it was
// computed; call the conversation repository's Summarize to regenerate.
type Compactor struct {
	summarizer core.Summarizer
	cfg        Config
	logger     logging.Logger
}

// New constructs a Compactor. The summarizer may be nil, in which case
// compaction proceeds without summary messages unless one is already cached.
func New(summarizer core.Summarizer, optFns ...func(o *Options)) *Compactor {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Compactor{summarizer: summarizer, cfg: opts.Config, logger: opts.Logger}
}

// Config returns the budget applied to Compact calls.
func (c *Compactor) Config() Config { return c.cfg }

// Compact returns a message sequence obeying the configured budget. For
// conversations at or under MaxMessages the messages are returned unchanged.
// Otherwise the result is, in order: the first message, an optional summary
// message, a fixed-stride sample of the middle region, and the last
// RecentToKeep messages verbatim. Identical input yields identical output.
//
// A summarizer failure degrades gracefully: the run proceeds without a
// summary message instead of aborting.
func (c *Compactor) Compact(ctx context.Context, conv *core.Conversation) []core.Message {
	start := time.Now()
	msgs := conv.Messages
	n := len(msgs)

	if n <= c.cfg.MaxMessages {
		out := make([]core.Message, n)
		copy(out, msgs)
		return out
	}

	out := make([]core.Message, 0, c.cfg.MaxMessages+2)
	out = append(out, msgs[0])

	summaryAdded := false
	if c.cfg.IncludeSummary {
		if text, ok := c.summaryFor(ctx, conv); ok {
			out = append(out, summaryMessage(text))
			summaryAdded = true
		}
	}

	recentStart := n - c.cfg.RecentToKeep
	if recentStart < 1 {
		recentStart = 1
	}

	middle := msgs[1:recentStart]
	middleBudget := c.cfg.MaxMessages - c.cfg.RecentToKeep - 1
	if summaryAdded {
		middleBudget--
	}
	if middleBudget > 0 && len(middle) > 0 {
		stride := len(middle) / middleBudget
		if stride < 1 {
			stride = 1
		}
		taken := 0
		for i := 0; i < len(middle) && taken < middleBudget; i += stride {
			out = append(out, middle[i])
			taken++
		}
	}

	out = append(out, msgs[recentStart:]...)

	c.logger.Debug("conversation compacted",
		"conversation_id", conv.ID,
		"messages_in", n,
		"messages_out", len(out),
		"summarized", summaryAdded,
		"duration", time.Since(start))
	return out
}

// summaryFor returns the text for the synthetic summary message: the cached
// summary when present, otherwise a fresh one requested from the summarizer
// and cached on the conversation.
func (c *Compactor) summaryFor(ctx context.Context, conv *core.Conversation) (string, bool) {
	if conv.Summary != nil && conv.Summary.Summary != "" {
		return conv.Summary.Summary, true
	}
	if c.summarizer == nil {
		return "", false
	}

	res, err := c.summarizer.Summarize(ctx, core.SummarizeRequest{
		ConversationID: conv.ID,
		Content:        conv.Transcript(SummaryInputMaxChars),
	})
	if err != nil || res.Summary == "" {
		c.logger.Warn("summarizer unavailable, compacting without summary",
			"conversation_id", conv.ID, "error", err)
		return "", false
	}
	conv.SetSummary(core.Summary{Summary: res.Summary, KeyPoints: res.KeyPoints})
	return res.Summary, true
}

func summaryMessage(text string) core.Message {
	return core.NewMessage(core.RoleSystem, fmt.Sprintf("Summary of the earlier conversation: %s", text))
}
