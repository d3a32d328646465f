package compaction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contextmesh/compaction"
	"github.com/hupe1980/contextmesh/internal/testutil"
	"github.com/hupe1980/contextmesh/model"
)

func TestCompact_IdentityBelowBudget(t *testing.T) {
	conv := testutil.NewConversationBuilder("c1").Turns(6).Build()
	mock := model.NewMock("unused", "")
	c := compaction.New(mock)

	out := c.Compact(context.Background(), conv)

	require.Len(t, out, 6)
	for i, msg := range out {
		assert.Equal(t, conv.Messages[i].ID, msg.ID, "order must be preserved at index %d", i)
	}
	assert.Equal(t, 0, mock.SummarizeCalls(), "identity case must not consult the summarizer")
}

func TestCompact_BudgetWithoutSummary(t *testing.T) {
	conv := testutil.NewConversationBuilder("c2").Turns(20).Build()
	c := compaction.New(nil, func(o *compaction.Options) {
		o.Config = compaction.Config{MaxMessages: 10, RecentToKeep: 6, IncludeSummary: false}
	})

	out := c.Compact(context.Background(), conv)

	require.NotEmpty(t, out)
	assert.Equal(t, "msg-0", out[0].ID, "first message must be reserved verbatim")

	recent := out[len(out)-6:]
	for i, msg := range recent {
		assert.Equal(t, conv.Messages[14+i].ID, msg.ID, "recent window must be verbatim in order")
	}

	middle := out[1 : len(out)-6]
	assert.LessOrEqual(t, len(middle), 3, "middle segment exceeds 10-6-1 budget")
	// fixed stride over msgs[1..13]: 13 middle candidates / budget 3 => stride 4
	require.Len(t, middle, 3)
	assert.Equal(t, "msg-1", middle[0].ID)
	assert.Equal(t, "msg-5", middle[1].ID)
	assert.Equal(t, "msg-9", middle[2].ID)

	// determinism: same input, same output
	again := c.Compact(context.Background(), conv)
	require.Len(t, again, len(out))
	for i := range out {
		assert.Equal(t, out[i].ID, again[i].ID)
	}
}

func TestCompact_FreshSummaryIsRequestedOnceAndCached(t *testing.T) {
	conv := testutil.NewConversationBuilder("c3").Turns(20).Build()
	mock := model.NewMock("what happened so far", "")
	c := compaction.New(mock)

	out := c.Compact(context.Background(), conv)

	assert.Equal(t, 1, mock.SummarizeCalls())
	require.Greater(t, len(out), 2)
	assert.Equal(t, "system", out[1].Role, "summary message should follow the first message")
	assert.Contains(t, out[1].Content, "what happened so far")
	require.NotNil(t, conv.Summary, "fresh summary must be cached on the conversation")
	assert.Equal(t, "what happened so far", conv.Summary.Summary)

	// second run reuses the cache
	c.Compact(context.Background(), conv)
	assert.Equal(t, 1, mock.SummarizeCalls(), "cached summary must be reused")
}

func TestCompact_CachedSummarySkipsCollaborator(t *testing.T) {
	conv := testutil.NewConversationBuilder("c4").Turns(20).Summary("already condensed").Build()
	mock := model.NewMock("should not be asked", "")
	c := compaction.New(mock)

	out := c.Compact(context.Background(), conv)

	assert.Equal(t, 0, mock.SummarizeCalls())
	assert.Contains(t, out[1].Content, "already condensed")
}

func TestCompact_SummarizerFailureDegradesGracefully(t *testing.T) {
	conv := testutil.NewConversationBuilder("c5").Turns(20).Build()
	mock := model.NewMock("", "")
	mock.Err = errors.New("collaborator down")
	c := compaction.New(mock)

	out := c.Compact(context.Background(), conv)

	require.NotEmpty(t, out)
	assert.Equal(t, "msg-0", out[0].ID)
	for _, msg := range out {
		assert.NotEqual(t, "system", msg.Role, "no summary message on collaborator failure")
	}
	// with no summary message the middle budget grows by one: 10-6-1 = 3
	assert.Equal(t, conv.Messages[14].ID, out[len(out)-6].ID)
}

func TestCompact_BudgetIsTargetNotCeiling(t *testing.T) {
	conv := testutil.NewConversationBuilder("c6").Turns(12).Summary("recap").Build()
	c := compaction.New(nil, func(o *compaction.Options) {
		o.Config = compaction.Config{MaxMessages: 7, RecentToKeep: 6, IncludeSummary: true}
	})

	out := c.Compact(context.Background(), conv)

	// reserved regions: first + summary + 6 recent = 8 > MaxMessages
	require.Len(t, out, 8)
	assert.Equal(t, "msg-0", out[0].ID)
	assert.Equal(t, "system", out[1].Role)
	for i := 0; i < 6; i++ {
		assert.Equal(t, conv.Messages[6+i].ID, out[2+i].ID)
	}
}

func TestCompact_DoesNotMutateMessages(t *testing.T) {
	conv := testutil.NewConversationBuilder("c7").Turns(20).Summary("recap").Build()
	c := compaction.New(nil)

	_ = c.Compact(context.Background(), conv)

	require.Len(t, conv.Messages, 20, "compaction must not rewrite the conversation's messages")
	assert.Equal(t, "msg-19", conv.Messages[19].ID)
}
