package contextmesh_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contextmesh "github.com/hupe1980/contextmesh"
	"github.com/hupe1980/contextmesh/compaction"
	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/memory"
	"github.com/hupe1980/contextmesh/model"
)

func TestContextMesh_PrepareRequest(t *testing.T) {
	mock := model.NewMock("earlier discussion about rollouts", "Rollout Chat")
	mesh, err := contextmesh.New(func(o *contextmesh.Options) {
		o.Summarizer = mock
		o.Titles = mock
		o.Compaction = compaction.Config{MaxMessages: 6, RecentToKeep: 3, IncludeSummary: true}
	})
	require.NoError(t, err)

	_, err = mesh.Remember(core.Memory{Content: "rollouts happen on tuesdays", Tags: []string{"rollout"}}, core.GlobalScope())
	require.NoError(t, err)
	_, err = mesh.Remember(core.Memory{Content: "p1 uses canary deploys"}, core.ProjectScope("p1"))
	require.NoError(t, err)
	_, err = mesh.Remember(core.Memory{Content: "p2 secret"}, core.ProjectScope("p2"))
	require.NoError(t, err)

	conv, err := mesh.Append(context.Background(), "", core.NewUserMessage("kickoff"))
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		_, err = mesh.Append(context.Background(), conv.ID, core.NewAssistantMessage(fmt.Sprintf("turn %d", i)))
		require.NoError(t, err)
	}

	req, err := mesh.PrepareRequest(context.Background(), conv.ID, memory.Filter{ProjectID: "p1"}, "")
	require.NoError(t, err)

	require.NotEmpty(t, req.Messages)
	assert.Equal(t, "kickoff", req.Messages[0].Content, "first message reserved")
	assert.Equal(t, core.RoleSystem, req.Messages[1].Role, "summary message inserted")
	assert.Equal(t, 1, mock.SummarizeCalls())

	require.Len(t, req.Memories, 2)
	for _, m := range req.Memories {
		assert.NotEqual(t, "p2 secret", m.Content)
	}
}

func TestContextMesh_RememberForgetRecall(t *testing.T) {
	mesh, err := contextmesh.New()
	require.NoError(t, err)

	stored, err := mesh.Remember(core.Memory{Content: "ephemeral"}, core.GlobalScope())
	require.NoError(t, err)
	require.Len(t, mesh.Recall(memory.Filter{}, "ephemeral"), 1)

	require.NoError(t, mesh.Forget(stored.ID))
	assert.Empty(t, mesh.Recall(memory.Filter{}, "ephemeral"))
}

func TestContextMesh_CompactUnknownConversation(t *testing.T) {
	mesh, err := contextmesh.New()
	require.NoError(t, err)

	_, err = mesh.Compact(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
