package conversation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/contextmesh/conversation"
	"github.com/hupe1980/contextmesh/core"
	"github.com/hupe1980/contextmesh/model"
	"github.com/hupe1980/contextmesh/persistence"
)

type staticDirectory map[string]core.Project

func (d staticDirectory) Project(id string) (core.Project, bool) {
	p, ok := d[id]
	return p, ok
}

func TestRepository_AppendCreatesConversation(t *testing.T) {
	repo := conversation.NewRepository(persistence.NewInMemoryStore())

	conv, err := repo.Append(context.Background(), "", core.NewUserMessage("first"))
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID, "empty id should be generated")
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "first", conv.Messages[0].Content)
	assert.False(t, conv.Messages[0].Timestamp.IsZero())

	ids, err := repo.List()
	require.NoError(t, err)
	assert.Equal(t, []string{conv.ID}, ids)

	// append to the existing conversation by id
	conv2, err := repo.Append(context.Background(), conv.ID, core.NewAssistantMessage("second"))
	require.NoError(t, err)
	require.Len(t, conv2.Messages, 2)
}

func TestRepository_AppendAttachesProjectContext(t *testing.T) {
	adapter := persistence.NewInMemoryStore()
	dir := staticDirectory{
		"p1": {ID: "p1", Name: "Phoenix", Description: "rewrite", Tags: []string{"infra"}},
	}
	repo := conversation.NewRepository(adapter, func(o *conversation.Options) {
		o.Projects = dir
	})

	conv, err := repo.Append(context.Background(), "c1", core.NewUserMessage("start"))
	require.NoError(t, err)
	require.NoError(t, repo.SetProject(conv.ID, "p1"))

	conv2, err := repo.Append(context.Background(), "c1", core.NewUserMessage("inside project"))
	require.NoError(t, err)
	msg := conv2.Messages[1]
	require.NotNil(t, msg.Metadata)
	require.NotNil(t, msg.Metadata.ProjectContext)
	assert.Equal(t, "Phoenix", msg.Metadata.ProjectContext.Name)

	// directory miss is non-fatal
	require.NoError(t, repo.SetProject(conv.ID, "unknown"))
	conv3, err := repo.Append(context.Background(), "c1", core.NewUserMessage("still works"))
	require.NoError(t, err)
	assert.Nil(t, conv3.Messages[2].Metadata)
}

func TestRepository_GetNotFound(t *testing.T) {
	repo := conversation.NewRepository(persistence.NewInMemoryStore())
	_, err := repo.Get("nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_GenerateTitle(t *testing.T) {
	mock := model.NewMock("", "Deploy Planning")
	repo := conversation.NewRepository(persistence.NewInMemoryStore(), func(o *conversation.Options) {
		o.Titles = mock
	})
	conv, err := repo.Append(context.Background(), "", core.NewUserMessage("how do we deploy?"))
	require.NoError(t, err)

	out, err := repo.GenerateTitle(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, out.Status)
	assert.Equal(t, "Deploy Planning", out.Title)

	persisted, err := repo.Get(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Deploy Planning", persisted.Title, "generated title should be persisted")
}

func TestRepository_GenerateTitleFallsBack(t *testing.T) {
	mock := model.NewMock("", "")
	mock.Err = errors.New("collaborator down")
	repo := conversation.NewRepository(persistence.NewInMemoryStore(), func(o *conversation.Options) {
		o.Titles = mock
	})
	conv, err := repo.Append(context.Background(), "", core.NewUserMessage("hello"))
	require.NoError(t, err)

	out, err := repo.GenerateTitle(context.Background(), conv.ID)
	require.NoError(t, err, "collaborator failure must not surface as an error")
	assert.Equal(t, core.StatusFallback, out.Status)
	assert.Equal(t, conversation.DefaultTitle, out.Title)

	persisted, err := repo.Get(conv.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted.Title, "fallback title must not be persisted")
}

func TestRepository_SummarizeTooShortSkipsCollaborator(t *testing.T) {
	mock := model.NewMock("never", "")
	repo := conversation.NewRepository(persistence.NewInMemoryStore(), func(o *conversation.Options) {
		o.Summarizer = mock
	})
	conv, err := repo.Append(context.Background(), "", core.NewUserMessage("one"))
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), conv.ID, core.NewAssistantMessage("two"))
	require.NoError(t, err)

	out, err := repo.Summarize(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusTooShort, out.Status)
	assert.Equal(t, conversation.TooShortSummaryText, out.Summary.Summary)
	assert.Equal(t, 0, mock.SummarizeCalls(), "too-short conversations must not hit the collaborator")
}

func TestRepository_SummarizePersistsResult(t *testing.T) {
	mock := model.NewMock("three turns about deploys", "")
	mock.KeyPoints = []string{"deploys", "fridays"}
	repo := conversation.NewRepository(persistence.NewInMemoryStore(), func(o *conversation.Options) {
		o.Summarizer = mock
	})
	conv, err := repo.Append(context.Background(), "", core.NewUserMessage("one"))
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), conv.ID, core.NewAssistantMessage("two"))
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), conv.ID, core.NewUserMessage("three"))
	require.NoError(t, err)

	out, err := repo.Summarize(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, out.Status)
	assert.Equal(t, "three turns about deploys", out.Summary.Summary)
	assert.Equal(t, []string{"deploys", "fridays"}, out.Summary.KeyPoints)

	persisted, err := repo.Get(conv.ID)
	require.NoError(t, err)
	require.NotNil(t, persisted.Summary)
	assert.Equal(t, "three turns about deploys", persisted.Summary.Summary)
	assert.Equal(t, 3, persisted.MessageCountAtSummary)
}

func TestRepository_SummarizeFallsBackOnFailure(t *testing.T) {
	mock := model.NewMock("", "")
	mock.Err = errors.New("timeout")
	repo := conversation.NewRepository(persistence.NewInMemoryStore(), func(o *conversation.Options) {
		o.Summarizer = mock
	})
	conv, err := repo.Append(context.Background(), "", core.NewUserMessage("one"))
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), conv.ID, core.NewAssistantMessage("two"))
	require.NoError(t, err)
	_, err = repo.Append(context.Background(), conv.ID, core.NewUserMessage("three"))
	require.NoError(t, err)

	out, err := repo.Summarize(context.Background(), conv.ID)
	require.NoError(t, err, "collaborator failure must not surface as an error")
	assert.Equal(t, core.StatusFallback, out.Status)
	assert.Equal(t, conversation.FailedSummaryText, out.Summary.Summary)

	persisted, err := repo.Get(conv.ID)
	require.NoError(t, err)
	assert.Nil(t, persisted.Summary, "fallback summary must not be persisted")
}

func TestRepository_MalformedBlobTreatedAsAbsent(t *testing.T) {
	adapter := persistence.NewInMemoryStore()
	require.NoError(t, adapter.Save(conversation.DefaultKeyPrefix+"c1", []byte("{broken")))
	repo := conversation.NewRepository(adapter)

	_, err := repo.Get("c1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// appending starts a fresh conversation under the same id
	conv, err := repo.Append(context.Background(), "c1", core.NewUserMessage("recovered"))
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
}
