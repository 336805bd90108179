package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-ask-client/internal/dto"
	"blog-ask-client/internal/pkg/logger"
	"blog-ask-client/pkg/ask"
)

func TestBeginExchangeCreatesBothTurns(t *testing.T) {
	s := New(nil, logger.NewNopLogger())

	userID, assistantID, err := s.BeginExchange("what is RAG?", nil)
	require.NoError(t, err)
	assert.NotEqual(t, userID, assistantID)

	snap := s.Exchange()
	assert.True(t, snap.Sending)
	assert.Nil(t, snap.SessionID)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, dto.MessageRoleUser, snap.Messages[0].Role)
	assert.Equal(t, "what is RAG?", snap.Messages[0].Content)
	assert.Equal(t, dto.MessageRoleAssistant, snap.Messages[1].Role)
	assert.Empty(t, snap.Messages[1].Content)
	assert.True(t, snap.Messages[0].CreatedAt.Before(snap.Messages[1].CreatedAt))
}

func TestBeginExchangeRejectsConcurrentSend(t *testing.T) {
	s := New(nil, logger.NewNopLogger())

	_, _, err := s.BeginExchange("first", nil)
	require.NoError(t, err)
	_, _, err = s.BeginExchange("second", nil)
	assert.ErrorIs(t, err, ErrExchangeInFlight)

	s.EndExchange()
	_, _, err = s.BeginExchange("third", nil)
	assert.NoError(t, err)
}

func TestLocalIDsNeverReused(t *testing.T) {
	s := New(nil, logger.NewNopLogger())

	u1, a1, err := s.BeginExchange("one", nil)
	require.NoError(t, err)
	s.EndExchange()
	s.Reset("owner-2")

	u2, a2, err := s.BeginExchange("two", nil)
	require.NoError(t, err)
	assert.Greater(t, u2, a1)
	assert.Greater(t, a2, u2)
	_ = u1
}

func TestExchangeStreamUpdates(t *testing.T) {
	s := New(nil, logger.NewNopLogger())
	_, assistantID, err := s.BeginExchange("q", nil)
	require.NoError(t, err)

	s.AppendAnswerChunk(assistantID, "Hi ")
	s.AppendAnswerChunk(assistantID, "there")
	s.SetExistInPost(assistantID, true)
	s.SetSearchPlan(assistantID, ask.SearchPlan{Mode: "hybrid", TopK: 5})
	s.SetRewrites(assistantID, []string{"rephrased"})
	s.SetKeywords(assistantID, []string{"rag"})
	s.SetHybridResults(assistantID, []ask.ContextItem{{PostID: "1", PostTitle: "A"}})
	s.SetSearchResults(assistantID, []ask.ContextItem{{PostID: "2", PostTitle: "B"}})
	s.SetContext(assistantID, []ask.ContextItem{{PostID: "3", PostTitle: "C"}})

	snap := s.Exchange()
	turn := snap.Messages[1]
	assert.Equal(t, "Hi there", turn.Content)
	require.NotNil(t, turn.ExistInPost)
	assert.True(t, *turn.ExistInPost)
	require.True(t, turn.PlanReceived)
	assert.Equal(t, "hybrid", turn.Plan.Mode)
	assert.True(t, turn.RewritesReceived)
	assert.True(t, turn.KeywordsReceived)
	assert.True(t, turn.HybridReceived)
	assert.True(t, turn.SearchReceived)
	assert.True(t, turn.ContextReceived)

	// An unknown local id (e.g. from an ended exchange) is a no-op.
	s.AppendAnswerChunk(assistantID+100, "stray")
	assert.Equal(t, "Hi there", s.Exchange().Messages[1].Content)
}

func TestBindExchangeSession(t *testing.T) {
	s := New(nil, logger.NewNopLogger())
	_, _, err := s.BeginExchange("q", nil)
	require.NoError(t, err)

	s.BindExchangeSession(42)
	snap := s.Exchange()
	require.NotNil(t, snap.SessionID)
	assert.Equal(t, int64(42), *snap.SessionID)
}

func TestCompleteExchangeRefetchesThenClears(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var gotDirection dto.Direction
	var gotCursor *string
	api := &fakeSessionAPI{
		listMessages: func(ctx context.Context, sessionID int64, direction dto.Direction, cursor *string, limit int) (*dto.MessageListResponse, error) {
			gotDirection = direction
			gotCursor = cursor
			return &dto.MessageListResponse{
				Messages: []dto.ChatSessionMessage{
					msg(1, "q", base),
					msg(2, "a", base.Add(time.Second)),
				},
			}, nil
		},
	}
	s := New(api, logger.NewNopLogger())
	_, assistantID, err := s.BeginExchange("q", nil)
	require.NoError(t, err)
	s.AppendAnswerChunk(assistantID, "a")
	s.BindExchangeSession(5)

	require.NoError(t, s.CompleteExchange(context.Background(), 5))

	assert.Equal(t, dto.DirectionBackward, gotDirection)
	assert.Nil(t, gotCursor)

	snap := s.Exchange()
	assert.False(t, snap.Sending)
	assert.Empty(t, snap.Messages, "the live buffer clears only after the refetch lands")
	assert.Equal(t, []int64{1, 2}, ids(s.Messages(5).Messages))
}

func TestCompleteExchangeRefetchFailureKeepsBuffer(t *testing.T) {
	api := &fakeSessionAPI{
		listMessages: func(ctx context.Context, sessionID int64, direction dto.Direction, cursor *string, limit int) (*dto.MessageListResponse, error) {
			return nil, assert.AnError
		},
	}
	s := New(api, logger.NewNopLogger())
	_, assistantID, err := s.BeginExchange("q", nil)
	require.NoError(t, err)
	s.AppendAnswerChunk(assistantID, "partial answer")

	require.Error(t, s.CompleteExchange(context.Background(), 5))

	snap := s.Exchange()
	assert.False(t, snap.Sending)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "partial answer", snap.Messages[1].Content, "streamed content stays visible")
	assert.NotEmpty(t, snap.Error)
}

func TestFailExchange(t *testing.T) {
	s := New(nil, logger.NewNopLogger())
	_, assistantID, err := s.BeginExchange("q", nil)
	require.NoError(t, err)
	s.AppendAnswerChunk(assistantID, "partial")

	s.FailExchange("stream interrupted")

	snap := s.Exchange()
	assert.False(t, snap.Sending)
	assert.Equal(t, "stream interrupted", snap.Error)
	assert.Equal(t, "partial", snap.Messages[1].Content)
}
