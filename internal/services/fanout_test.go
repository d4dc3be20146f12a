package services

import (
	"context"
	"errors"
	"testing"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) ListAllUserIDs(ctx context.Context) ([]uint, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]uint)
	return ids, args.Error(1)
}

func TestFanout_ForNewPostSkipsActor(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("ListAllUserIDs", mock.Anything).Return([]uint{1, 2, 3, 4}, nil).Once()

	records, err := NewFanoutEngine(dir).ForNewPost(context.Background(), 2, "post-1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	var receivers []uint
	for _, r := range records {
		assert.Equal(t, models.NotificationPost, r.Type)
		assert.Equal(t, uint(2), r.SenderID)
		assert.NotEqual(t, r.SenderID, r.ReceiverID)
		assert.Equal(t, MessageNewPost, r.Message)
		require.NotNil(t, r.PostID)
		assert.Equal(t, "post-1", *r.PostID)
		receivers = append(receivers, r.ReceiverID)
	}
	assert.Equal(t, []uint{1, 3, 4}, receivers)
	dir.AssertExpectations(t)
}

func TestFanout_ForNewPostAloneProducesNothing(t *testing.T) {
	dir := &mockDirectory{}
	dir.On("ListAllUserIDs", mock.Anything).Return([]uint{5}, nil)

	records, err := NewFanoutEngine(dir).ForNewPost(context.Background(), 5, "p")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFanout_ForNewPostDirectoryError(t *testing.T) {
	boom := errors.New("directory unavailable")
	dir := &mockDirectory{}
	dir.On("ListAllUserIDs", mock.Anything).Return(nil, boom)

	_, err := NewFanoutEngine(dir).ForNewPost(context.Background(), 1, "p")
	assert.ErrorIs(t, err, boom)
}

func TestFanout_ForSharePost(t *testing.T) {
	engine := NewFanoutEngine(&mockDirectory{})

	assert.Empty(t, engine.ForSharePost(3, PostRef{ID: "p", AuthorID: 3}))

	records := engine.ForSharePost(3, PostRef{ID: "p", AuthorID: 8})
	require.Len(t, records, 1)
	assert.Equal(t, models.NotificationShare, records[0].Type)
	assert.Equal(t, uint(3), records[0].SenderID)
	assert.Equal(t, uint(8), records[0].ReceiverID)
	assert.Equal(t, MessageSharePost, records[0].Message)
}

func TestFanout_ForFollow(t *testing.T) {
	n := NewFanoutEngine(&mockDirectory{}).ForFollow(1, 2)
	assert.Equal(t, models.NotificationFollow, n.Type)
	assert.Equal(t, uint(1), n.SenderID)
	assert.Equal(t, uint(2), n.ReceiverID)
	assert.Equal(t, MessageFollow, n.Message)
	assert.Nil(t, n.PostID)
}

func TestFanout_ForLikeAndComment(t *testing.T) {
	engine := NewFanoutEngine(&mockDirectory{})
	post := PostRef{ID: "p", AuthorID: 4}

	assert.Empty(t, engine.ForLike(4, post))
	assert.Empty(t, engine.ForComment(4, post, "1"))

	likes := engine.ForLike(6, post)
	require.Len(t, likes, 1)
	assert.Equal(t, models.NotificationLike, likes[0].Type)
	assert.Equal(t, uint(4), likes[0].ReceiverID)
	assert.Nil(t, likes[0].CommentID)

	comments := engine.ForComment(6, post, "12")
	require.Len(t, comments, 1)
	assert.Equal(t, models.NotificationComment, comments[0].Type)
	assert.Equal(t, MessageComment, comments[0].Message)
	require.NotNil(t, comments[0].CommentID)
	assert.Equal(t, "12", *comments[0].CommentID)
}
