package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeAndCommentNotifyAuthor(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob := &s.users[0], &s.users[1]

	post := &models.Post{UserID: alice.ID, Message: "hello"}
	require.NoError(t, s.posts.CreatePost(t.Context(), post))
	postPath := "/api/v1/posts/" + post.ID.Hex()

	// the author liking their own post notifies nobody
	rec, _ := s.do(t, alice, http.MethodPost, postPath+"/likes", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, bob, http.MethodPost, postPath+"/likes", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	summary := decode[models.LikeSummary](t, env.Data)
	assert.Equal(t, int64(2), summary.Count)
	assert.True(t, summary.Liked)

	rec, _ = s.do(t, bob, http.MethodPost, postPath+"/likes", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = s.do(t, bob, http.MethodPost, postPath+"/comments", map[string]string{"content": "nice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	comment := decode[models.Comment](t, env.Data)

	rec, env = s.do(t, alice, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[models.NotificationPage](t, env.Data).Items
	require.Len(t, items, 2)
	assert.Equal(t, models.NotificationComment, items[0].Type)
	require.NotNil(t, items[0].CommentID)
	assert.Equal(t, fmt.Sprint(comment.ID), *items[0].CommentID)
	assert.Equal(t, models.NotificationLike, items[1].Type)

	rec, _ = s.do(t, alice, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", comment.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, bob, http.MethodPut, fmt.Sprintf("/api/v1/comments/%d", comment.ID), map[string]string{"content": "very nice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "very nice", decode[models.Comment](t, env.Data).Content)

	rec, env = s.do(t, alice, http.MethodGet, postPath+"/comments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Comment](t, env.Data), 1)

	rec, _ = s.do(t, bob, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", comment.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = s.do(t, bob, http.MethodDelete, postPath+"/likes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.LikeSummary](t, env.Data).Liked)
}
