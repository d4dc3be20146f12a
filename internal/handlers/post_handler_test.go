package handlers

import (
	"net/http"
	"testing"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob, carol := &s.users[0], &s.users[1], &s.users[2]

	rec, _ := s.do(t, alice, http.MethodPost, "/api/v1/posts", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := s.do(t, alice, http.MethodPost, "/api/v1/posts", map[string]string{"message": "first post"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decode[models.Post](t, env.Data)
	assert.Equal(t, alice.ID, post.UserID)
	postID := post.ID.Hex()

	// self share notifies nobody
	rec, _ = s.do(t, alice, http.MethodPost, "/api/v1/posts/"+postID+"/share", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = s.do(t, alice, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.NotificationPage](t, env.Data).Items)

	rec, env = s.do(t, bob, http.MethodPost, "/api/v1/posts/"+postID+"/share", map[string]string{"message": "look"})
	require.Equal(t, http.StatusCreated, rec.Code)
	shared := decode[models.Post](t, env.Data)
	require.NotNil(t, shared.ParentID)
	assert.Equal(t, postID, shared.ParentID.Hex())

	rec, env = s.do(t, alice, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[models.NotificationPage](t, env.Data).Items
	require.Len(t, items, 1)
	assert.Equal(t, models.NotificationShare, items[0].Type)
	assert.Equal(t, bob.ID, items[0].SenderID)
	require.NotNil(t, items[0].PostID)
	assert.Equal(t, postID, *items[0].PostID)

	rec, _ = s.do(t, carol, http.MethodDelete, "/api/v1/posts/"+postID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, alice, http.MethodDelete, "/api/v1/posts/"+postID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, alice, http.MethodGet, "/api/v1/posts/"+postID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostAttachments(t *testing.T) {
	s := newTestServer(t, nil)
	alice, bob := &s.users[0], &s.users[1]

	rec, env := s.doMultipart(t, alice, http.MethodPost, "/api/v1/posts",
		map[string]string{"message": "holiday"},
		map[string]string{"image/png": "png-bytes", "video/mp4": "mp4-bytes"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[models.Post](t, env.Data)
	require.Len(t, post.FileURLs, 2)
	original := post.FileURLs
	postPath := "/api/v1/posts/" + post.ID.Hex()

	rec, _ = s.doMultipart(t, alice, http.MethodPost, "/api/v1/posts", nil,
		map[string]string{"application/pdf": "pdf-bytes"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, bob, http.MethodPut, postPath, map[string]string{"message": "mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, alice, http.MethodPut, postPath, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// new files replace the old ones, whose objects are removed
	rec, env = s.doMultipart(t, alice, http.MethodPut, postPath,
		map[string]string{"message": "holiday, edited"},
		map[string]string{"image/webp": "webp-bytes"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	post = decode[models.Post](t, env.Data)
	assert.Equal(t, "holiday, edited", post.Message)
	require.Len(t, post.FileURLs, 1)
	assert.ElementsMatch(t, original, s.files.deletedURLs())

	// a message-only edit keeps the files
	rec, env = s.do(t, alice, http.MethodPut, postPath, map[string]string{"message": "final"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, post.FileURLs, decode[models.Post](t, env.Data).FileURLs)

	rec, _ = s.do(t, alice, http.MethodDelete, postPath+"/files", map[string]string{"url": original[0]})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, bob, http.MethodDelete, postPath+"/files", map[string]string{"url": post.FileURLs[0]})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	kept := post.FileURLs[0]
	rec, env = s.do(t, alice, http.MethodDelete, postPath+"/files", map[string]string{"url": kept})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.Post](t, env.Data).FileURLs)
	assert.Contains(t, s.files.deletedURLs(), kept)

	// deleting a post removes its objects
	rec, env = s.doMultipart(t, alice, http.MethodPost, "/api/v1/posts", nil,
		map[string]string{"image/jpeg": "jpeg-bytes"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[models.Post](t, env.Data)

	rec, _ = s.do(t, alice, http.MethodDelete, "/api/v1/posts/"+second.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, s.files.deletedURLs(), second.FileURLs[0])
}
