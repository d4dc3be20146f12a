package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/anonto42/nano-midea/social/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeNotifier is told about every new like.
type LikeNotifier interface {
	OnPostLiked(ctx context.Context, actorID uint, post services.PostRef) ([]models.Notification, error)
}

type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	notifier       LikeNotifier
}

func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, notifier LikeNotifier) *LikeHandler {
	return &LikeHandler{likeRepository: likeRepo, postRepository: postRepo, notifier: notifier}
}

func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.GET("/posts/:id/likes", h.GetLikes)
}

func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	postID := post.ID.Hex()

	liked, err := h.likeRepository.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		return httpError(err)
	}
	if liked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked")
	}

	if err := h.likeRepository.CreateLike(ctx, &models.Like{PostID: postID, UserID: userID}); err != nil {
		return httpError(err)
	}
	if _, err := h.notifier.OnPostLiked(ctx, userID, services.PostRef{ID: postID, AuthorID: post.UserID}); err != nil {
		return httpError(err)
	}
	return h.summary(c, http.StatusCreated, "Post liked successfully", postID, userID)
}

func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")
	if err := h.likeRepository.DeleteLike(c.Request().Context(), postID, userID); err != nil {
		return httpError(err)
	}
	return h.summary(c, http.StatusOK, "Post unliked successfully", postID, userID)
}

// GetLikes returns the like count of a post and whether the caller liked it.
func (h *LikeHandler) GetLikes(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	return h.summary(c, http.StatusOK, "Likes retrieved successfully", c.Param("id"), userID)
}

func (h *LikeHandler) summary(c echo.Context, status int, message, postID string, userID uint) error {
	ctx := c.Request().Context()
	count, err := h.likeRepository.GetLikesCountByPostID(ctx, postID)
	if err != nil {
		return httpError(err)
	}
	liked, err := h.likeRepository.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, status, message, models.LikeSummary{PostID: postID, Count: count, Liked: liked})
}
