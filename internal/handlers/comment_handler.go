package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/anonto42/nano-midea/social/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentNotifier is told about every new comment.
type CommentNotifier interface {
	OnPostCommented(ctx context.Context, actorID uint, post services.PostRef, commentID string) ([]models.Notification, error)
}

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	notifier          CommentNotifier
}

func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, notifier CommentNotifier) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		notifier:          notifier,
	}
}

func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	comment := &models.Comment{PostID: post.ID.Hex(), UserID: userID, Content: req.Content}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return httpError(err)
	}

	ref := services.PostRef{ID: comment.PostID, AuthorID: post.UserID}
	if _, err := h.notifier.OnPostCommented(ctx, userID, ref, strconv.FormatUint(uint64(comment.ID), 10)); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusCreated, "Comment created successfully", comment)
}

// GetCommentsByPostID retrieves all comments for a specific post
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID.Hex())
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Comments retrieved successfully", comments)
}

// UpdateComment lets the author edit their comment.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	comment, err := h.ownComment(c)
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment.Content = req.Content
	if err := h.commentRepository.UpdateComment(c.Request().Context(), comment); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Comment updated successfully", comment)
}

// DeleteComment lets the author remove their comment.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	comment, err := h.ownComment(c)
	if err != nil {
		return err
	}
	if err := h.commentRepository.DeleteComment(c.Request().Context(), comment.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) ownComment(c echo.Context) (*models.Comment, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	comment, err := h.commentRepository.GetCommentByID(c.Request().Context(), uint(commentID))
	if err != nil {
		return nil, httpError(err)
	}
	if comment.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You can only change your own comments")
	}
	return comment, nil
}
