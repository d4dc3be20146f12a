package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowNotifier is told about every follow and unfollow.
type FollowNotifier interface {
	OnFollowToggled(ctx context.Context, followerID, followingID uint, nowFollowing bool) error
}

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifier         FollowNotifier
}

func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifier FollowNotifier) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifier:         notifier,
	}
}

func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserID(c.Param("id"))
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return httpError(err)
	}

	isFollowing, err := h.followRepository.IsFollowing(ctx, currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(ctx, follow); err != nil {
		return httpError(err)
	}
	if err := h.notifier.OnFollowToggled(ctx, currentUserID, targetID, true); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, "User followed successfully", echo.Map{"following": true})
}

func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := currentUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUserID(c.Param("id"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.followRepository.DeleteFollow(ctx, currentUserID, targetID); err != nil {
		return httpError(err)
	}
	if err := h.notifier.OnFollowToggled(ctx, currentUserID, targetID, false); err != nil {
		return httpError(err)
	}

	return respond(c, http.StatusOK, "User unfollowed successfully", echo.Map{"following": false})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	return h.list(c, h.followRepository.GetFollowers)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	return h.list(c, h.followRepository.GetFollowing)
}

func (h *FollowHandler) list(c echo.Context, fetch func(context.Context, uint) ([]models.User, error)) error {
	userID, err := parseUserID(c.Param("id"))
	if err != nil {
		return err
	}
	users, err := fetch(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	if users == nil {
		users = []models.User{}
	}
	return respond(c, http.StatusOK, "Users retrieved successfully", users)
}
