package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler serves profiles and user search.
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo, followRepository: followRepo}
}

func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.DELETE("/profile", h.DeleteUser) // Delete own user profile
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser) // Get other user's profile by ID
}

func (h *UserHandler) profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	user, err := h.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, err := h.followRepository.GetFollowersCount(ctx, id)
	if err != nil {
		return nil, err
	}
	following, err := h.followRepository.GetFollowingCount(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{User: *user, FollowersCount: followers, FollowingCount: following}, nil
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		return err
	}
	profile, err := h.profile(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "User retrieved successfully", profile)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	profile, err := h.profile(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Profile retrieved successfully", profile)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = strings.ToLower(req.Email)
	}
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Profile updated successfully", user)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.userRepository.DeleteUser(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Profile deleted successfully", nil)
}

// SearchUsers searches by name, username or email.
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Users retrieved successfully", users)
}
