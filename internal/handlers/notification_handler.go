package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/social/internal/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.GET("/notifications/:id", h.GetNotification)
	g.PATCH("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// GetNotifications returns one cursor page of unread notifications.
// Query: cursor (notification id, optional), limit (1..50, default 5).
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	cursor := c.QueryParam("cursor")
	if cursor != "" {
		if _, err := uuid.Parse(cursor); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cursor must be a notification id")
		}
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
	}

	page, err := h.notifications.FindPage(c.Request().Context(), userID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Notifications retrieved successfully", page)
}

func (h *NotificationHandler) GetNotification(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Notification retrieved successfully", n)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Unread count retrieved successfully", echo.Map{"count": count})
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	updated, err := h.notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return respond(c, http.StatusOK, "All notifications marked as read", echo.Map{"updated": updated})
}
