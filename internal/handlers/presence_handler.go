package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/social/internal/realtime"
	"github.com/labstack/echo/v4"
)

type PresenceHandler struct {
	presence realtime.PresenceTracker
}

func NewPresenceHandler(presence realtime.PresenceTracker) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

func (h *PresenceHandler) RegisterPresenceRoutes(g *echo.Group) {
	g.GET("/presence/online", h.GetOnlineUsers)
	g.GET("/presence/:id", h.GetPresence)
}

func (h *PresenceHandler) GetOnlineUsers(c echo.Context) error {
	ids, err := h.presence.Online(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Presence is unavailable").SetInternal(err)
	}
	return respond(c, http.StatusOK, "Online users retrieved successfully", echo.Map{"user_ids": ids})
}

func (h *PresenceHandler) GetPresence(c echo.Context) error {
	userID, err := parseUserID(c.Param("id"))
	if err != nil {
		return err
	}
	status, err := h.presence.Status(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Presence is unavailable").SetInternal(err)
	}
	return respond(c, http.StatusOK, "Presence retrieved successfully", status)
}
