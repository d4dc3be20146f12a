package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness and the number of open websocket connections.
type HealthHandler struct {
	connections func() int
}

func NewHealthHandler(connections func() int) *HealthHandler {
	return &HealthHandler{connections: connections}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"service":     "social-api",
		"connections": h.connections(),
	})
}
