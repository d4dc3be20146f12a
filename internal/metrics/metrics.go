// Package metrics holds the prometheus collectors of the API server.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Push delivery outcomes.
const (
	PushDelivered = "delivered"
	PushMissed    = "missed"
	PushFailed    = "failed"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_active_connections",
		Help: "Active websocket connections",
	})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications persisted, by type",
	}, []string{"type"})

	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_push_total",
		Help: "Real-time push attempts, by outcome",
	}, []string{"result"})
)

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
