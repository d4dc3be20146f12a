package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/social/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// InvalidCredentialsMessage is sent to a socket whose handshake carried no valid token.
	InvalidCredentialsMessage = "WS invalid or expired credentials"
	// UsersActiveEvent is pushed to every connection whenever a user connects or leaves.
	UsersActiveEvent = "usersActive"
)

// ActiveUsers is the payload of UsersActiveEvent.
type ActiveUsers struct {
	UserIDs []uint `json:"user_ids"`
}

// TokenVerifier resolves an access token to the user it was issued for.
type TokenVerifier interface {
	UserIDFromToken(token string) (uint, error)
}

// TokenExtractor pulls the raw access token out of a handshake request.
type TokenExtractor func(r *http.Request) string

type GatewayOptions struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

// Gateway upgrades authenticated clients and keeps the registry in step
// with their connections.
type Gateway struct {
	registry *Registry
	presence PresenceTracker
	verifier TokenVerifier
	extract  TokenExtractor
	opts     GatewayOptions
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

func NewGateway(registry *Registry, presence PresenceTracker, verifier TokenVerifier, extract TokenExtractor, opts GatewayOptions, log *zap.SugaredLogger) *Gateway {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 25 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Gateway{
		registry: registry,
		presence: presence,
		verifier: verifier,
		extract:  extract,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

// Handle is the echo handler mounted on the websocket path. It returns once
// the client disconnects.
func (g *Gateway) Handle(c echo.Context) error {
	req := c.Request()

	conn, err := g.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// the upgrader already answered with an HTTP error
		g.log.Debugw("websocket upgrade failed", "error", err)
		return nil
	}

	token := g.extract(req)
	userID, err := g.verifier.UserIDFromToken(token)
	if token == "" || err != nil || userID == 0 {
		g.reject(conn)
		return nil
	}

	ch := newWSChannel(conn, userID, g.opts, g.log)
	g.connect(req.Context(), userID, ch)
	defer g.disconnect(userID, ch)

	go ch.writePump()
	ch.readPump()
	return nil
}

func (g *Gateway) connect(ctx context.Context, userID uint, ch *wsChannel) {
	g.registry.Register(userID, ch)
	metrics.ActiveConnections.Inc()
	if err := g.presence.MarkOnline(ctx, userID); err != nil {
		g.log.Warnw("mark user online", "user_id", userID, "error", err)
	}
	g.log.Infow("websocket connected", "user_id", userID, "channel_id", ch.ID())
	g.broadcastActive()
}

func (g *Gateway) disconnect(userID uint, ch *wsChannel) {
	_ = ch.Close()
	g.registry.Unregister(ch)
	metrics.ActiveConnections.Dec()

	// a newer connection of the same user keeps them online
	if _, stillOnline := g.registry.Lookup(userID); !stillOnline {
		ctx, cancel := context.WithTimeout(context.Background(), g.opts.WriteTimeout)
		defer cancel()
		if err := g.presence.MarkOffline(ctx, userID); err != nil {
			g.log.Warnw("mark user offline", "user_id", userID, "error", err)
		}
	}
	g.log.Infow("websocket disconnected", "user_id", userID, "channel_id", ch.ID())
	g.broadcastActive()
}

// broadcastActive tells every live connection who is online on this instance.
func (g *Gateway) broadcastActive() {
	active := ActiveUsers{UserIDs: g.registry.OnlineUserIDs()}
	for _, ch := range g.registry.Channels() {
		if err := ch.Send(UsersActiveEvent, active); err != nil {
			g.log.Debugw("broadcast active users", "channel_id", ch.ID(), "error", err)
		}
	}
}

func (g *Gateway) reject(conn *websocket.Conn) {
	defer conn.Close()

	deadline := time.Now().Add(g.opts.WriteTimeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.WriteJSON(Envelope{
		Event: "exception",
		Data: map[string]any{
			"success": false,
			"message": InvalidCredentialsMessage,
		},
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"), deadline)
}
