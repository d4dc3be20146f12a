package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxInboundMessage = 4096

// wsChannel is a Channel over a gorilla websocket connection.
// Send only enqueues; a single write pump owns every write to the socket.
type wsChannel struct {
	id     string
	userID uint
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	pingInterval time.Duration
	writeTimeout time.Duration
	log          *zap.SugaredLogger
}

func newWSChannel(conn *websocket.Conn, userID uint, opts GatewayOptions, log *zap.SugaredLogger) *wsChannel {
	return &wsChannel{
		id:           uuid.NewString(),
		userID:       userID,
		conn:         conn,
		send:         make(chan []byte, opts.SendBuffer),
		done:         make(chan struct{}),
		pingInterval: opts.PingInterval,
		writeTimeout: opts.WriteTimeout,
		log:          log,
	}
}

func (c *wsChannel) ID() string { return c.id }

func (c *wsChannel) Send(event string, payload any) error {
	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrChannelClosed
	default:
		return ErrSlowConsumer
	}
}

func (c *wsChannel) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *wsChannel) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debugw("websocket write failed", "user_id", c.userID, "channel_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump blocks until the peer goes away. Inbound frames carry no commands
// and are discarded; reading keeps pong and close handling alive.
func (c *wsChannel) readPump() {
	pongWait := 2 * c.pingInterval
	c.conn.SetReadLimit(maxInboundMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debugw("websocket closed unexpectedly", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}
