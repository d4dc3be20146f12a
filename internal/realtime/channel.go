// Package realtime tracks live client connections and pushes events to them.
package realtime

import "errors"

var (
	// ErrChannelClosed is returned by Send once the peer has gone away.
	ErrChannelClosed = errors.New("realtime: channel closed")
	// ErrSlowConsumer is returned by Send when the peer's queue is full.
	ErrSlowConsumer = errors.New("realtime: send queue full")
)

// Channel is one live duplex connection to a client process.
// Two handles are the same connection exactly when their IDs are equal.
type Channel interface {
	ID() string
	Send(event string, payload any) error
	Close() error
}

// Envelope is the wire frame for every server-to-client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
