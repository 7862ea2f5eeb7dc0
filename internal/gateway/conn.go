package gateway

import (
	"errors"
	"sync"
	"time"

	"arpg-auction-gateway/internal/protocol"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ErrConnClosed is returned by Send after the connection has gone away.
// Handlers completing after a disconnect ignore it.
var ErrConnClosed = errors.New("connection closed")

// Conn is one transport-level session. Writes are guarded by a mutex and a
// write deadline; the underlying websocket allows only one concurrent writer.
type Conn struct {
	id string
	ws *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func newConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{id: id, ws: ws}
}

// ID returns the connection id assigned at accept time.
func (c *Conn) ID() string { return c.id }

// Send frames and writes one packet. Sending on a closed connection fails
// with ErrConnClosed instead of panicking, so a handler finishing its commit
// after a disconnect can attempt the response safely.
func (c *Conn) Send(msgType uint16, payload interface{}) error {
	data, err := protocol.EncodeEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close marks the connection closed and closes the socket. Idempotent.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.ws.Close()
}

// Ensure Conn implements protocol.Sender
var _ protocol.Sender = (*Conn)(nil)
