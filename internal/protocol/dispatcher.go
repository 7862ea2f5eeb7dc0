package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Envelope is the wire framing for every packet: a numeric message type and
// the message body.
type Envelope struct {
	Type    uint16          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEnvelope frames a message for the wire.
func EncodeEnvelope(msgType uint16, payload interface{}) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload for type %d: %w", msgType, err)
		}
		raw = data
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

// DecodeEnvelope parses a wire frame.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return env, nil
}

// Sender is the connection surface a handler sees: enough to identify the
// session and push a packet back. Sends to a connection that has gone away
// return an error the handler is free to ignore.
type Sender interface {
	ID() string
	Send(msgType uint16, payload interface{}) error
}

// HandlerFunc handles one inbound packet. The payload is the raw message
// body; the handler decodes it itself.
type HandlerFunc func(ctx context.Context, conn Sender, payload json.RawMessage)

// Dispatcher routes inbound packets to registered handlers by message type.
// The same type is used on the client and the server side of the protocol.
// It imposes no ordering or concurrency guarantees of its own.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[uint16]HandlerFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[uint16]HandlerFunc),
	}
}

// Register binds a handler to a message type, replacing any previous one.
func (d *Dispatcher) Register(msgType uint16, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[msgType] = h
}

// Dispatch invokes the handler registered for the envelope's type. Packets
// with no registered handler are dropped, not errors: an older peer may send
// types this build does not know.
func (d *Dispatcher) Dispatch(ctx context.Context, conn Sender, env Envelope) {
	d.mu.RLock()
	h, ok := d.handlers[env.Type]
	d.mu.RUnlock()
	if !ok {
		return
	}
	h(ctx, conn, env.Payload)
}
