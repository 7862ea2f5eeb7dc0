package gateway

import (
	"context"
	"log"
	"net/http"
	"sync"

	"arpg-auction-gateway/internal/model"
	"arpg-auction-gateway/internal/protocol"
	"arpg-auction-gateway/pkg/uid"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 64 * 1024

// LoginFunc resolves a character id presented at connect time. Returning an
// error leaves the connection unbound; unbound connections can still exchange
// packets but every auction request resolves to no character and is dropped.
type LoginFunc func(ctx context.Context, characterID string) (*model.PlayerCharacterData, error)

// DisconnectFunc is called after a connection's read loop ends, with the
// character that was bound to it (nil if login never completed).
type DisconnectFunc func(connID string, char *model.PlayerCharacterData)

// Gateway accepts websocket connections and feeds inbound packets to the
// dispatcher. Each packet's handler runs in its own goroutine, so a handler
// suspended on a remote auction service call never stalls the socket's read
// loop; per-character ordering is the ledger's job, not the transport's.
type Gateway struct {
	dispatcher   *protocol.Dispatcher
	sessions     *SessionRegistry
	login        LoginFunc
	onDisconnect DisconnectFunc
	upgrader     websocket.Upgrader

	ctx context.Context

	mu    sync.RWMutex
	conns map[string]*Conn
}

// New creates a gateway. ctx bounds handler execution for the life of the
// server process, not of any single connection: a handler mid remote call
// when its client disconnects still runs its commit step.
func New(ctx context.Context, dispatcher *protocol.Dispatcher, sessions *SessionRegistry, login LoginFunc, onDisconnect DisconnectFunc) *Gateway {
	return &Gateway{
		dispatcher:   dispatcher,
		sessions:     sessions,
		login:        login,
		onDisconnect: onDisconnect,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ctx:   ctx,
		conns: make(map[string]*Conn),
	}
}

// ServeWS handles GET /ws, upgrading to a websocket session.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade failed: %v", err)
		return
	}
	ws.SetReadLimit(maxMessageSize)

	conn := newConn(uid.New(), ws)
	g.mu.Lock()
	g.conns[conn.ID()] = conn
	g.mu.Unlock()

	log.Printf("[Gateway] Connection accepted: %s", conn.ID())

	if charID := r.URL.Query().Get("characterId"); charID != "" && g.login != nil {
		char, err := g.login(r.Context(), charID)
		if err != nil {
			log.Printf("[Gateway] Login failed for %s on %s: %v", charID, conn.ID(), err)
		} else {
			g.sessions.Bind(conn.ID(), char)
			log.Printf("[Gateway] Character %s bound to %s", charID, conn.ID())
		}
	}

	go g.readLoop(conn)
}

// readLoop reads packets until the connection drops, then tears the session
// down. Handlers already in flight keep running against the server context.
func (g *Gateway) readLoop(conn *Conn) {
	defer g.drop(conn)

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			log.Printf("[Gateway] Bad frame from %s: %v", conn.ID(), err)
			continue
		}

		go g.dispatcher.Dispatch(g.ctx, conn, env)
	}
}

func (g *Gateway) drop(conn *Conn) {
	conn.Close()

	g.mu.Lock()
	delete(g.conns, conn.ID())
	g.mu.Unlock()

	char := g.sessions.Unbind(conn.ID())
	log.Printf("[Gateway] Connection closed: %s", conn.ID())

	if g.onDisconnect != nil {
		g.onDisconnect(conn.ID(), char)
	}
}

// Stats reports connection and session counts for the admin surface.
func (g *Gateway) Stats() map[string]interface{} {
	g.mu.RLock()
	open := len(g.conns)
	g.mu.RUnlock()

	return map[string]interface{}{
		"open_connections": open,
		"bound_sessions":   g.sessions.Count(),
	}
}
