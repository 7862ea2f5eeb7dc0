package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"arpg-auction-gateway/internal/protocol"
	"arpg-auction-gateway/pkg/uid"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client is the game-client half of the auction protocol. It runs the same
// dispatcher the server does, registered for the server-to-client messages:
// the access token push and operation results. The token is cached for the
// life of the session and used for direct listing/history calls against the
// auction service, which the gateway does not mediate.
type Client struct {
	id         string
	ws         *websocket.Conn
	dispatcher *protocol.Dispatcher

	writeMu sync.Mutex

	mu    sync.RWMutex
	token string

	results chan protocol.AuctionResultMessage
	done    chan struct{}
}

// Dial connects to the gateway's websocket endpoint.
func Dial(ctx context.Context, wsURL string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway: %w", err)
	}

	c := &Client{
		id:         uid.New(),
		ws:         ws,
		dispatcher: protocol.NewDispatcher(),
		results:    make(chan protocol.AuctionResultMessage, 16),
		done:       make(chan struct{}),
	}

	c.dispatcher.Register(protocol.MsgGetAccessToken, c.handleAccessToken)
	c.dispatcher.Register(protocol.MsgAuctionResult, c.handleResult)

	go c.readLoop(ctx)
	return c, nil
}

// ID identifies this session locally.
func (c *Client) ID() string { return c.id }

// Send frames and writes one packet to the gateway.
func (c *Client) Send(msgType uint16, payload interface{}) error {
	data, err := protocol.EncodeEnvelope(msgType, payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop(ctx context.Context) {
	defer close(c.done)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			continue
		}
		c.dispatcher.Dispatch(ctx, c, env)
	}
}

func (c *Client) handleAccessToken(ctx context.Context, _ protocol.Sender, payload json.RawMessage) {
	var msg protocol.AccessTokenResponse
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	c.mu.Lock()
	c.token = msg.AccessToken
	c.mu.Unlock()
}

func (c *Client) handleResult(ctx context.Context, _ protocol.Sender, payload json.RawMessage) {
	var msg protocol.AuctionResultMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return
	}
	select {
	case c.results <- msg:
	default:
		// A client that never drains results loses the oldest ones.
	}
}

// AccessToken returns the token pushed by the server, empty until the
// exchange completes.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// RequestAccessToken asks the server to exchange the user id for a token.
// Sent once after loading into the world.
func (c *Client) RequestAccessToken(userID string) error {
	return c.Send(protocol.MsgGetAccessToken, protocol.AccessTokenRequest{UserID: userID})
}

// CreateAuction sends a create-auction request.
func (c *Client) CreateAuction(msg protocol.CreateAuctionMessage) error {
	return c.Send(protocol.MsgCreateAuction, msg)
}

// Bid sends a bid request.
func (c *Client) Bid(auctionID string, price int64) error {
	return c.Send(protocol.MsgBid, protocol.BidMessage{AuctionID: auctionID, Price: price})
}

// Buyout sends a buyout request.
func (c *Client) Buyout(auctionID string) error {
	return c.Send(protocol.MsgBuyout, protocol.BuyoutMessage{AuctionID: auctionID})
}

// Results delivers operation outcomes pushed by the server.
func (c *Client) Results() <-chan protocol.AuctionResultMessage {
	return c.results
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.ws.Close()
}

// Ensure Client implements protocol.Sender
var _ protocol.Sender = (*Client)(nil)
