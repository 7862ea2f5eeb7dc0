package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arpg-auction-gateway/internal/auction"
	"arpg-auction-gateway/internal/cache"
	"arpg-auction-gateway/internal/client"
	"arpg-auction-gateway/internal/gateway"
	"arpg-auction-gateway/internal/handler"
	"arpg-auction-gateway/internal/ledger"
	"arpg-auction-gateway/internal/model"
	"arpg-auction-gateway/internal/protocol"
	"arpg-auction-gateway/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAuctionClient answers with fixed data, enough for a full round
// trip through the websocket plane.
type scriptedAuctionClient struct{}

func (scriptedAuctionClient) CreateAuction(context.Context, auction.CreateRequest) (string, error) {
	return "auction-1", nil
}

func (scriptedAuctionClient) GetAuction(_ context.Context, auctionID string) (*auction.Snapshot, error) {
	return &auction.Snapshot{ID: auctionID, BidPrice: 100, BuyoutPrice: 300}, nil
}

func (scriptedAuctionClient) Bid(context.Context, string, string, string, int64) error { return nil }

func (scriptedAuctionClient) Buyout(context.Context, string, string, string) error { return nil }

func (scriptedAuctionClient) GetAccessToken(_ context.Context, userID string) (string, error) {
	return "tok-" + userID, nil
}

var _ auction.Client = scriptedAuctionClient{}

type testServer struct {
	url      string
	sessions *gateway.SessionRegistry
	char     *model.PlayerCharacterData
	ledger   *ledger.Ledger
}

// gold reads the character's balance under the serializer lock, so the test
// never races a handler goroutine mid-commit.
func (s *testServer) gold() int64 {
	unlock := s.ledger.Lock(s.char.CharacterID)
	defer unlock()
	return s.char.Gold
}

func (s *testServer) itemAmount(slot int) int {
	unlock := s.ledger.Lock(s.char.CharacterID)
	defer unlock()
	return s.char.NonEquipItems[slot].Amount
}

func startServer(t *testing.T) *testServer {
	return startServerWith(t, scriptedAuctionClient{})
}

func startServerWith(t *testing.T, auctions auction.Client) *testServer {
	t.Helper()

	char := &model.PlayerCharacterData{
		CharacterID:   "char-1",
		UserID:        "user-1",
		Name:          "Tester",
		Gold:          1000,
		NonEquipItems: []model.CharacterItem{{ItemID: "potion", Amount: 5}},
	}

	login := func(_ context.Context, characterID string) (*model.PlayerCharacterData, error) {
		if characterID != char.CharacterID {
			return nil, errors.New("unknown character")
		}
		return char, nil
	}

	sessions := gateway.NewSessionRegistry()
	dispatcher := protocol.NewDispatcher()

	tokenCache := cache.NewMemoryCache()
	t.Cleanup(func() { _ = tokenCache.Close() })

	led := ledger.New()
	h := handler.NewAuctionHandler(handler.AuctionHandlerConfig{
		Sessions: sessions,
		Ledger:   led,
		Auctions: auctions,
		Tokens:   service.NewAccessTokenService(auctions, tokenCache, 0),
	})
	h.Register(dispatcher)

	gw := gateway.New(context.Background(), dispatcher, sessions, login, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		sessions: sessions,
		char:     char,
		ledger:   led,
	}
}

func dial(t *testing.T, url string) *client.Client {
	t.Helper()
	c, err := client.Dial(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitResult(t *testing.T, c *client.Client) protocol.AuctionResultMessage {
	t.Helper()
	select {
	case res := <-c.Results():
		return res
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a result")
		return protocol.AuctionResultMessage{}
	}
}

func TestBuyoutRoundTrip(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv.url+"?characterId=char-1")

	require.NoError(t, c.Buyout("a-1"))

	res := waitResult(t, c)
	assert.True(t, res.Success)
	assert.Equal(t, protocol.MsgBuyout, res.Op)
	assert.Equal(t, "a-1", res.AuctionID)

	// The buyout price from the snapshot has been debited server-side.
	assert.Equal(t, int64(700), srv.gold())
}

func TestCreateAuctionRoundTrip(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv.url+"?characterId=char-1")

	require.NoError(t, c.CreateAuction(protocol.CreateAuctionMessage{
		IndexOfItem:    0,
		Amount:         2,
		StartPrice:     50,
		DurationOption: protocol.Duration3Days,
	}))

	res := waitResult(t, c)
	assert.True(t, res.Success)
	assert.Equal(t, "auction-1", res.AuctionID)
	assert.Equal(t, 3, srv.itemAmount(0))
}

func TestAccessTokenPush(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv.url+"?characterId=char-1")

	require.NoError(t, c.RequestAccessToken("user-1"))

	deadline := time.Now().Add(3 * time.Second)
	for c.AccessToken() == "" {
		if time.Now().After(deadline) {
			t.Fatal("token never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, "tok-user-1", c.AccessToken())
}

func TestUnknownMessageTypeIsDropped(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv.url+"?characterId=char-1")

	// An unregistered type must be ignored, not kill the connection.
	require.NoError(t, c.Send(9999, map[string]string{"x": "y"}))

	require.NoError(t, c.Buyout("a-1"))
	res := waitResult(t, c)
	assert.True(t, res.Success)
}

func TestUnboundConnectionRequestsAreSilent(t *testing.T) {
	srv := startServer(t)
	// Login fails for an unknown character; the connection stays open but
	// unbound.
	c := dial(t, srv.url+"?characterId=ghost")

	require.NoError(t, c.Buyout("a-1"))

	select {
	case res := <-c.Results():
		t.Fatalf("expected silence, got %+v", res)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, int64(1000), srv.gold())
}

// blockingAuctionClient parks Buyout until released, simulating a remote
// call still outstanding when the client goes away.
type blockingAuctionClient struct {
	scriptedAuctionClient
	entered chan struct{}
	release chan struct{}
}

func (b *blockingAuctionClient) Buyout(ctx context.Context, userID, name, auctionID string) error {
	close(b.entered)
	<-b.release
	return nil
}

// A disconnect while the remote call is suspended must not lose the commit:
// the character outlives the connection, and the response send failing on
// the closed socket must not disturb the completion path.
func TestDisconnectMidFlowStillCommits(t *testing.T) {
	auctions := &blockingAuctionClient{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	srv := startServerWith(t, auctions)
	c := dial(t, srv.url+"?characterId=char-1")

	require.NoError(t, c.Buyout("a-1"))

	select {
	case <-auctions.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("remote buyout never started")
	}

	// Drop the connection while the remote call is suspended.
	require.NoError(t, c.Close())
	deadline := time.Now().Add(3 * time.Second)
	for srv.sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never unbound after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Let the remote call complete; the commit must land exactly once.
	close(auctions.release)
	deadline = time.Now().Add(3 * time.Second)
	for srv.gold() != 700 {
		if time.Now().After(deadline) {
			t.Fatalf("commit never landed, gold=%d", srv.gold())
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Settle and re-check: no duplicate debit from the abandoned flow.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(700), srv.gold())
}

func TestDisconnectUnbindsSession(t *testing.T) {
	srv := startServer(t)
	c := dial(t, srv.url+"?characterId=char-1")

	deadline := time.Now().Add(3 * time.Second)
	for srv.sessions.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never bound")
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, c.Close())

	deadline = time.Now().Add(3 * time.Second)
	for srv.sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session never unbound after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
