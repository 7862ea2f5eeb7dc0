package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRejected marks a valid service reply that denied the operation, as
// opposed to a transport failure where no usable reply arrived. Handlers
// treat both as non-success but report them distinctly.
var ErrRejected = errors.New("auction service rejected the request")

// RejectionError carries the service's denial. It unwraps to ErrRejected.
type RejectionError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auction service rejected the request: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("auction service rejected the request: status %d", e.StatusCode)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

// IsRejection reports whether err is a remote rejection rather than a
// transport failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRejected)
}

// Snapshot is the service's current view of one auction. Snapshots are
// fetched per request and never cached across requests.
type Snapshot struct {
	ID          string          `json:"id"`
	BidPrice    int64           `json:"bid_price"`
	BuyoutPrice int64           `json:"buyout_price"`
	SellerID    string          `json:"seller_id"`
	SellerName  string          `json:"seller_name"`
	ItemPayload json.RawMessage `json:"item_payload,omitempty"`
	Status      string          `json:"status"`
}

// CreateRequest is the input for listing a new auction.
type CreateRequest struct {
	ItemPayload    json.RawMessage `json:"item_payload"`
	StartPrice     int64           `json:"start_price"`
	BuyoutPrice    int64           `json:"buyout_price"`
	SellerID       string          `json:"seller_id"`
	SellerName     string          `json:"seller_name"`
	DurationOption int             `json:"duration_option"`
}

// Client is the typed interface to the external auction record-keeping
// service, the source of truth for auction state. The game server never
// synthesizes auction ids; they only come from CreateAuction and Snapshot.
type Client interface {
	// CreateAuction lists an item payload and returns the new auction id.
	CreateAuction(ctx context.Context, req CreateRequest) (string, error)

	// GetAuction fetches the current snapshot of an auction.
	GetAuction(ctx context.Context, auctionID string) (*Snapshot, error)

	// Bid places a bid. The service is the final arbiter; a concurrent
	// higher bid makes this a rejection.
	Bid(ctx context.Context, userID, name, auctionID string, price int64) error

	// Buyout buys the auction out at its current buyout price.
	Buyout(ctx context.Context, userID, name, auctionID string) error

	// GetAccessToken issues a client access token scoped to the user id.
	GetAccessToken(ctx context.Context, userID string) (string, error)
}
