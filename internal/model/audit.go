package model

import "time"

// Auction audit operations.
const (
	AuditOpCreate = "create"
	AuditOpBid    = "bid"
	AuditOpBuyout = "buyout"
)

// AuctionAuditRecord is one committed auction operation, written after the
// resource ledger commit succeeds.
type AuctionAuditRecord struct {
	ID          int64     `json:"id"`
	CharacterID string    `json:"character_id"`
	UserID      string    `json:"user_id"`
	Operation   string    `json:"operation"` // create, bid or buyout
	AuctionID   string    `json:"auction_id"`
	Amount      int       `json:"amount,omitempty"`
	Price       int64     `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}
