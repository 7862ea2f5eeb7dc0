package protocol

// Message type ids. The auction house block starts at 1300; ids are shared
// between client and server so both sides register handlers against the same
// numbers.
const (
	MsgCreateAuction  uint16 = 1300
	MsgBid            uint16 = 1301
	MsgBuyout         uint16 = 1302
	MsgGetAccessToken uint16 = 1303
	MsgAuctionResult  uint16 = 1304
)

// DurationOption selects one of the auction durations the service offers.
type DurationOption int

// Allowed auction durations.
const (
	Duration1Day DurationOption = iota
	Duration3Days
	Duration7Days
	Duration14Days
	Duration30Days
)

// Valid reports whether the option names one of the allowed durations.
func (d DurationOption) Valid() bool {
	return d >= Duration1Day && d <= Duration30Days
}

// CreateAuctionMessage asks the server to list items from a non-equip
// inventory slot. BuyoutPrice 0 disables buyout. Amount below 1 is clamped
// to 1 by the server.
type CreateAuctionMessage struct {
	IndexOfItem    int            `json:"index_of_item"`
	Amount         int            `json:"amount"`
	StartPrice     int64          `json:"start_price"`
	BuyoutPrice    int64          `json:"buyout_price"`
	DurationOption DurationOption `json:"duration_option"`
}

// BidMessage offers a price on an auction. The offer must strictly exceed
// the auction's current bid price.
type BidMessage struct {
	AuctionID string `json:"auction_id"`
	Price     int64  `json:"price"`
}

// BuyoutMessage buys an auction out at its current buyout price.
type BuyoutMessage struct {
	AuctionID string `json:"auction_id"`
}

// AccessTokenRequest asks the server to exchange the user's id for an auction
// service access token. Sent once after the client has loaded into the world.
type AccessTokenRequest struct {
	UserID string `json:"user_id"`
}

// AccessTokenResponse carries the token the client uses for direct listing
// and history calls against the auction service.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Result reason codes sent to the client when an operation aborts.
const (
	ReasonInvalidRequest     = "invalid_request"
	ReasonInvalidItem        = "invalid_item"
	ReasonInsufficientGold   = "insufficient_gold"
	ReasonBidTooLow          = "bid_too_low"
	ReasonRejected           = "rejected"
	ReasonServiceUnavailable = "service_unavailable"
)

// AuctionResultMessage reports the outcome of a create, bid, buyout or token
// request back to the originating client. Op is the message type id of the
// request. Code is empty on success.
type AuctionResultMessage struct {
	Op        uint16 `json:"op"`
	Success   bool   `json:"success"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	AuctionID string `json:"auction_id,omitempty"`
}
