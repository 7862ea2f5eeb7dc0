package handler

import (
	"context"
	"encoding/json"
	"log"

	"arpg-auction-gateway/internal/auction"
	"arpg-auction-gateway/internal/gateway"
	"arpg-auction-gateway/internal/ledger"
	"arpg-auction-gateway/internal/model"
	"arpg-auction-gateway/internal/protocol"
	"arpg-auction-gateway/internal/repository"
	"arpg-auction-gateway/internal/service"
)

// AuctionHandler implements the four auction protocol flows. Each flow runs
// request -> validate -> remote call -> commit, holding the character's
// ledger lock for the whole sequence. Gold and inventory are only ever
// mutated after the auction service has confirmed the operation.
type AuctionHandler struct {
	sessions   *gateway.SessionRegistry
	ledger     *ledger.Ledger
	auctions   auction.Client
	tokens     *service.AccessTokenService
	characters *service.CharacterService
	audit      repository.AuditRepository
}

// AuctionHandlerConfig holds the handler's dependencies. Audit and
// Characters are optional; the flows commit without them.
type AuctionHandlerConfig struct {
	Sessions   *gateway.SessionRegistry
	Ledger     *ledger.Ledger
	Auctions   auction.Client
	Tokens     *service.AccessTokenService
	Characters *service.CharacterService
	Audit      repository.AuditRepository
}

// NewAuctionHandler creates the handler set for the auction message types.
func NewAuctionHandler(cfg AuctionHandlerConfig) *AuctionHandler {
	return &AuctionHandler{
		sessions:   cfg.Sessions,
		ledger:     cfg.Ledger,
		auctions:   cfg.Auctions,
		tokens:     cfg.Tokens,
		characters: cfg.Characters,
		audit:      cfg.Audit,
	}
}

// Register wires the handler set into the dispatcher.
func (h *AuctionHandler) Register(d *protocol.Dispatcher) {
	d.Register(protocol.MsgCreateAuction, h.HandleCreateAuction)
	d.Register(protocol.MsgBid, h.HandleBid)
	d.Register(protocol.MsgBuyout, h.HandleBuyout)
	d.Register(protocol.MsgGetAccessToken, h.HandleGetAccessToken)
}

// sendResult pushes an operation outcome to the client. The connection may
// already be gone; that is not the handler's problem.
func (h *AuctionHandler) sendResult(conn protocol.Sender, result protocol.AuctionResultMessage) {
	_ = conn.Send(protocol.MsgAuctionResult, result)
}

func (h *AuctionHandler) fail(conn protocol.Sender, op uint16, code, message string) {
	h.sendResult(conn, protocol.AuctionResultMessage{Op: op, Success: false, Code: code, Message: message})
}

// remoteFailCode maps a non-success remote outcome to a result reason.
func remoteFailCode(err error) string {
	if auction.IsRejection(err) {
		return protocol.ReasonRejected
	}
	return protocol.ReasonServiceUnavailable
}

// HandleCreateAuction lists items from one of the character's non-equip
// inventory slots. The items leave the inventory only after the service has
// accepted the listing; from then on the auction service owns them.
func (h *AuctionHandler) HandleCreateAuction(ctx context.Context, conn protocol.Sender, payload json.RawMessage) {
	char, ok := h.sessions.Character(conn.ID())
	if !ok {
		// Player has not entered the world yet. Not worth signaling.
		return
	}

	var msg protocol.CreateAuctionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.fail(conn, protocol.MsgCreateAuction, protocol.ReasonInvalidRequest, "malformed create auction message")
		return
	}
	if msg.Amount <= 0 {
		msg.Amount = 1
	}
	if !msg.DurationOption.Valid() {
		h.fail(conn, protocol.MsgCreateAuction, protocol.ReasonInvalidRequest, "unknown duration option")
		return
	}

	unlock := h.ledger.Lock(char.CharacterID)
	defer unlock()

	if !char.HasItems(msg.IndexOfItem, msg.Amount) {
		h.fail(conn, protocol.MsgCreateAuction, protocol.ReasonInvalidItem, "wrong item slot or not enough items")
		return
	}

	// Transferable payload covers only the listed units, not the whole stack.
	itemPayload, err := json.Marshal(model.CharacterItem{
		ItemID: char.NonEquipItems[msg.IndexOfItem].ItemID,
		Amount: msg.Amount,
	})
	if err != nil {
		h.fail(conn, protocol.MsgCreateAuction, protocol.ReasonInvalidRequest, "failed to build item payload")
		return
	}

	auctionID, err := h.auctions.CreateAuction(ctx, auction.CreateRequest{
		ItemPayload:    itemPayload,
		StartPrice:     msg.StartPrice,
		BuyoutPrice:    msg.BuyoutPrice,
		SellerID:       char.UserID,
		SellerName:     char.Name,
		DurationOption: int(msg.DurationOption),
	})
	if err != nil {
		log.Printf("[AuctionHandler] Create auction failed for %s: %v", char.CharacterID, err)
		h.fail(conn, protocol.MsgCreateAuction, remoteFailCode(err), "auction could not be created")
		return
	}

	// Commit. The service accepted the listing; the items are its now.
	if err := h.ledger.RemoveItems(char, msg.IndexOfItem, msg.Amount); err != nil {
		// Cannot happen while the ledger lock is held; the slot was just
		// validated under the same lock.
		log.Printf("[AuctionHandler] Commit mismatch on create for %s: %v", char.CharacterID, err)
		return
	}

	h.recordCommit(ctx, char, model.AuditOpCreate, auctionID, msg.Amount, msg.StartPrice)
	h.sendResult(conn, protocol.AuctionResultMessage{Op: protocol.MsgCreateAuction, Success: true, AuctionID: auctionID})
}

// HandleBid places a bid. The snapshot read and the remote bid are not
// atomic against other bidders; the service decides who wins. The local gold
// debit is strictly downstream of its acceptance.
func (h *AuctionHandler) HandleBid(ctx context.Context, conn protocol.Sender, payload json.RawMessage) {
	char, ok := h.sessions.Character(conn.ID())
	if !ok {
		return
	}

	var msg protocol.BidMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.AuctionID == "" {
		h.fail(conn, protocol.MsgBid, protocol.ReasonInvalidRequest, "malformed bid message")
		return
	}

	unlock := h.ledger.Lock(char.CharacterID)
	defer unlock()

	snapshot, err := h.auctions.GetAuction(ctx, msg.AuctionID)
	if err != nil {
		log.Printf("[AuctionHandler] Snapshot fetch failed for auction %s: %v", msg.AuctionID, err)
		h.fail(conn, protocol.MsgBid, remoteFailCode(err), "auction unavailable")
		return
	}

	if msg.Price <= snapshot.BidPrice {
		h.fail(conn, protocol.MsgBid, protocol.ReasonBidTooLow, "bid must exceed the current price")
		return
	}
	// The gold check uses the last known price, the amount a winning bid at
	// that price would reserve.
	if char.Gold < snapshot.BidPrice {
		h.fail(conn, protocol.MsgBid, protocol.ReasonInsufficientGold, "not enough gold")
		return
	}

	if err := h.auctions.Bid(ctx, char.UserID, char.Name, msg.AuctionID, msg.Price); err != nil {
		log.Printf("[AuctionHandler] Bid failed for %s on auction %s: %v", char.CharacterID, msg.AuctionID, err)
		h.fail(conn, protocol.MsgBid, remoteFailCode(err), "bid was not accepted")
		return
	}

	// Commit the offered price, the amount the service accepted.
	if err := h.ledger.DebitGold(char, msg.Price); err != nil {
		log.Printf("[AuctionHandler] Commit mismatch on bid for %s: %v", char.CharacterID, err)
		return
	}

	h.recordCommit(ctx, char, model.AuditOpBid, msg.AuctionID, 0, msg.Price)
	h.sendResult(conn, protocol.AuctionResultMessage{Op: protocol.MsgBid, Success: true, AuctionID: msg.AuctionID})
}

// HandleBuyout buys an auction out at the buyout price fixed by the snapshot
// read, not renegotiated after the remote call. Item delivery is the auction
// service's responsibility; the gateway only owes the gold debit.
func (h *AuctionHandler) HandleBuyout(ctx context.Context, conn protocol.Sender, payload json.RawMessage) {
	char, ok := h.sessions.Character(conn.ID())
	if !ok {
		return
	}

	var msg protocol.BuyoutMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.AuctionID == "" {
		h.fail(conn, protocol.MsgBuyout, protocol.ReasonInvalidRequest, "malformed buyout message")
		return
	}

	unlock := h.ledger.Lock(char.CharacterID)
	defer unlock()

	snapshot, err := h.auctions.GetAuction(ctx, msg.AuctionID)
	if err != nil {
		log.Printf("[AuctionHandler] Snapshot fetch failed for auction %s: %v", msg.AuctionID, err)
		h.fail(conn, protocol.MsgBuyout, remoteFailCode(err), "auction unavailable")
		return
	}

	price := snapshot.BuyoutPrice
	if char.Gold < price {
		h.fail(conn, protocol.MsgBuyout, protocol.ReasonInsufficientGold, "not enough gold")
		return
	}

	if err := h.auctions.Buyout(ctx, char.UserID, char.Name, msg.AuctionID); err != nil {
		log.Printf("[AuctionHandler] Buyout failed for %s on auction %s: %v", char.CharacterID, msg.AuctionID, err)
		h.fail(conn, protocol.MsgBuyout, remoteFailCode(err), "buyout was not accepted")
		return
	}

	if err := h.ledger.DebitGold(char, price); err != nil {
		log.Printf("[AuctionHandler] Commit mismatch on buyout for %s: %v", char.CharacterID, err)
		return
	}

	h.recordCommit(ctx, char, model.AuditOpBuyout, msg.AuctionID, 0, price)
	h.sendResult(conn, protocol.AuctionResultMessage{Op: protocol.MsgBuyout, Success: true, AuctionID: msg.AuctionID})
}

// HandleGetAccessToken exchanges the client's user id for an auction service
// access token and pushes it back. The client uses it for direct listing and
// history calls the gateway does not mediate.
func (h *AuctionHandler) HandleGetAccessToken(ctx context.Context, conn protocol.Sender, payload json.RawMessage) {
	var msg protocol.AccessTokenRequest
	if err := json.Unmarshal(payload, &msg); err != nil || msg.UserID == "" {
		h.fail(conn, protocol.MsgGetAccessToken, protocol.ReasonInvalidRequest, "malformed access token request")
		return
	}

	token, err := h.tokens.GetAccessToken(ctx, msg.UserID)
	if err != nil {
		log.Printf("[AuctionHandler] Access token exchange failed for user %s: %v", msg.UserID, err)
		h.fail(conn, protocol.MsgGetAccessToken, remoteFailCode(err), "access token unavailable")
		return
	}

	_ = conn.Send(protocol.MsgGetAccessToken, protocol.AccessTokenResponse{AccessToken: token})
}

// recordCommit appends the audit record and schedules persistence of the
// mutated character. Both are best-effort: the ledger commit already
// happened and is not rolled back for bookkeeping failures.
func (h *AuctionHandler) recordCommit(ctx context.Context, char *model.PlayerCharacterData, op, auctionID string, amount int, price int64) {
	if h.audit != nil {
		rec := &model.AuctionAuditRecord{
			CharacterID: char.CharacterID,
			UserID:      char.UserID,
			Operation:   op,
			AuctionID:   auctionID,
			Amount:      amount,
			Price:       price,
		}
		if err := h.audit.InsertRecord(ctx, rec); err != nil {
			log.Printf("[AuctionHandler] Audit insert failed for %s: %v", char.CharacterID, err)
		}
	}

	if h.characters != nil {
		if err := h.characters.Persist(ctx, char); err != nil {
			log.Printf("[AuctionHandler] Persist after commit failed for %s: %v", char.CharacterID, err)
		}
	}
}
