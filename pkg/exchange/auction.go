package exchange

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

// AuctionHouse runs time-boxed ascending-price auctions for single lots.
// It has its own lifecycle but settles through the engine's vault and fee
// ledger like the order book does.
type AuctionHouse struct {
	engine   *Engine
	auctions map[int64]*model.Auction
	seq      int64
}

func newAuctionHouse(e *Engine) *AuctionHouse {
	return &AuctionHouse{
		engine:   e,
		auctions: make(map[int64]*model.Auction),
	}
}

// Auction returns a copy of the auction record.
func (h *AuctionHouse) Auction(id int64) (model.Auction, error) {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	a, ok := h.auctions[id]
	if !ok {
		return model.Auction{}, fmt.Errorf("%w: id %d", ErrAuctionNotFound, id)
	}
	return *a, nil
}

// CreateAuction escrows the lot and opens bidding.
func (e *Engine) CreateAuction(ctx context.Context, seller, asset, paymentToken string, amount, startPrice, reservePrice decimal.Decimal, duration time.Duration) (int64, error) {
	if err := e.guard.enter(); err != nil {
		return 0, err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if seller == "" {
		return 0, ErrInvalidAccount
	}
	if err := e.risk.CheckAuction(asset); err != nil {
		return 0, err
	}
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if !startPrice.IsPositive() || !reservePrice.IsPositive() {
		return 0, fmt.Errorf("%w: start %s, reserve %s", ErrInvalidPrice, startPrice, reservePrice)
	}
	if reservePrice.GreaterThan(startPrice) {
		return 0, fmt.Errorf("%w: reserve %s > start %s", ErrInvalidReserve, reservePrice, startPrice)
	}
	if duration < e.cfg.MinAuctionDuration || duration > e.cfg.MaxAuctionDuration {
		return 0, fmt.Errorf("%w: %s, allowed [%s, %s]",
			ErrBadDuration, duration, e.cfg.MinAuctionDuration, e.cfg.MaxAuctionDuration)
	}

	if err := e.vault.Escrow(seller, asset, amount); err != nil {
		return 0, err
	}

	now := e.nowFn()
	h := e.auctions
	h.seq++
	a := &model.Auction{
		ID:           h.seq,
		Seller:       seller,
		Asset:        asset,
		PaymentToken: paymentToken,
		Amount:       amount,
		StartPrice:   startPrice,
		ReservePrice: reservePrice,
		StartTime:    now,
		EndTime:      now.Add(duration),
		Status:       model.AuctionStatusActive,
	}
	h.auctions[a.ID] = a

	ev := model.NewEvent(model.EventAuctionCreated, now)
	ev.AuctionID = a.ID
	ev.Account = seller
	ev.Asset = asset
	ev.Amount = amount
	ev.Price = startPrice
	e.events.Append(ev)
	return a.ID, nil
}

// PlaceBid accepts a strictly higher bid and refunds the displaced bidder
// in full. The new bid is escrowed before any state changes, so a rejected
// bid leaves no trace and the refund can never fail mid-way.
func (e *Engine) PlaceBid(ctx context.Context, bidder string, auctionID int64, bid decimal.Decimal) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if bidder == "" {
		return ErrInvalidAccount
	}
	if err := e.risk.CheckAuction(""); err != nil {
		return err
	}
	a, ok := e.auctions.auctions[auctionID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrAuctionNotFound, auctionID)
	}
	now := e.nowFn()
	if a.Status != model.AuctionStatusActive {
		return fmt.Errorf("%w: id %d", ErrAuctionSettled, auctionID)
	}
	if a.Ended(now) {
		return fmt.Errorf("%w: id %d ended %s", ErrAuctionEnded, auctionID, a.EndTime.Format(time.RFC3339))
	}
	if bid.LessThan(a.ReservePrice) {
		return fmt.Errorf("%w: bid %s, reserve %s", ErrBidTooLow, bid, a.ReservePrice)
	}
	if a.HasBid() && !bid.GreaterThan(a.CurrentBid) {
		return fmt.Errorf("%w: bid %s, current %s", ErrBidTooLow, bid, a.CurrentBid)
	}

	if err := e.vault.Escrow(bidder, a.PaymentToken, bid); err != nil {
		return err
	}

	prevBidder, prevBid := a.HighestBidder, a.CurrentBid
	a.HighestBidder = bidder
	a.CurrentBid = bid
	if prevBidder != "" {
		// refund-on-outbid: always the exact previously recorded bid
		_ = e.vault.Release(prevBidder, a.PaymentToken, prevBid)
	}

	ev := model.NewEvent(model.EventBidPlaced, now)
	ev.AuctionID = a.ID
	ev.Account = bidder
	ev.Asset = a.Asset
	ev.Price = bid
	e.events.Append(ev)
	return nil
}

// SettleAuction transitions the auction to Settled exactly once. Callable
// by anyone once the end time has passed.
func (e *Engine) SettleAuction(ctx context.Context, auctionID int64) error {
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.risk.CheckAuction(""); err != nil {
		return err
	}
	a, ok := e.auctions.auctions[auctionID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrAuctionNotFound, auctionID)
	}
	now := e.nowFn()
	if a.Status != model.AuctionStatusActive {
		return fmt.Errorf("%w: id %d", ErrAuctionSettled, auctionID)
	}
	if !a.Ended(now) {
		return fmt.Errorf("%w: id %d ends %s", ErrAuctionNotEnded, auctionID, a.EndTime.Format(time.RFC3339))
	}

	ev := model.NewEvent(model.EventAuctionSettled, now)
	ev.AuctionID = a.ID
	ev.Asset = a.Asset

	if a.ReserveMet() {
		fee := e.fees.AuctionFee(a.CurrentBid)
		if err := e.vault.SettleEscrow(a.HighestBidder, a.Seller, a.PaymentToken, a.CurrentBid.Sub(fee)); err != nil {
			return err
		}
		if fee.IsPositive() {
			if err := e.vault.SettleEscrow(a.HighestBidder, e.fees.Recipient(), a.PaymentToken, fee); err != nil {
				return err
			}
		}
		if err := e.vault.SettleEscrow(a.Seller, a.HighestBidder, a.Asset, a.Amount); err != nil {
			return err
		}
		e.fees.RecordAuctionFee(fee)
		a.Status = model.AuctionStatusSettled

		ev.Account = a.HighestBidder
		ev.Amount = a.Amount
		ev.Price = a.CurrentBid
		e.events.Append(ev)
		e.distributeReward(ctx, a.HighestBidder, ActivityAuctionWin, a.CurrentBid)
		return nil
	}

	// failed auction: lot back to the seller, last bidder made whole
	if err := e.vault.Release(a.Seller, a.Asset, a.Amount); err != nil {
		return err
	}
	if a.HasBid() {
		if err := e.vault.Release(a.HighestBidder, a.PaymentToken, a.CurrentBid); err != nil {
			return err
		}
	}
	a.Status = model.AuctionStatusSettled

	ev.Amount = decimal.Zero
	ev.Price = decimal.Zero
	e.events.Append(ev)
	return nil
}
