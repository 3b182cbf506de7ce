package orderbook

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Opposite returns the side an order of this side trades against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// SelfTradePolicy decides what happens when an incoming order crosses a
// resting order from the same account.
type SelfTradePolicy int

const (
	// SelfTradeAllow lets an account trade against itself.
	SelfTradeAllow SelfTradePolicy = iota
	// SelfTradeSkip leaves the account's own resting orders untouched and
	// moves on to the next candidate.
	SelfTradeSkip
)

// Entry is a resting order as the book sees it. The exchange layer owns the
// full order record; the book keeps only what the match loop reads.
type Entry struct {
	ID     int64
	Maker  string
	Side   Side
	Price  decimal.Decimal
	Amount decimal.Decimal
	Filled decimal.Decimal
	Expiry time.Time
}

// Remaining returns the unfilled amount.
func (e *Entry) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.Filled)
}

func (e *Entry) expired(now time.Time) bool {
	return !e.Expiry.IsZero() && !now.Before(e.Expiry)
}
