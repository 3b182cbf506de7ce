package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AuctionStatus string

const (
	AuctionStatusActive  AuctionStatus = "Active"
	AuctionStatusSettled AuctionStatus = "Settled"
)

// Auction is a single-lot ascending-price auction. Bids strictly increase
// CurrentBid; the displaced bidder is refunded in full before the new bid is
// recorded. Settlement happens exactly once.
type Auction struct {
	ID            int64 `gorm:"primaryKey"`
	Seller        string
	Asset         string
	PaymentToken  string
	Amount        decimal.Decimal
	StartPrice    decimal.Decimal
	ReservePrice  decimal.Decimal
	CurrentBid    decimal.Decimal
	HighestBidder string
	StartTime     time.Time
	EndTime       time.Time
	Status        AuctionStatus
}

func (a *Auction) TableName() string { return "auctions" }

func (a *Auction) HasBid() bool {
	return a.HighestBidder != ""
}

// ReserveMet reports whether the standing bid clears the reserve.
func (a *Auction) ReserveMet() bool {
	return a.HasBid() && a.CurrentBid.GreaterThanOrEqual(a.ReservePrice)
}

func (a *Auction) Ended(now time.Time) bool {
	return !now.Before(a.EndTime)
}
