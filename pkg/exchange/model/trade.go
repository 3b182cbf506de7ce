package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one matched fill. Order id 0 marks a market-order leg that
// never rested in the book. Immutable once created.
type Trade struct {
	ID           int64 `gorm:"primaryKey"`
	BuyOrderID   int64
	SellOrderID  int64
	Buyer        string
	Seller       string
	Asset        string
	PaymentToken string
	Amount       decimal.Decimal
	Price        decimal.Decimal
	BuyerFee     decimal.Decimal
	SellerFee    decimal.Decimal
	ExecutedAt   time.Time
}

func (t *Trade) TableName() string { return "trades" }

// Value is the traded notional at the maker's price.
func (t *Trade) Value() decimal.Decimal {
	return t.Amount.Mul(t.Price)
}
