package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "Active"
	OrderStatusFilled    OrderStatus = "Filled"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Order is the engine's record of a limit order. Records are never deleted:
// once Filled or Cancelled they are immutable audit entries.
type Order struct {
	ID           int64 `gorm:"primaryKey"`
	Maker        string
	Asset        string
	PaymentToken string
	Amount       decimal.Decimal
	Price        decimal.Decimal
	Filled       decimal.Decimal
	Side         OrderSide
	Status       OrderStatus
	Expiry       time.Time
	CreatedAt    time.Time

	// ReservedFee is the fee escrowed at creation; FeeReserveLeft is what
	// remains of it after fills. Fee-rate changes never touch the reserve.
	ReservedFee    decimal.Decimal
	FeeReserveLeft decimal.Decimal
}

func (o *Order) TableName() string { return "orders" }

func (o *Order) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.Filled)
}

func (o *Order) IsActive() bool {
	return o.Status == OrderStatusActive
}

// ApplyFill advances the fill accounting and flips the status when the
// order completes. filled == amount iff status is Filled.
func (o *Order) ApplyFill(amount decimal.Decimal) {
	o.Filled = o.Filled.Add(amount)
	if o.Filled.GreaterThanOrEqual(o.Amount) {
		o.Status = OrderStatusFilled
	}
}
