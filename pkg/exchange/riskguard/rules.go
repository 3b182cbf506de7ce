package riskguard

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

var (
	ErrInvalidOrderSize = errors.New("order size out of range")
	ErrInvalidPrice     = errors.New("invalid order price")
	ErrInvalidExpiry    = errors.New("invalid order expiry")
)

// Rule is one stateless admission check on an order.
type Rule interface {
	Check(o *model.Order) error
}

type sizeRule struct {
	min decimal.Decimal
	max decimal.Decimal
}

func (r *sizeRule) Check(o *model.Order) error {
	if o.Amount.LessThan(r.min) || o.Amount.GreaterThan(r.max) {
		return fmt.Errorf("%w: %s, allowed [%s, %s]", ErrInvalidOrderSize, o.Amount, r.min, r.max)
	}
	return nil
}

type priceRule struct{}

func (r *priceRule) Check(o *model.Order) error {
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, o.Price)
	}
	return nil
}

func checkExpiry(expiry, now time.Time, maxDuration time.Duration) error {
	if !expiry.After(now) {
		return fmt.Errorf("%w: %s already passed", ErrInvalidExpiry, expiry.Format(time.RFC3339))
	}
	if expiry.After(now.Add(maxDuration)) {
		return fmt.Errorf("%w: %s beyond max duration %s", ErrInvalidExpiry, expiry.Format(time.RFC3339), maxDuration)
	}
	return nil
}
