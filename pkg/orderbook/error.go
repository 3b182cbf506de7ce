package orderbook

import "errors"

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidPrice   = errors.New("invalid order price")
	ErrDuplicateOrder = errors.New("duplicate order")
)
