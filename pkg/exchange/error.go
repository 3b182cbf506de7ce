package exchange

import "errors"

var (
	// validation
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidPrice   = errors.New("invalid price")
	ErrFeeOutOfRange  = errors.New("fee rate out of range")
	ErrInvalidReserve = errors.New("reserve price above start price")
	ErrBadDuration    = errors.New("auction duration out of range")

	// authorization
	ErrNotMaker = errors.New("caller is not the order maker")

	// state conflict
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderNotActive  = errors.New("order not active")
	ErrOrderInMatching = errors.New("order locked by in-flight match")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionSettled  = errors.New("auction already settled")
	ErrAuctionEnded    = errors.New("auction already ended")
	ErrAuctionNotEnded = errors.New("auction not ended yet")
	ErrReentrantCall   = errors.New("reentrant call")

	// economic
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientEscrow    = errors.New("insufficient escrowed balance")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity within slippage bound")
	ErrBidTooLow             = errors.New("bid below required minimum")
)
