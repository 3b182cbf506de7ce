package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrPriceUnavailable = errors.New("no price for asset")
	ErrStalePrice       = errors.New("price too old")
)

// Price is one oracle observation.
type Price struct {
	Value      decimal.Decimal `json:"price"`
	Timestamp  time.Time       `json:"timestamp"`
	Confidence decimal.Decimal `json:"confidence"`
}

// Oracle is the external reference-price collaborator. The engine reads it
// once per market order to bound slippage; it never prices assets itself.
type Oracle interface {
	GetPrice(ctx context.Context, asset string) (Price, error)
}

// Static is a fixed price table, used in tests and local runs.
type Static struct {
	mu     sync.RWMutex
	prices map[string]Price
}

func NewStatic() *Static {
	return &Static{prices: make(map[string]Price)}
}

func (s *Static) Set(asset string, p Price) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[asset] = p
}

func (s *Static) GetPrice(_ context.Context, asset string) (Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[asset]
	if !ok {
		return Price{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, asset)
	}
	return p, nil
}
