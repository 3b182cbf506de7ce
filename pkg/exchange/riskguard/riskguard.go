package riskguard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

var (
	ErrEmergencyStopped    = errors.New("emergency stop active")
	ErrAssetNotSupported   = errors.New("asset not supported")
	ErrTradingDisabled     = errors.New("trading disabled for asset")
	ErrTokenNotSupported   = errors.New("payment token not supported")
	ErrTooManyActiveOrders = errors.New("active order limit reached")
	ErrSlippageTooHigh     = errors.New("requested slippage above allowed maximum")
)

// Limits are the admission parameters applied before any state mutation.
type Limits struct {
	MinOrderSize           decimal.Decimal
	MaxOrderSize           decimal.Decimal
	MaxOrderDuration       time.Duration
	MaxActiveOrdersPerUser int
	MaxSlippageBps         int64
}

type assetState struct {
	tradingEnabled bool
}

// Guard performs admission control: asset flags, order limits, the global
// emergency stop, and per-user active-order counting. It holds no order
// state beyond the counters.
type Guard struct {
	mu           sync.RWMutex
	limits       Limits
	rules        []Rule
	assets       map[string]*assetState
	tokens       map[string]struct{}
	halted       bool
	activeOrders map[string]int
}

func New(limits Limits) *Guard {
	g := &Guard{
		limits:       limits,
		assets:       make(map[string]*assetState),
		tokens:       make(map[string]struct{}),
		activeOrders: make(map[string]int),
	}
	g.rules = []Rule{
		&sizeRule{min: limits.MinOrderSize, max: limits.MaxOrderSize},
		&priceRule{},
	}
	return g
}

// RegisterAsset marks an asset supported and trading-enabled.
func (g *Guard) RegisterAsset(asset string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assets[asset] = &assetState{tradingEnabled: true}
}

func (g *Guard) SetTradingEnabled(asset string, enabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset)
	}
	st.tradingEnabled = enabled
	return nil
}

func (g *Guard) RegisterPaymentToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens[token] = struct{}{}
}

func (g *Guard) ActivateEmergencyStop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.halted = true
}

func (g *Guard) DeactivateEmergencyStop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.halted = false
}

func (g *Guard) Halted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.halted
}

// UpdateTradingLimits replaces the per-user order cap and the ceiling on
// caller-requested market-order slippage.
func (g *Guard) UpdateTradingLimits(maxActiveOrdersPerUser int, maxSlippageBps int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limits.MaxActiveOrdersPerUser = maxActiveOrdersPerUser
	g.limits.MaxSlippageBps = maxSlippageBps
}

func (g *Guard) checkAsset(asset, token string) error {
	st, ok := g.assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset)
	}
	if !st.tradingEnabled {
		return fmt.Errorf("%w: %s", ErrTradingDisabled, asset)
	}
	if _, ok := g.tokens[token]; !ok {
		return fmt.Errorf("%w: %s", ErrTokenNotSupported, token)
	}
	return nil
}

// CheckNewOrder gates order creation. Every rejection happens before the
// caller escrows anything.
func (g *Guard) CheckNewOrder(o *model.Order, now time.Time) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.halted {
		return ErrEmergencyStopped
	}
	if err := g.checkAsset(o.Asset, o.PaymentToken); err != nil {
		return err
	}
	for _, r := range g.rules {
		if err := r.Check(o); err != nil {
			return err
		}
	}
	if err := checkExpiry(o.Expiry, now, g.limits.MaxOrderDuration); err != nil {
		return err
	}
	if g.activeOrders[o.Maker] >= g.limits.MaxActiveOrdersPerUser {
		return fmt.Errorf("%w: %d active, limit %d",
			ErrTooManyActiveOrders, g.activeOrders[o.Maker], g.limits.MaxActiveOrdersPerUser)
	}
	return nil
}

// CheckMarketOrder gates market execution; market orders do not rest, so
// the active-order cap and expiry window do not apply.
func (g *Guard) CheckMarketOrder(asset, token string, amount decimal.Decimal, maxSlippageBps int64) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.halted {
		return ErrEmergencyStopped
	}
	if err := g.checkAsset(asset, token); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidOrderSize, amount)
	}
	if maxSlippageBps < 0 || maxSlippageBps > g.limits.MaxSlippageBps {
		return fmt.Errorf("%w: requested %d bps, allowed %d",
			ErrSlippageTooHigh, maxSlippageBps, g.limits.MaxSlippageBps)
	}
	return nil
}

// CheckAuction gates auction creation, bidding and settlement while the
// emergency stop is active, and asset admission on creation.
func (g *Guard) CheckAuction(asset string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.halted {
		return ErrEmergencyStopped
	}
	if asset == "" {
		return nil
	}
	if st, ok := g.assets[asset]; !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotSupported, asset)
	} else if !st.tradingEnabled {
		return fmt.Errorf("%w: %s", ErrTradingDisabled, asset)
	}
	return nil
}

// OrderOpened and OrderClosed maintain the per-user active-order counters.
func (g *Guard) OrderOpened(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activeOrders[user]++
}

func (g *Guard) OrderClosed(user string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.activeOrders[user] > 0 {
		g.activeOrders[user]--
	}
}

func (g *Guard) ActiveOrders(user string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeOrders[user]
}
