package exchange

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

const (
	bpsDenominator = 10_000
	// maxFeeBps caps every fee category at 10%.
	maxFeeBps = 1_000
)

// FeeLedger holds the basis-point fee schedule, computes fee amounts, and
// accumulates running totals. Rate changes apply only to trades executed
// afterwards; fee reserves on resting orders are never recomputed.
type FeeLedger struct {
	mu         sync.RWMutex
	makerBps   int64
	takerBps   int64
	auctionBps int64
	recipient  string

	totalFeesCollected  decimal.Decimal
	totalVolumeTraded   decimal.Decimal
	totalTradesExecuted int64
}

func NewFeeLedger(makerBps, takerBps, auctionBps int64, recipient string) (*FeeLedger, error) {
	f := &FeeLedger{recipient: recipient}
	if recipient == "" {
		return nil, ErrInvalidAccount
	}
	if err := f.UpdateFees(makerBps, takerBps, auctionBps); err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateFees replaces the schedule. Each rate must be within [0, 1000] bps.
func (f *FeeLedger) UpdateFees(makerBps, takerBps, auctionBps int64) error {
	for _, bps := range []int64{makerBps, takerBps, auctionBps} {
		if bps < 0 || bps > maxFeeBps {
			return fmt.Errorf("%w: %d bps, max %d", ErrFeeOutOfRange, bps, maxFeeBps)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.makerBps, f.takerBps, f.auctionBps = makerBps, takerBps, auctionBps
	return nil
}

func bpsOf(value decimal.Decimal, bps int64) decimal.Decimal {
	return value.Mul(decimal.NewFromInt(bps)).Shift(-4)
}

func (f *FeeLedger) MakerFee(value decimal.Decimal) decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return bpsOf(value, f.makerBps)
}

func (f *FeeLedger) TakerFee(value decimal.Decimal) decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return bpsOf(value, f.takerBps)
}

func (f *FeeLedger) AuctionFee(value decimal.Decimal) decimal.Decimal {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return bpsOf(value, f.auctionBps)
}

func (f *FeeLedger) Recipient() string { return f.recipient }

// RecordTrade folds one executed trade into the running totals.
func (f *FeeLedger) RecordTrade(value, fees decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalVolumeTraded = f.totalVolumeTraded.Add(value)
	f.totalFeesCollected = f.totalFeesCollected.Add(fees)
	f.totalTradesExecuted++
}

// RecordAuctionFee folds a settled auction's fee into the totals.
func (f *FeeLedger) RecordAuctionFee(fee decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalFeesCollected = f.totalFeesCollected.Add(fee)
}

// Totals returns (fees collected, volume traded, trades executed).
func (f *FeeLedger) Totals() (decimal.Decimal, decimal.Decimal, int64) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.totalFeesCollected, f.totalVolumeTraded, f.totalTradesExecuted
}
