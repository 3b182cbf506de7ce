package orderbook

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Fill is one matched leg. Price is always the maker's price: the resting
// order's price governs the trade regardless of the incoming limit.
type Fill struct {
	MakerOrderID int64
	Maker        string
	Price        decimal.Decimal
	Amount       decimal.Decimal
}

// MatchResult is what one submission did to the book.
type MatchResult struct {
	Fills []Fill
	// Expired lists makers evicted during the scan because their expiry
	// passed; the caller releases their escrow.
	Expired []*Entry
}

// Book is a single asset's limit order book.
type Book struct {
	asset  string
	bids   *bookSide
	asks   *bookSide
	byID   map[int64]*Entry
	policy SelfTradePolicy
}

func New(asset string, policy SelfTradePolicy) *Book {
	return &Book{
		asset:  asset,
		bids:   newBookSide(Buy),
		asks:   newBookSide(Sell),
		byID:   make(map[int64]*Entry),
		policy: policy,
	}
}

func (b *Book) Asset() string { return b.asset }

func (b *Book) sideOf(s Side) *bookSide {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// BestBid returns the highest resting buy price.
func (b *Book) BestBid() (decimal.Decimal, bool) { return b.bids.bestPrice() }

// BestAsk returns the lowest resting sell price.
func (b *Book) BestAsk() (decimal.Decimal, bool) { return b.asks.bestPrice() }

// Depth returns the total resting amount on one side.
func (b *Book) Depth(side Side) decimal.Decimal { return b.sideOf(side).depth() }

// Entry returns the resting entry for an order id.
func (b *Book) Entry(id int64) (*Entry, bool) {
	e, ok := b.byID[id]
	return e, ok
}

func (b *Book) crosses(incoming *Entry, makerPrice decimal.Decimal) bool {
	if incoming.Side == Buy {
		return incoming.Price.GreaterThanOrEqual(makerPrice)
	}
	return makerPrice.GreaterThanOrEqual(incoming.Price)
}

// SubmitLimit matches an incoming limit entry against the opposite side in
// price-time priority and rests any remainder. Fills execute at each maker's
// price. The incoming entry's Filled is advanced in place.
func (b *Book) SubmitLimit(incoming *Entry, now time.Time) (MatchResult, error) {
	if _, exists := b.byID[incoming.ID]; exists {
		return MatchResult{}, fmt.Errorf("%w: id %d", ErrDuplicateOrder, incoming.ID)
	}
	if !incoming.Price.IsPositive() {
		return MatchResult{}, fmt.Errorf("%w: %s", ErrInvalidPrice, incoming.Price)
	}

	res := b.match(incoming, incoming.Remaining(), nil, now)

	if incoming.Remaining().IsPositive() {
		b.sideOf(incoming.Side).add(incoming)
		b.byID[incoming.ID] = incoming
	}
	return res, nil
}

// match consumes up to want from the side opposite taker, best price first,
// FIFO within a level. eligible, when non-nil, gates each candidate level's
// price; ineligible levels are skipped, not terminal, because a deeper level
// may still pass the gate for a market order's slippage bound.
func (b *Book) match(taker *Entry, want decimal.Decimal, eligible func(decimal.Decimal) bool, now time.Time) MatchResult {
	var res MatchResult
	counter := b.sideOf(taker.Side.Opposite())

	var visit []*priceLevel
	counter.ascend(func(lvl *priceLevel) bool {
		if eligible == nil && !b.crosses(taker, lvl.price) {
			return false
		}
		visit = append(visit, lvl)
		return true
	})

	for _, lvl := range visit {
		if !want.IsPositive() {
			break
		}
		if eligible != nil && !eligible(lvl.price) {
			continue
		}
		for i := 0; i < lvl.orders.Len() && want.IsPositive(); {
			maker := lvl.orders.At(i)
			if maker.expired(now) {
				lvl.orders.Remove(i)
				delete(b.byID, maker.ID)
				res.Expired = append(res.Expired, maker)
				continue
			}
			if b.policy == SelfTradeSkip && maker.Maker == taker.Maker {
				i++
				continue
			}

			size := decimal.Min(want, maker.Remaining())
			maker.Filled = maker.Filled.Add(size)
			taker.Filled = taker.Filled.Add(size)
			want = want.Sub(size)
			res.Fills = append(res.Fills, Fill{
				MakerOrderID: maker.ID,
				Maker:        maker.Maker,
				Price:        lvl.price,
				Amount:       size,
			})

			if !maker.Remaining().IsPositive() {
				lvl.orders.Remove(i)
				delete(b.byID, maker.ID)
			} else {
				i++
			}
		}
		counter.dropIfEmpty(lvl)
	}
	return res
}

// PlanMarket computes, without touching the book, the fills a market order
// of the given size would take. eligible gates candidate prices (the caller's
// slippage bound). The returned remainder is what could not be sourced; a
// non-zero remainder means the market order must be rejected whole.
func (b *Book) PlanMarket(side Side, taker string, amount decimal.Decimal, eligible func(decimal.Decimal) bool, now time.Time) (fills []Fill, unfilled decimal.Decimal) {
	want := amount
	counter := b.sideOf(side.Opposite())
	counter.ascend(func(lvl *priceLevel) bool {
		if !want.IsPositive() {
			return false
		}
		if eligible != nil && !eligible(lvl.price) {
			return true
		}
		for i := 0; i < lvl.orders.Len() && want.IsPositive(); i++ {
			maker := lvl.orders.At(i)
			if maker.expired(now) {
				continue
			}
			if b.policy == SelfTradeSkip && maker.Maker == taker {
				continue
			}
			size := decimal.Min(want, maker.Remaining())
			want = want.Sub(size)
			fills = append(fills, Fill{
				MakerOrderID: maker.ID,
				Maker:        maker.Maker,
				Price:        lvl.price,
				Amount:       size,
			})
		}
		return true
	})
	return fills, want
}

// ApplyFills consumes previously planned fills from the book. The plan must
// come from PlanMarket on this book with no intervening mutation.
func (b *Book) ApplyFills(fills []Fill) error {
	for _, f := range fills {
		maker, ok := b.byID[f.MakerOrderID]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrOrderNotFound, f.MakerOrderID)
		}
		maker.Filled = maker.Filled.Add(f.Amount)
		if !maker.Remaining().IsPositive() {
			b.sideOf(maker.Side).remove(maker)
			delete(b.byID, maker.ID)
		}
	}
	return nil
}

// Cancel removes a resting entry and returns it.
func (b *Book) Cancel(id int64) (*Entry, error) {
	e, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	b.sideOf(e.Side).remove(e)
	delete(b.byID, id)
	return e, nil
}
