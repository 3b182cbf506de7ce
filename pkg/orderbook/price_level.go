package orderbook

import (
	"github.com/gammazero/deque"
	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

// priceLevel is the FIFO queue of resting orders sharing one exact price.
// A level exists only while it holds at least one order.
type priceLevel struct {
	price  decimal.Decimal
	orders deque.Deque[*Entry]
}

func newPriceLevel(price decimal.Decimal) *priceLevel {
	return &priceLevel{price: price}
}

// bookSide keeps one side's price levels in a b-tree ordered best-first:
// descending prices for bids, ascending for asks. Best price is the tree
// minimum, so best-price maintenance is incremental rather than a rescan.
type bookSide struct {
	side   Side
	levels *btree.BTreeG[*priceLevel]
}

func newBookSide(side Side) *bookSide {
	less := func(a, b *priceLevel) bool { return a.price.LessThan(b.price) }
	if side == Buy {
		less = func(a, b *priceLevel) bool { return a.price.GreaterThan(b.price) }
	}
	return &bookSide{
		side:   side,
		levels: btree.NewG(8, less),
	}
}

func (s *bookSide) level(price decimal.Decimal) (*priceLevel, bool) {
	return s.levels.Get(&priceLevel{price: price})
}

func (s *bookSide) add(e *Entry) *priceLevel {
	lvl, ok := s.level(e.Price)
	if !ok {
		lvl = newPriceLevel(e.Price)
		s.levels.ReplaceOrInsert(lvl)
	}
	lvl.orders.PushBack(e)
	return lvl
}

// remove takes an entry out of its level's queue, dropping the level the
// moment its queue empties. Reports whether the entry was found.
func (s *bookSide) remove(e *Entry) bool {
	lvl, ok := s.level(e.Price)
	if !ok {
		return false
	}
	for i := 0; i < lvl.orders.Len(); i++ {
		if lvl.orders.At(i).ID == e.ID {
			lvl.orders.Remove(i)
			if lvl.orders.Len() == 0 {
				s.levels.Delete(lvl)
			}
			return true
		}
	}
	return false
}

func (s *bookSide) dropIfEmpty(lvl *priceLevel) {
	if lvl.orders.Len() == 0 {
		s.levels.Delete(lvl)
	}
}

// bestPrice returns the side's top-of-book price.
func (s *bookSide) bestPrice() (decimal.Decimal, bool) {
	lvl, ok := s.levels.Min()
	if !ok {
		return decimal.Zero, false
	}
	return lvl.price, true
}

// ascend visits levels best-first until fn returns false. fn must not
// mutate the tree; callers collect levels first when they intend to.
func (s *bookSide) ascend(fn func(lvl *priceLevel) bool) {
	s.levels.Ascend(fn)
}

// depth returns total resting amount on the side, for book inspection.
func (s *bookSide) depth() decimal.Decimal {
	total := decimal.Zero
	s.levels.Ascend(func(lvl *priceLevel) bool {
		for i := 0; i < lvl.orders.Len(); i++ {
			total = total.Add(lvl.orders.At(i).Remaining())
		}
		return true
	})
	return total
}
