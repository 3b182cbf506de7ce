package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/repo"
	"github.com/rwalabs/rwa-exchange/pkg/logging"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type memRepo struct {
	events   []*model.Event
	orders   map[int64]model.Order
	trades   map[int64]model.Trade
	auctions map[int64]model.Auction
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:   make(map[int64]model.Order),
		trades:   make(map[int64]model.Trade),
		auctions: make(map[int64]model.Auction),
	}
}

func (r *memRepo) Order() repo.IOrder     { return &memOrders{r} }
func (r *memRepo) Trade() repo.ITrade     { return &memTrades{r} }
func (r *memRepo) Auction() repo.IAuction { return &memAuctions{r} }
func (r *memRepo) Event() repo.IEvent     { return &memEvents{r} }

type memOrders struct{ r *memRepo }

func (m *memOrders) Upsert(_ context.Context, record *model.Order) error {
	m.r.orders[record.ID] = *record
	return nil
}

type memTrades struct{ r *memRepo }

func (m *memTrades) Create(_ context.Context, record *model.Trade) error {
	m.r.trades[record.ID] = *record
	return nil
}

type memAuctions struct{ r *memRepo }

func (m *memAuctions) Upsert(_ context.Context, record *model.Auction) error {
	m.r.auctions[record.ID] = *record
	return nil
}

type memEvents struct{ r *memRepo }

func (m *memEvents) Create(_ context.Context, record *model.Event) error {
	m.r.events = append(m.r.events, record)
	return nil
}

func (m *memEvents) BulkCreate(_ context.Context, records []*model.Event) error {
	m.r.events = append(m.r.events, records...)
	return nil
}

type fakeView struct {
	orders   map[int64]model.Order
	trades   map[int64]model.Trade
	auctions map[int64]model.Auction
}

func (v *fakeView) Order(id int64) (model.Order, error) {
	o, ok := v.orders[id]
	if !ok {
		return model.Order{}, fmt.Errorf("order %d not found", id)
	}
	return o, nil
}

func (v *fakeView) Trade(id int64) (model.Trade, error) {
	t, ok := v.trades[id]
	if !ok {
		return model.Trade{}, fmt.Errorf("trade %d not found", id)
	}
	return t, nil
}

func (v *fakeView) Auction(id int64) (model.Auction, error) {
	a, ok := v.auctions[id]
	if !ok {
		return model.Auction{}, fmt.Errorf("auction %d not found", id)
	}
	return a, nil
}

func emptyView() *fakeView {
	return &fakeView{
		orders:   make(map[int64]model.Order),
		trades:   make(map[int64]model.Trade),
		auctions: make(map[int64]model.Auction),
	}
}

func TestArchiverPersistsEventAndSnapshot(t *testing.T) {
	r := newMemRepo()
	view := emptyView()
	view.orders[1] = model.Order{ID: 1, Maker: "alice", Status: model.OrderStatusActive, Amount: decimal.NewFromInt(100)}
	w := NewArchiver(r, view, logging.NewNop())

	ev := model.NewEvent(model.EventOrderCreated, testNow)
	ev.OrderID = 1
	require.NoError(t, w.handleEvent(context.Background(), ev))

	assert.Len(t, r.events, 1)
	got, ok := r.orders[1]
	require.True(t, ok)
	assert.Equal(t, "alice", got.Maker)
}

func TestArchiverTradeRefreshesOrder(t *testing.T) {
	r := newMemRepo()
	view := emptyView()
	view.orders[1] = model.Order{ID: 1, Maker: "alice", Status: model.OrderStatusFilled, Filled: decimal.NewFromInt(100)}
	view.trades[5] = model.Trade{ID: 5, SellOrderID: 1, Amount: decimal.NewFromInt(100)}
	w := NewArchiver(r, view, logging.NewNop())

	ev := model.NewEvent(model.EventTradeExecuted, testNow)
	ev.TradeID = 5
	ev.OrderID = 1
	require.NoError(t, w.handleEvent(context.Background(), ev))

	assert.Contains(t, r.trades, int64(5))
	assert.Equal(t, model.OrderStatusFilled, r.orders[1].Status)
}

func TestArchiverAuctionSnapshot(t *testing.T) {
	r := newMemRepo()
	view := emptyView()
	view.auctions[3] = model.Auction{ID: 3, Seller: "alice", Status: model.AuctionStatusSettled}
	w := NewArchiver(r, view, logging.NewNop())

	ev := model.NewEvent(model.EventAuctionSettled, testNow)
	ev.AuctionID = 3
	require.NoError(t, w.handleEvent(context.Background(), ev))

	assert.Equal(t, model.AuctionStatusSettled, r.auctions[3].Status)
}

func TestRunStopsWhenFeedCloses(t *testing.T) {
	r := newMemRepo()
	view := emptyView()
	view.orders[1] = model.Order{ID: 1}
	w := NewArchiver(r, view, logging.NewNop())

	feed := make(chan *model.Event, 2)
	ev := model.NewEvent(model.EventOrderCreated, testNow)
	ev.OrderID = 1
	feed <- ev
	close(feed)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), feed)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("archiver did not stop on closed feed")
	}
	assert.Len(t, r.events, 1)
}
