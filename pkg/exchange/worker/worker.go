package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/repo"
	"github.com/rwalabs/rwa-exchange/pkg/logging"
)

// EngineView is the read side of the engine the archiver snapshots from.
type EngineView interface {
	Order(id int64) (model.Order, error)
	Trade(id int64) (model.Trade, error)
	Auction(id int64) (model.Auction, error)
}

// Archiver drains the engine's event feed into postgres: the event itself,
// plus the current snapshot of whatever record the event touched. It runs
// beside the engine and never influences matching.
type Archiver struct {
	repo repo.IRepo
	view EngineView
	log  *logging.Logger
}

func NewArchiver(r repo.IRepo, view EngineView, log *logging.Logger) *Archiver {
	return &Archiver{
		repo: r,
		view: view,
		log:  log,
	}
}

// Run consumes the feed until the channel closes or the context ends.
func (w *Archiver) Run(ctx context.Context, events <-chan *model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := w.handleEvent(ctx, ev); err != nil {
				w.log.Error(ctx, "archive event failed",
					zap.String("event_id", ev.EventID), zap.String("kind", string(ev.Kind)), zap.Error(err))
			}
		}
	}
}

func (w *Archiver) handleEvent(ctx context.Context, ev *model.Event) error {
	if err := w.repo.Event().Create(ctx, ev); err != nil {
		return err
	}

	switch ev.Kind {
	case model.EventOrderCreated, model.EventOrderCancelled, model.EventOrderExpired:
		order, err := w.view.Order(ev.OrderID)
		if err != nil {
			return err
		}
		return w.repo.Order().Upsert(ctx, &order)

	case model.EventTradeExecuted:
		trade, err := w.view.Trade(ev.TradeID)
		if err != nil {
			return err
		}
		if err := w.repo.Trade().Create(ctx, &trade); err != nil {
			return err
		}
		// fills mutate both sides; refresh the order that triggered them
		if ev.OrderID != 0 {
			if order, err := w.view.Order(ev.OrderID); err == nil {
				return w.repo.Order().Upsert(ctx, &order)
			}
		}
		return nil

	case model.EventAuctionCreated, model.EventBidPlaced, model.EventAuctionSettled:
		auction, err := w.view.Auction(ev.AuctionID)
		if err != nil {
			return err
		}
		return w.repo.Auction().Upsert(ctx, &auction)
	}
	return nil
}
