package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
	"github.com/rwalabs/rwa-exchange/pkg/logging"
)

// Publisher pushes a refreshed summary somewhere external (redis, a feed).
type Publisher interface {
	Publish(ctx context.Context, md *model.MarketData) error
}

// Service keeps the per-asset rolling trade summaries.
type Service struct {
	mu        sync.RWMutex
	data      map[string]*model.MarketData
	publisher Publisher
	log       *logging.Logger
}

func NewService(log *logging.Logger, publisher Publisher) *Service {
	return &Service{
		data:      make(map[string]*model.MarketData),
		publisher: publisher,
		log:       log,
	}
}

// RecordTrade folds one trade into the asset's summary and publishes the
// refreshed snapshot. Publishing is best effort.
func (s *Service) RecordTrade(ctx context.Context, asset string, price, amount decimal.Decimal, at time.Time) {
	s.mu.Lock()
	md, ok := s.data[asset]
	if !ok {
		md = &model.MarketData{Asset: asset}
		s.data[asset] = md
	}
	md.RecordTrade(price, amount, at)
	snapshot := *md
	s.mu.Unlock()

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, &snapshot); err != nil {
			s.log.Warn(ctx, "publish market data failed",
				zap.String("asset", asset), zap.Error(err))
		}
	}
}

// Snapshot returns a copy of the asset's current summary.
func (s *Service) Snapshot(asset string) (model.MarketData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	md, ok := s.data[asset]
	if !ok {
		return model.MarketData{}, false
	}
	return *md, true
}
