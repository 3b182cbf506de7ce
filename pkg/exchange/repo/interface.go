package repo

import (
	"context"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

type IOrder interface {
	Upsert(ctx context.Context, record *model.Order) error
}

type ITrade interface {
	Create(ctx context.Context, record *model.Trade) error
}

type IAuction interface {
	Upsert(ctx context.Context, record *model.Auction) error
}

type IEvent interface {
	Create(ctx context.Context, record *model.Event) error
	BulkCreate(ctx context.Context, records []*model.Event) error
}
