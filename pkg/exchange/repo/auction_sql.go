package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

type AuctionSQLRepo struct {
	db *gorm.DB
}

func NewAuctionSQLRepo(db *gorm.DB) *AuctionSQLRepo {
	return &AuctionSQLRepo{
		db: db,
	}
}

func (r *AuctionSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *AuctionSQLRepo) Upsert(ctx context.Context, record *model.Auction) error {
	return r.dbWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}
