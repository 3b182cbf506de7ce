package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

type TradeSQLRepo struct {
	db *gorm.DB
}

func NewTradeSQLRepo(db *gorm.DB) *TradeSQLRepo {
	return &TradeSQLRepo{
		db: db,
	}
}

func (r *TradeSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Create inserts a trade; trades are immutable so conflicts are ignored.
func (r *TradeSQLRepo) Create(ctx context.Context, record *model.Trade) error {
	return r.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}
