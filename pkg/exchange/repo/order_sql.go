package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

type OrderSQLRepo struct {
	db *gorm.DB
}

func NewOrderSQLRepo(db *gorm.DB) *OrderSQLRepo {
	return &OrderSQLRepo{
		db: db,
	}
}

func (r *OrderSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *OrderSQLRepo) Upsert(ctx context.Context, record *model.Order) error {
	return r.dbWithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(record).Error
}
