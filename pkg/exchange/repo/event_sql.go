package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

type EventSQLRepo struct {
	db *gorm.DB
}

func NewEventSQLRepo(db *gorm.DB) *EventSQLRepo {
	return &EventSQLRepo{
		db: db,
	}
}

func (r *EventSQLRepo) dbWithContext(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *EventSQLRepo) Create(ctx context.Context, record *model.Event) error {
	return r.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

func (r *EventSQLRepo) BulkCreate(ctx context.Context, records []*model.Event) error {
	if len(records) == 0 {
		return nil
	}
	return r.dbWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(records).Error
}
