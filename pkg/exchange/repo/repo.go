package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	Order() IOrder
	Trade() ITrade
	Auction() IAuction
	Event() IEvent
}

type Repo struct {
	exchangeDB *gorm.DB
}

func NewRepo(exchangeDB *gorm.DB) IRepo {
	return &Repo{
		exchangeDB: exchangeDB,
	}
}

func (r *Repo) Order() IOrder {
	return NewOrderSQLRepo(r.exchangeDB)
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.exchangeDB)
}

func (r *Repo) Auction() IAuction {
	return NewAuctionSQLRepo(r.exchangeDB)
}

func (r *Repo) Event() IEvent {
	return NewEventSQLRepo(r.exchangeDB)
}
