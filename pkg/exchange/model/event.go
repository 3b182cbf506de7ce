package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventOrderCreated   EventKind = "OrderCreated"
	EventOrderCancelled EventKind = "OrderCancelled"
	EventOrderExpired   EventKind = "OrderExpired"
	EventTradeExecuted  EventKind = "TradeExecuted"
	EventAuctionCreated EventKind = "AuctionCreated"
	EventBidPlaced      EventKind = "BidPlaced"
	EventAuctionSettled EventKind = "AuctionSettled"
	EventEmergencyStop  EventKind = "EmergencyStop"
)

// Event is a flat envelope for everything the engine announces. Ids not
// meaningful for a kind stay zero; Account is the actor the event is about
// (maker, bidder, winner).
type Event struct {
	EventID   string `gorm:"primaryKey"`
	Kind      EventKind
	OrderID   int64
	TradeID   int64
	AuctionID int64
	Account   string
	Asset     string
	Amount    decimal.Decimal
	Price     decimal.Decimal
	At        time.Time
}

func (e *Event) TableName() string { return "order_events" }

func NewEvent(kind EventKind, at time.Time) *Event {
	return &Event{
		EventID: uuid.New().String(),
		Kind:    kind,
		At:      at,
	}
}
