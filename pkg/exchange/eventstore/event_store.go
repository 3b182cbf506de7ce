package eventstore

import "github.com/rwalabs/rwa-exchange/pkg/exchange/model"

// EventStore records every event the engine announces and fans them out to
// subscribers.
type EventStore interface {
	Append(ev *model.Event)
	Events() []*model.Event
	ByOrder(orderID int64) []*model.Event
	ByAuction(auctionID int64) []*model.Event
	Subscribe(buffer int) <-chan *model.Event
	Close()
}
