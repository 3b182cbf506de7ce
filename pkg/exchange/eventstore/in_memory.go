package eventstore

import (
	"sync"

	"github.com/rwalabs/rwa-exchange/pkg/exchange/model"
)

type InMemoryEventStore struct {
	mu        sync.RWMutex
	events    []*model.Event
	byOrder   map[int64][]*model.Event
	byAuction map[int64][]*model.Event
	subs      []chan *model.Event
	closed    bool
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		byOrder:   make(map[int64][]*model.Event),
		byAuction: make(map[int64][]*model.Event),
	}
}

func (s *InMemoryEventStore) Append(ev *model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
	if ev.OrderID != 0 {
		s.byOrder[ev.OrderID] = append(s.byOrder[ev.OrderID], ev)
	}
	if ev.AuctionID != 0 {
		s.byAuction[ev.AuctionID] = append(s.byAuction[ev.AuctionID], ev)
	}

	// slow subscribers drop events rather than stalling the engine
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *InMemoryEventStore) Events() []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *InMemoryEventStore) ByOrder(orderID int64) []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Event(nil), s.byOrder[orderID]...)
}

func (s *InMemoryEventStore) ByAuction(auctionID int64) []*model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Event(nil), s.byAuction[auctionID]...)
}

func (s *InMemoryEventStore) Subscribe(buffer int) <-chan *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *model.Event, buffer)
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

func (s *InMemoryEventStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
