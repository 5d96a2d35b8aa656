// Package realtime fans out application events to live dashboards.
package realtime

import (
	"sync"
	"sync/atomic"
)

// Event names pushed to dashboards.
const (
	EventStatus              = "status"
	EventStatsUpdate         = "stats_update"
	EventNewScanReading      = "new_scan_reading"
	EventNewNFCReading       = "new_nfc_reading"
	EventMovementRecorded    = "movement_recorded"
	EventShipmentCreated     = "shipment_created"
	EventWithdrawalRequested = "withdrawal_requested"
	EventWithdrawalCompleted = "withdrawal_completed"
	EventInventoryStats      = "inventory_stats"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 32

// Event is one message on the wire: {"event": name, "data": payload}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Subscriber receives events on C until it is unsubscribed.
type Subscriber struct {
	C       <-chan Event
	ch      chan Event
	dropped atomic.Int64
}

// Dropped returns how many events were discarded because the subscriber
// was not keeping up.
func (s *Subscriber) Dropped() int64 {
	return s.dropped.Load()
}

// Hub delivers published events to every subscriber. Publish never blocks;
// a subscriber whose queue is full misses the event. A nil *Hub discards
// everything.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
}

// NewHub returns a hub whose subscribers queue up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{subs: make(map[*Subscriber]struct{}), buffer: buffer}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	ch := make(chan Event, h.buffer)
	s := &Subscriber{C: ch, ch: ch}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes s and closes its channel. Calling it twice is safe.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

// Publish sends an event to all current subscribers.
func (h *Hub) Publish(name string, data any) {
	if h == nil {
		return
	}
	ev := Event{Name: name, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
