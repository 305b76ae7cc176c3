// Package broadcast provides live event fan-out to connected observers with
// non-blocking delivery guarantees for the publisher.
package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calorietrack/calorietrack-go/internal/logging"
)

// EventTypeNewPrediction is the only event type emitted by the logging core.
const EventTypeNewPrediction = "new_prediction"

// DefaultQueueSize is the per-observer outbound queue size used when no
// configuration is supplied.
const DefaultQueueSize = 16

// Event is the fixed structured shape delivered to observers.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPredictionEvent wraps a stored prediction view in the event envelope.
func NewPredictionEvent(data any) Event {
	return Event{
		Type:      EventTypeNewPrediction,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Subscription is the handle held by one observer. Events arrive on the
// channel returned by Events; the channel is closed when the observer is
// unsubscribed or dropped.
type Subscription struct {
	id uint64
	ch chan Event
}

// Events returns the observer's inbound event channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Stats holds delivery counters for the hub.
type Stats struct {
	EventsPublished uint64
	EventsDelivered uint64
	EventsDropped   uint64
}

// Hub maintains the set of live observers and fans published events out to
// them. All mutation and iteration of the observer set passes through one
// mutex, so a publish in progress never sees a partially-mutated set.
type Hub struct {
	mu        sync.Mutex
	subs      map[uint64]*Subscription
	nextID    uint64
	queueSize int

	stats Stats

	logger *slog.Logger
}

// NewHub creates a new broadcast hub. queueSize bounds each observer's
// outbound queue; an observer whose queue would overflow is disconnected
// rather than allowed to block the publisher.
func NewHub(queueSize int) *Hub {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subs:      make(map[uint64]*Subscription),
		queueSize: queueSize,
		logger:    logging.ForService("broadcast"),
	}
}

// Subscribe registers a new observer and returns its subscription handle.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id: h.nextID,
		ch: make(chan Event, h.queueSize),
	}
	h.subs[sub.id] = sub

	h.logger.Debug("observer subscribed", "observer_id", sub.id, "observers", len(h.subs))
	return sub
}

// Unsubscribe removes an observer and closes its event channel. It is
// idempotent; unsubscribing an already-removed handle is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// removeLocked drops an observer from the set. Caller must hold h.mu.
func (h *Hub) removeLocked(sub *Subscription) {
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.ch)
	h.logger.Debug("observer unsubscribed", "observer_id", sub.id, "observers", len(h.subs))
}

// Publish delivers an event to every currently subscribed observer. Delivery
// is non-blocking for the publisher: an observer whose queue is full is
// disconnected and the event is counted as dropped for it. Publish never
// returns an error; per-observer failures are absorbed here.
func (h *Hub) Publish(event Event) {
	atomic.AddUint64(&h.stats.EventsPublished, 1)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- event:
			atomic.AddUint64(&h.stats.EventsDelivered, 1)
		default:
			// Slow consumer, disconnect it rather than block the publisher
			atomic.AddUint64(&h.stats.EventsDropped, 1)
			h.logger.Warn("dropping slow observer",
				"observer_id", sub.id,
				"queue_size", h.queueSize,
				"event_type", event.Type,
			)
			h.removeLocked(sub)
		}
	}
}

// NumSubscribers returns the current observer count.
func (h *Hub) NumSubscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// GetStats returns a snapshot of the delivery counters.
func (h *Hub) GetStats() Stats {
	return Stats{
		EventsPublished: atomic.LoadUint64(&h.stats.EventsPublished),
		EventsDelivered: atomic.LoadUint64(&h.stats.EventsDelivered),
		EventsDropped:   atomic.LoadUint64(&h.stats.EventsDropped),
	}
}

// Shutdown disconnects all observers.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		h.removeLocked(sub)
	}
	h.logger.Info("broadcast hub shut down")
}
