package broadcast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case event, ok := <-sub.Events():
		require.True(t, ok, "subscription channel closed unexpectedly")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishFansOutToAllObservers(t *testing.T) {
	hub := NewHub(4)
	defer hub.Shutdown()

	subs := []*Subscription{hub.Subscribe(), hub.Subscribe(), hub.Subscribe()}
	assert.Equal(t, 3, hub.NumSubscribers())

	hub.Publish(NewPredictionEvent("payload"))

	for _, sub := range subs {
		event := receiveEvent(t, sub)
		assert.Equal(t, EventTypeNewPrediction, event.Type)
		assert.Equal(t, "payload", event.Data)
		assert.False(t, event.Timestamp.IsZero())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(4)
	defer hub.Shutdown()

	first := hub.Subscribe()
	second := hub.Subscribe()
	removed := hub.Subscribe()

	hub.Unsubscribe(removed)
	assert.Equal(t, 2, hub.NumSubscribers())

	hub.Publish(NewPredictionEvent(1))
	receiveEvent(t, first)
	receiveEvent(t, second)

	// The removed observer's channel is closed and delivers nothing
	_, ok := <-removed.Events()
	assert.False(t, ok)

	stats := hub.GetStats()
	assert.EqualValues(t, 2, stats.EventsDelivered)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub(4)
	defer hub.Shutdown()

	sub := hub.Subscribe()
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	hub.Unsubscribe(nil)

	assert.Equal(t, 0, hub.NumSubscribers())
}

func TestSlowObserverIsDroppedWithoutBlockingPublisher(t *testing.T) {
	hub := NewHub(2)
	defer hub.Shutdown()

	slow := hub.Subscribe()
	healthy := hub.Subscribe()

	// Fill the slow observer's queue without draining it. The third publish
	// overflows its queue and must disconnect it while the healthy observer
	// keeps receiving.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			hub.Publish(NewPredictionEvent(i))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow observer")
	}

	assert.Equal(t, 1, hub.NumSubscribers())

	// The slow observer got the buffered events, then a closed channel
	for i := 0; i < 2; i++ {
		event := receiveEvent(t, slow)
		assert.Equal(t, i, event.Data)
	}
	_, ok := <-slow.Events()
	assert.False(t, ok)

	// The healthy observer saw everything
	for i := 0; i < 3; i++ {
		event := receiveEvent(t, healthy)
		assert.Equal(t, i, event.Data)
	}

	stats := hub.GetStats()
	assert.EqualValues(t, 3, stats.EventsPublished)
	assert.EqualValues(t, 5, stats.EventsDelivered)
	assert.EqualValues(t, 1, stats.EventsDropped)
}

func TestPublishWithNoObservers(t *testing.T) {
	hub := NewHub(4)
	defer hub.Shutdown()

	hub.Publish(NewPredictionEvent("nobody home"))

	stats := hub.GetStats()
	assert.EqualValues(t, 1, stats.EventsPublished)
	assert.EqualValues(t, 0, stats.EventsDelivered)
}

func TestShutdownClosesAllObservers(t *testing.T) {
	hub := NewHub(4)

	subs := []*Subscription{hub.Subscribe(), hub.Subscribe()}
	hub.Shutdown()

	assert.Equal(t, 0, hub.NumSubscribers())
	for _, sub := range subs {
		_, ok := <-sub.Events()
		assert.False(t, ok)
	}
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	hub := NewHub(64)
	defer hub.Shutdown()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			hub.Publish(NewPredictionEvent(fmt.Sprintf("event-%d", i)))
		}
	}()

	for i := 0; i < 20; i++ {
		sub := hub.Subscribe()
		hub.Unsubscribe(sub)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not finish")
	}
}
