package eventbus

import "testing"

func TestSubscribe_ReceivesEmittedEvent(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Emit("track_start", map[string]any{"track_id": 1})

	select {
	case evt := <-ch:
		if evt.Type != "track_start" {
			t.Errorf("expected type %q, got %q", "track_start", evt.Type)
		}
	default:
		t.Fatal("expected an event to be queued")
	}
}

func TestEmit_FansOutToEverySubscriber(t *testing.T) {
	bus := New()
	a := bus.Subscribe()
	b := bus.Subscribe()
	defer bus.Unsubscribe(a)
	defer bus.Unsubscribe(b)

	bus.Emit("pipeline_started", nil)

	if len(a) != 1 {
		t.Errorf("expected subscriber a to have 1 queued event, got %d", len(a))
	}
	if len(b) != 1 {
		t.Errorf("expected subscriber b to have 1 queued event, got %d", len(b))
	}
}

func TestEmit_DropsWhenSubscriberQueueIsFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	for i := 0; i < subscriberQueueDepth+10; i++ {
		bus.Emit("track_start", i)
	}

	if len(ch) != subscriberQueueDepth {
		t.Errorf("expected channel to be capped at %d, got %d", subscriberQueueDepth, len(ch))
	}

	// The oldest events should still be the first ones in, not the last
	// (Emit drops new events on a full queue rather than evicting old ones).
	first := <-ch
	if first.Data != 0 {
		t.Errorf("expected first queued event to carry data 0, got %v", first.Data)
	}
}

func TestUnsubscribe_ClosesChannelAndStopsDelivery(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()

	bus.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after Unsubscribe")
	}

	if bus.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after Unsubscribe, got %d", bus.SubscriberCount())
	}
}

func TestUnsubscribe_IsIdempotent(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	bus.Unsubscribe(ch) // must not panic on double-close
}

func TestSubscriberCount(t *testing.T) {
	bus := New()
	if bus.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers initially, got %d", bus.SubscriberCount())
	}
	ch := bus.Subscribe()
	if bus.SubscriberCount() != 1 {
		t.Errorf("expected 1 subscriber, got %d", bus.SubscriberCount())
	}
	bus.Unsubscribe(ch)
}
