package realtime

import (
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(7)
	defer cancel()

	hub.Publish(Event{Table: "preferences", UserID: 7})

	select {
	case event := <-ch:
		if event.Table != "preferences" || event.UserID != 7 {
			t.Errorf("got event %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishFiltersByUser(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(7)
	defer cancel()

	hub.Publish(Event{Table: "preferences", UserID: 8})

	select {
	case event := <-ch:
		t.Errorf("unexpected event for other user: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe(7)
	defer cancel()

	// No reader; the buffer fills and further publishes must drop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBufferSize*2; i++ {
			hub.Publish(Event{Table: "preferences", UserID: 7})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(7)

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// A second cancel must be a no-op.
	cancel()

	// Publishing after cancel must not panic on a closed channel.
	hub.Publish(Event{Table: "preferences", UserID: 7})
}

func TestShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(7)

	hub.Shutdown()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after shutdown")
	}

	// Cancel after shutdown must be a no-op.
	cancel()
}
