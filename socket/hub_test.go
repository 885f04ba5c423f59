package socket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to read an event with a timeout.
func readEvent(t *testing.T, s *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-s.Send:
		require.True(t, ok, "subscriber channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub, cancel
}

func TestHubFanOut(t *testing.T) {
	hub, _ := startHub(t)

	s1 := hub.Subscribe(4)
	s2 := hub.Subscribe(4)

	hub.Publish(context.Background(), Event{Type: UnauthorizedType, Message: "/api/documents"})

	ev1 := readEvent(t, s1)
	ev2 := readEvent(t, s2)
	assert.Equal(t, UnauthorizedType, ev1.Type)
	assert.Equal(t, "/api/documents", ev1.Message)
	assert.False(t, ev1.At.IsZero(), "publish stamps the event time")
	assert.Equal(t, ev1, ev2)

	// Unregistered subscribers stop receiving and get a closed channel.
	s2.Close()
	_, open := <-s2.Send
	assert.False(t, open)

	hub.Publish(context.Background(), Event{Type: SessionType, State: "logout"})
	assert.Equal(t, SessionType, readEvent(t, s1).Type)
}

func TestHubDropsForLaggingSubscriber(t *testing.T) {
	hub, _ := startHub(t)

	slow := hub.Subscribe(1)
	fast := hub.Subscribe(8)

	for i := 0; i < 3; i++ {
		hub.Publish(context.Background(), Event{Type: OperationType, OpID: string(rune('a' + i))})
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, string(rune('a'+i)), readEvent(t, fast).OpID)
	}
	assert.Equal(t, "a", readEvent(t, slow).OpID)
	select {
	case ev := <-slow.Send:
		t.Fatalf("expected later events to be dropped, got %+v", ev)
	default:
	}
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub, cancel := startHub(t)
	s := hub.Subscribe(4)

	hub.Publish(context.Background(), Event{Type: UnauthorizedType})
	cancel()
	<-hub.Done()

	var got []Event
	s.Listen(func(ev Event) { got = append(got, ev) })
	require.Len(t, got, 1, "events accepted before shutdown are still delivered")

	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), Event{Type: SessionType})
		s.Close()
	}, "publishing to a stopped hub is a no-op")

	late := hub.Subscribe(1)
	_, open := <-late.Send
	assert.False(t, open)
}

func TestNilHub(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), Event{Type: UnauthorizedType})
		s := hub.Subscribe(1)
		s.Close()
		s.Listen(func(Event) { t.Fatal("nil hub delivers nothing") })
	})
}

func TestPublishDoesNotBlockWithoutRunLoop(t *testing.T) {
	hub := NewHub()

	published := make(chan struct{})
	go func() {
		hub.Publish(context.Background(), Event{Type: OperationType})
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a hub that was never started")
	}
}

func TestPublishGivesUpWhenContextEnds(t *testing.T) {
	hub := NewHub()
	// Mark the hub as started without a loop draining Broadcast.
	close(hub.started)

	pubCtx, pubCancel := context.WithCancel(context.Background())
	published := make(chan struct{})
	go func() {
		hub.Publish(pubCtx, Event{Type: OperationType})
		close(published)
	}()
	pubCancel()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish ignored the cancelled context")
	}
}
