package socket

import (
	"context"
	"time"

	"techdocs/pkg/logger"
)

const (
	UnauthorizedType = "UNAUTHORIZED" // Server rejected the credentials
	SessionType      = "SESSION"      // Login, register or logout
	OperationType    = "OPERATION"    // Document operation state change

	StateStarted   = "started"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

type Event struct {
	Type    string `json:"type"`
	OpID    string `json:"op_id,omitempty"`
	Op      string `json:"op,omitempty"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	// SessionLost is set on UNAUTHORIZED when a held session was dropped.
	SessionLost bool      `json:"session_lost,omitempty"`
	At          time.Time `json:"at"`
}

// Hub fans events out to every registered Subscriber. All state is owned by
// the Run goroutine; other goroutines talk to it through the channels.
type Hub struct {
	subscribers map[*Subscriber]bool
	Broadcast   chan Event
	Register    chan *Subscriber
	Unregister  chan *Subscriber
	started     chan struct{}
	done        chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		Broadcast:   make(chan Event),
		Register:    make(chan *Subscriber),
		Unregister:  make(chan *Subscriber),
		started:     make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run is the hub's event loop. When ctx ends every subscriber's Send channel is
// closed, after any event already accepted has been fanned out.
func (h *Hub) Run(ctx context.Context) {
	close(h.started)
	defer func() {
		close(h.done)
		for s := range h.subscribers {
			close(s.Send)
		}
		h.subscribers = nil
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.Register:
			h.subscribers[s] = true

		case s := <-h.Unregister:
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.Send)
			}

		case ev := <-h.Broadcast:
			for s := range h.subscribers {
				select {
				case s.Send <- ev:
				default:
					// A lagging subscriber must not block the hub.
					logger.Sugar.Warnf("Subscriber buffer full, dropping %s event", ev.Type)
				}
			}
		}
	}
}

// Publish hands ev to the hub. The event is dropped when the hub is nil, has
// not been started, has stopped, or ctx ends first.
func (h *Hub) Publish(ctx context.Context, ev Event) {
	if h == nil {
		return
	}
	select {
	case <-h.started:
	default:
		logger.Sugar.Debugf("Hub not running, dropping %s event", ev.Type)
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case h.Broadcast <- ev:
	case <-h.done:
	case <-ctx.Done():
	}
}

// Subscribe registers a subscriber whose Send channel buffers up to buffer
// events.
func (h *Hub) Subscribe(buffer int) *Subscriber {
	s := &Subscriber{Hub: h, Send: make(chan Event, buffer)}
	if h == nil {
		close(s.Send)
		return s
	}
	select {
	case h.Register <- s:
	case <-h.done:
		close(s.Send)
	}
	return s
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
