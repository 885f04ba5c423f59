package socket

type Subscriber struct {
	Hub  *Hub
	Send chan Event
}

// Listen calls handle for each event until the subscriber is closed or the
// hub stops.
func (s *Subscriber) Listen(handle func(Event)) {
	for ev := range s.Send {
		handle(ev)
	}
}

func (s *Subscriber) Close() {
	if s.Hub == nil {
		return
	}
	select {
	case s.Hub.Unregister <- s:
	case <-s.Hub.done:
	}
}
