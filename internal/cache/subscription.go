package cache

// Subscription is one screen's view of a key. Updates delivers the latest
// state only: a slow reader skips intermediate states, never the last one.
type Subscription struct {
	cache   *Cache
	key     string
	updates chan State
	last    State
	closed  bool
}

// State returns the most recent state delivered to this subscription.
func (s *Subscription) State() State {
	if s.cache == nil {
		return s.last
	}
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return s.last
}

// Updates returns the state channel. It is closed by Close. An inert
// subscription returns nil, which blocks forever in a select.
func (s *Subscription) Updates() <-chan State {
	return s.updates
}

// Close unsubscribes. Fetches completing afterwards are not delivered.
func (s *Subscription) Close() {
	if s.cache == nil {
		return
	}
	s.cache.unsubscribe(s)
}

// deliver replaces any undelivered state. Callers hold cache.mu.
func (s *Subscription) deliver(st State) {
	s.last = st
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- st:
	default:
	}
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.updates)
}
