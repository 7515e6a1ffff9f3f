package eventbus

import (
	"sync"

	"github.com/Rorical/LawAgent/internal/models"
)

// SlotKind names one of the two result slots.
type SlotKind int

const (
	SlotSearch SlotKind = iota
	SlotEvent
)

func (k SlotKind) String() string {
	if k == SlotEvent {
		return "event"
	}
	return "search"
}

// Slot holds at most one unread value. Publishing overwrites an unread value.
type Slot[T any] struct {
	mu      sync.Mutex
	kind    SlotKind
	value   T
	full    bool
	gen     uint64
	changed func(SlotKind)
}

// Publish stores v, discarding any unread value.
func (s *Slot[T]) Publish(v T) {
	s.mu.Lock()
	s.value = v
	s.full = true
	s.gen++
	notify := s.changed
	s.mu.Unlock()

	if notify != nil {
		notify(s.kind)
	}
}

// Subscribe returns the unread value, if any, and a clear func that marks
// exactly that value consumed. Clearing after a newer Publish is a no-op, so
// a reader never drops a value it has not seen.
func (s *Slot[T]) Subscribe() (T, bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.full {
		var zero T
		return zero, false, func() {}
	}

	v, gen := s.value, s.gen
	return v, true, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			var zero T
			s.value = zero
			s.full = false
		}
	}
}

// Take reads and clears the slot in one step.
func (s *Slot[T]) Take() (T, bool) {
	v, ok, clear := s.Subscribe()
	clear()
	return v, ok
}

// Pending reports whether an unread value is waiting.
func (s *Slot[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.full
}

// ResultBus delivers command outcomes to pages that did not issue the
// command. It lives as long as the application.
type ResultBus struct {
	Search Slot[models.SearchResult]
	Event  Slot[models.AgenticEvent]

	changes chan SlotKind
}

func NewResultBus() *ResultBus {
	b := &ResultBus{changes: make(chan SlotKind, 2)}
	b.Search.kind = SlotSearch
	b.Event.kind = SlotEvent
	b.Search.changed = b.signal
	b.Event.changed = b.signal
	return b
}

// Changes delivers a wake-up per publish. Signals are coalesced when the
// reader lags; readers should re-check both slots on every receive.
func (b *ResultBus) Changes() <-chan SlotKind {
	return b.changes
}

func (b *ResultBus) signal(kind SlotKind) {
	select {
	case b.changes <- kind:
	default:
	}
}
