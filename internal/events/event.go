package events

import (
	"sync"
)

// Event is a typed pub/sub topic. Listeners subscribe either with a channel
// (non-blocking delivery, full channels are skipped) or with a callback
// (called synchronously from Notify, outside the lock).
type Event[T any] struct {
	mu          sync.RWMutex
	channels    map[uint64]chan<- T
	callbacks   map[uint64]func(T)
	nextID      uint64
	replayLast  bool
	last        T
	hasNotified bool
}

// NewEvent creates an Event.
// replayLast: if true, the Event remembers the last value passed to Notify and
// delivers it to new listeners as soon as they subscribe.
func NewEvent[T any](replayLast bool) *Event[T] {
	return &Event[T]{
		channels:   make(map[uint64]chan<- T),
		callbacks:  make(map[uint64]func(T)),
		replayLast: replayLast,
	}
}

// Listen registers a channel and returns its deregistration function.
func (e *Event[T]) Listen(ch chan<- T) func() {
	if ch == nil {
		panic("events: channel cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.channels[id] = ch
	last, replay := e.last, e.replayLast && e.hasNotified
	e.mu.Unlock()

	if replay {
		select {
		case ch <- last:
		default:
		}
	}

	return func() {
		e.mu.Lock()
		delete(e.channels, id)
		e.mu.Unlock()
	}
}

// ListenFunc registers a callback and returns its deregistration function.
func (e *Event[T]) ListenFunc(callback func(T)) func() {
	if callback == nil {
		panic("events: callback cannot be nil")
	}

	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.callbacks[id] = callback
	last, replay := e.last, e.replayLast && e.hasNotified
	e.mu.Unlock()

	// Outside the lock so the callback may call back into the Event
	if replay {
		callback(last)
	}

	return func() {
		e.mu.Lock()
		delete(e.callbacks, id)
		e.mu.Unlock()
	}
}

// Notify delivers value to every listener. Channel sends never block.
func (e *Event[T]) Notify(value T) {
	e.mu.Lock()
	if e.replayLast {
		e.last = value
		e.hasNotified = true
	}
	channels := make([]chan<- T, 0, len(e.channels))
	for _, ch := range e.channels {
		channels = append(channels, ch)
	}
	callbacks := make([]func(T), 0, len(e.callbacks))
	for _, cb := range e.callbacks {
		callbacks = append(callbacks, cb)
	}
	e.mu.Unlock()

	for _, ch := range channels {
		select {
		case ch <- value:
		default:
			// listener is behind, skip it
		}
	}
	for _, cb := range callbacks {
		cb(value)
	}
}

// Last returns the most recently notified value when replay is enabled.
func (e *Event[T]) Last() (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last, e.hasNotified
}

// ListenerCount returns the number of registered channels and callbacks.
func (e *Event[T]) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.channels) + len(e.callbacks)
}
