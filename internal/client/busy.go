package client

import (
	"net/http"
	"sync"
)

// BusyTracker counts in-flight calls. The indicator turns on when the count
// goes 0->1 and off when it goes 1->0.
type BusyTracker struct {
	pubMu sync.Mutex

	mu     sync.Mutex
	active int
	subs   map[uint64]func(bool)
	nextID uint64
}

// NewBusyTracker returns an idle tracker.
func NewBusyTracker() *BusyTracker {
	return &BusyTracker{subs: make(map[uint64]func(bool))}
}

// Start registers one call.
func (b *BusyTracker) Start() {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	b.active++
	flip := b.active == 1
	subs := b.subscribersLocked()
	b.mu.Unlock()

	if flip {
		notifyAll(subs, true)
	}
}

// Stop releases one call. Stopping an idle tracker does nothing.
func (b *BusyTracker) Stop() {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	if b.active == 0 {
		b.mu.Unlock()
		return
	}
	b.active--
	flip := b.active == 0
	subs := b.subscribersLocked()
	b.mu.Unlock()

	if flip {
		notifyAll(subs, false)
	}
}

// Reset forces the tracker idle.
func (b *BusyTracker) Reset() {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	wasBusy := b.active > 0
	b.active = 0
	subs := b.subscribersLocked()
	b.mu.Unlock()

	if wasBusy {
		notifyAll(subs, false)
	}
}

// Busy reports whether any call is in flight.
func (b *BusyTracker) Busy() bool {
	return b.InFlight() > 0
}

// InFlight returns the number of calls in flight.
func (b *BusyTracker) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Subscribe delivers the current indicator and every later flip.
func (b *BusyTracker) Subscribe(fn func(busy bool)) (unsubscribe func()) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	busy := b.active > 0
	b.mu.Unlock()

	fn(busy)
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *BusyTracker) subscribersLocked() []func(bool) {
	out := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		out = append(out, fn)
	}
	return out
}

func notifyAll(subs []func(bool), busy bool) {
	for _, fn := range subs {
		fn(busy)
	}
}

// WithBusyTracking brackets every call with Start and a deferred Stop.
func WithBusyTracking(tracker *BusyTracker) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			tracker.Start()
			defer tracker.Stop()
			return next.Do(req)
		})
	}
}
