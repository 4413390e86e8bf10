// Package source drives a TS file through a parser/encapsulator pair
// on two goroutines, producer and consumer, handing the resulting
// datagrams to a Muxer stream. Grounded on ipcaster's original
// source/StreamSource.h and source/FileSource.hpp.
package source

import "sync"

// Observer is notified of terminal events on a Source.
type Observer interface {
	// OnEnd is called once the source has read and encapsulated its
	// file to completion.
	OnEnd()
	// OnError is called when the source terminates abnormally; the
	// source is not usable afterwards.
	OnError(err error)
}

// Subscription is a handle returned by Subscribe. Calling Unsubscribe
// deregisters the observer; it is safe to call more than once.
//
// This replaces the original's weak-reference observer registry: a
// subscription handle that the caller owns and explicitly drops,
// rather than a global table of weak pointers silently pruned on use.
type Subscription struct {
	unsubscribe func()
	once        sync.Once
}

// Unsubscribe deregisters the observer associated with this subscription.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

// observerRegistry is a small mutex-guarded set of subscribed observers.
type observerRegistry struct {
	mu        sync.Mutex
	nextID    uint64
	observers map[uint64]Observer
}

func newObserverRegistry() *observerRegistry {
	return &observerRegistry{observers: make(map[uint64]Observer)}
}

func (r *observerRegistry) subscribe(o Observer) *Subscription {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.observers[id] = o
	r.mu.Unlock()

	return &Subscription{unsubscribe: func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}}
}

func (r *observerRegistry) notifyEnd() {
	for _, o := range r.snapshot() {
		o.OnEnd()
	}
}

func (r *observerRegistry) notifyError(err error) {
	for _, o := range r.snapshot() {
		o.OnError(err)
	}
}

func (r *observerRegistry) snapshot() []Observer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Observer, 0, len(r.observers))
	for _, o := range r.observers {
		out = append(out, o)
	}
	return out
}
