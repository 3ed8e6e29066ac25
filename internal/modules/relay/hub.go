// Package relay fans out change signals. A signal names a subject and carries
// no payload; subscribers re-fetch, and bursts may coalesce into one signal.
package relay

import (
	"context"
	"sync"
)

type Hub interface {
	// Notify signals every subscriber of each subject.
	Notify(ctx context.Context, subjects ...Subject) error
	// Subscribe registers interest in subject until the subscription is closed.
	Subscribe(ctx context.Context, subject Subject) (*Subscription, error)
}

// Subscription delivers change signals on C. C has room for one pending
// signal, so a burst collapses into a single wake-up. C is closed after Close.
type Subscription struct {
	C <-chan struct{}

	ch      chan struct{}
	once    sync.Once
	onClose func()
}

func newSubscription(onClose func()) *Subscription {
	ch := make(chan struct{}, 1)
	return &Subscription{C: ch, ch: ch, onClose: onClose}
}

func (s *Subscription) signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Close tears the subscription down. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.onClose != nil {
			s.onClose()
		}
	})
}

// MemoryHub is an in-process Hub.
type MemoryHub struct {
	mu   sync.RWMutex
	subs map[Subject]map[*Subscription]struct{}
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: map[Subject]map[*Subscription]struct{}{}}
}

func (h *MemoryHub) Notify(_ context.Context, subjects ...Subject) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, subject := range subjects {
		for sub := range h.subs[subject] {
			sub.signal()
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(_ context.Context, subject Subject) (*Subscription, error) {
	var sub *Subscription
	sub = newSubscription(func() {
		h.mu.Lock()
		delete(h.subs[subject], sub)
		if len(h.subs[subject]) == 0 {
			delete(h.subs, subject)
		}
		h.mu.Unlock()
		close(sub.ch)
	})

	h.mu.Lock()
	if h.subs[subject] == nil {
		h.subs[subject] = map[*Subscription]struct{}{}
	}
	h.subs[subject][sub] = struct{}{}
	h.mu.Unlock()
	return sub, nil
}

// Len returns the number of open subscriptions on subject.
func (h *MemoryHub) Len(subject Subject) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[subject])
}
