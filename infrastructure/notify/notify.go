// Package notify carries the payload-less "refresh" hint that tells every
// open terminal tab to reload its view after a mutation.
package notify

import (
	"context"
	"sync"
)

// Refresh is the only payload ever sent.
const Refresh = "refresh"

// DefaultChannel is the broadcast channel name.
const DefaultChannel = "mirage_pos_sync"

// Notifier publishes refresh hints and hands them to subscribers. Delivery is
// best effort: there is no acknowledgement and slow subscribers miss
// duplicate hints rather than block the publisher.
type Notifier interface {
	Publish(ctx context.Context) error
	// Subscribe returns a channel of hints that closes when ctx is done.
	Subscribe(ctx context.Context) <-chan string
}

// Hub is the in-process Notifier.
type Hub struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan string]struct{})}
}

func (h *Hub) Publish(_ context.Context) error {
	h.broadcast(Refresh)
	return nil
}

func (h *Hub) broadcast(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			// a hint is already queued; the subscriber will refresh anyway
		}
	}
}

func (h *Hub) Subscribe(ctx context.Context) <-chan string {
	ch := make(chan string, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		close(ch)
		h.mu.Unlock()
	}()
	return ch
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
