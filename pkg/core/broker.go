package core

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"
)

// subscriber is a one-slot mailbox holding the latest snapshot not yet
// delivered. Publishing never blocks: a newer snapshot replaces an older one.
type subscriber struct {
	mu     sync.Mutex
	latest Collection
	notify chan struct{}
}

func newSubscriber() *subscriber {
	return &subscriber{notify: make(chan struct{}, 1)}
}

func (s *subscriber) offer(c Collection) {
	s.mu.Lock()
	s.latest = c
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) take() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// broker fans snapshots out to subscribers and remembers the newest one.
type broker struct {
	mu      sync.RWMutex
	current Collection
	loaded  bool
	subs    map[*subscriber]struct{}
}

func newBroker() *broker {
	return &broker{subs: make(map[*subscriber]struct{})}
}

// publish records c as current and hands it to every subscriber.
// Unless force is set, a snapshot at an older revision is dropped, so commits
// finishing out of order never move subscribers backwards. A snapshot at the
// current revision goes through only when its notes differ, which is how a
// hand edit that leaves the revision alone shows up.
func (b *broker) publish(c Collection, force bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded && !force && b.stale(c) {
		return false
	}
	b.current = c
	b.loaded = true
	for sub := range b.subs {
		sub.offer(c)
	}
	return true
}

func (b *broker) stale(c Collection) bool {
	switch {
	case c.Revision() < b.current.Revision():
		return true
	case c.Revision() == b.current.Revision():
		return c.SameNotes(b.current)
	}
	return false
}

func (b *broker) snapshot() (Collection, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current, b.loaded
}

// subscribe registers a subscriber primed with the current snapshot.
func (b *broker) subscribe() *subscriber {
	sub := newSubscriber()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[sub] = struct{}{}
	if b.loaded {
		sub.offer(b.current)
	}
	return sub
}

func (b *broker) unsubscribe(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, sub)
}

func (b *broker) size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// stream pumps a subscriber's mailbox into out until ctx is done.
func (b *broker) stream(ctx context.Context, sub *subscriber, out chan<- Collection) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer b.unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sub.notify:
				select {
				case out <- sub.take():
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
}
