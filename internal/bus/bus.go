// Package bus provides the in-process change fan-out hub.
//
// Writers publish a per-table "something changed" signal after commit.
// Subscribers hold a one-slot channel per table: delivery is at-least-once
// and coalescing, so a burst of writes collapses into a single pending
// signal. Subscribers carry no payload beyond table identity and are
// expected to re-fetch current state rather than apply deltas.
package bus

import "sync"

// Table names that can be published and subscribed.
const (
	TableProjects = "projects"
	TableTasks    = "tasks"
)

// Subscription is one subscriber's handle for a single table.
type Subscription struct {
	table string
	ch    chan struct{}
}

// C returns the channel that receives change signals. The channel holds at
// most one pending signal; additional publishes while a signal is pending
// are coalesced into it.
func (s *Subscription) C() <-chan struct{} {
	return s.ch
}

// Table returns the table this subscription listens on.
func (s *Subscription) Table() string {
	return s.table
}

// Bus fans out table-change signals to live subscribers.
// The zero value is not usable; call New.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber for the given table.
// The caller must Unsubscribe when done to stop receiving signals.
func (b *Bus) Subscribe(table string) *Subscription {
	sub := &Subscription{
		table: table,
		ch:    make(chan struct{}, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[table] == nil {
		b.subs[table] = make(map[*Subscription]struct{})
	}
	b.subs[table][sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscription. Other subscribers are unaffected.
// Unsubscribing twice is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[sub.table]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.table)
		}
	}
}

// Publish signals every subscriber of the table that it changed.
// Publish never blocks: a subscriber with a signal already pending is
// skipped, which coalesces the two changes into one notification.
func (b *Bus) Publish(table string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[table] {
		select {
		case sub.ch <- struct{}{}:
		default:
			// Signal already pending; the subscriber will re-fetch
			// current state anyway.
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a table.
func (b *Bus) SubscriberCount(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}
