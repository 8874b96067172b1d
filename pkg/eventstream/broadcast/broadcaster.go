// Package broadcast fans resolved events out to in-process subscribers, such
// as the API's server-sent events stream.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/logger"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Broadcaster is an eventstream.Publisher that delivers every event to each
// current subscriber. Publishing never blocks: a subscriber whose buffer is
// full misses the event.
type Broadcaster struct {
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]chan *eventstream.ResolvedEvent
	nextID int
	closed bool
}

var _ eventstream.Publisher = (*Broadcaster)(nil)

// New creates a Broadcaster. A nil logger discards drop warnings.
func New(log *slog.Logger) *Broadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &Broadcaster{
		logger: log,
		subs:   make(map[int]chan *eventstream.ResolvedEvent),
	}
}

// Subscribe registers a subscriber with a channel of the given capacity
// (DefaultBuffer when buffer is not positive). The returned cancel func
// unsubscribes and closes the channel; it is safe to call more than once.
// The channel is also closed when the Broadcaster is closed.
func (b *Broadcaster) Subscribe(buffer int) (<-chan *eventstream.ResolvedEvent, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan *eventstream.ResolvedEvent, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

// Subscribers returns the number of current subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// PublishResolved delivers event to every subscriber.
func (b *Broadcaster) PublishResolved(_ context.Context, event *eventstream.ResolvedEvent) error {
	if event == nil {
		return eventstream.ErrNilResolvedEvent
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return eventstream.ErrPublisherClosed
	}

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber buffer full, dropping event",
				"subscriber", id,
				"event_id", event.EventID,
			)
		}
	}
	return nil
}

// Close closes every subscriber channel. Later publishes fail with
// ErrPublisherClosed.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	return nil
}
