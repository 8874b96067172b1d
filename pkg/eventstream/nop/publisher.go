package nop

import (
	"context"

	"github.com/papercomputeco/playback/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishResolved validates input and otherwise does nothing.
func (p *Publisher) PublishResolved(_ context.Context, event *eventstream.ResolvedEvent) error {
	if event == nil {
		return eventstream.ErrNilResolvedEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
