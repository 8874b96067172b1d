package eventstream

import "context"

// Publisher publishes resolved events to an event stream backend.
type Publisher interface {
	PublishResolved(ctx context.Context, event *ResolvedEvent) error
	Close() error
}
