package eventstream

import "errors"

var (
	// ErrNilResolvedEvent indicates a nil resolved event was provided to a publisher.
	ErrNilResolvedEvent = errors.New("nil resolved event")

	// ErrPublisherClosed is returned when publishing to a closed publisher.
	ErrPublisherClosed = errors.New("publisher closed")
)
