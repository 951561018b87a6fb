package messaging

import (
	"context"

	"clipstream/domain/ports"
)

// NoopEventPublisher is used when no broker is configured; the pipeline
// publishes unconditionally and this swallows the events.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() ports.JobEventPublisher {
	return &NoopEventPublisher{}
}

func (NoopEventPublisher) PublishJobEvent(ctx context.Context, event *ports.JobEvent) error {
	return nil
}
