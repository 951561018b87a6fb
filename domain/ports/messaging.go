package ports

import "context"

// JobEvent - plain struct published on every job transition so operational
// consumers can follow a run without polling the ledger.
type JobEvent struct {
	JobID    string
	VideoID  string
	Status   string // queued, processing, completed, failed
	Progress int    // 0-100
	Message  string
	Error    string
}

// JobEventPublisher publishes job lifecycle events. Publishing is best-effort
// observability; a publish failure never fails the run.
type JobEventPublisher interface {
	PublishJobEvent(ctx context.Context, event *JobEvent) error
}
