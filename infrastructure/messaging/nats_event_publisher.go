package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"clipstream/domain/ports"
	"clipstream/pkg/logger"
)

// NATSEventPublisher implements JobEventPublisher over plain NATS pub/sub.
// Events are fan-out observability, not a work queue, so there is no
// JetStream persistence: a consumer that is down simply misses updates.
type NATSEventPublisher struct {
	conn *nats.Conn
}

type NATSConfig struct {
	URL string // nats://localhost:4222
}

// ConnectNATS dials the broker with endless reconnects.
func ConnectNATS(cfg NATSConfig) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("NATS connected", "url", cfg.URL)
	return nc, nil
}

func NewNATSEventPublisher(conn *nats.Conn) ports.JobEventPublisher {
	return &NATSEventPublisher{conn: conn}
}

// PublishJobEvent publishes to jobs.progress.{jobID}.
func (p *NATSEventPublisher) PublishJobEvent(ctx context.Context, event *ports.JobEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.JobID == "" {
		return fmt.Errorf("job_id is required")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("jobs.progress.%s", event.JobID)
	return p.conn.Publish(subject, data)
}
