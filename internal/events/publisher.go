// Package events publishes lifecycle notifications on the message bus.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/logsift-systems/logsift/internal/logging"
)

// SubjectIndexingCompleted carries IndexingCompleted payloads.
// Subjects follow the pattern {domain}.{resource}.{event}.
const SubjectIndexingCompleted = "logs.indexing.completed"

// IndexingCompleted is published when an indexing job finishes
// successfully.
type IndexingCompleted struct {
	IndexKey    string    `json:"index_key"`
	UserKey     string    `json:"user_key"`
	RecordCount int       `json:"record_count"`
	Completed   time.Time `json:"completed"`
}

// Publisher emits events over NATS. A nil connection disables publishing,
// which keeps the bus optional in single-node deployments.
type Publisher struct {
	conn   *nats.Conn
	logger *logging.Logger
}

func NewPublisher(conn *nats.Conn, logger *logging.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// Connect dials the NATS server with reconnection enabled.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// IndexingCompleted publishes the event fire-and-forget. Errors are
// returned so the caller can log them; delivery is best effort.
func (p *Publisher) IndexingCompleted(ctx context.Context, event IndexingCompleted) error {
	if p.conn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(SubjectIndexingCompleted, data); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectIndexingCompleted, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
