package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/diagnosis/checkin-console/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// NATSEventBus publishes console events as JSON on NATS subjects.
type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url, nats.Name("checkin-console"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "bytes", len(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Close() error {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
		return err
	}
	return nil
}

const (
	ImportCompleted   = "console.import.completed"
	ImportFailed      = "console.import.failed"
	CheckoutCompleted = "console.checkout.completed"
)

type ImportCompletedEvent struct {
	SessionID    string    `json:"session_id"`
	Kind         string    `json:"kind"`
	RowCount     int       `json:"row_count"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	SubmittedBy  string    `json:"submitted_by,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

type ImportFailedEvent struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

type CheckoutCompletedEvent struct {
	CheckInID   int64     `json:"checkin_id"`
	Partial     bool      `json:"partial"`
	Guests      []string  `json:"guests,omitempty"`
	PerformedBy string    `json:"performed_by,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
