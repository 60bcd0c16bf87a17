package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATS publishes messages to NATS subjects. Subjects follow the
// "user.{id}" convention, one subject per user.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the given NATS URL.
func NewNATS(url string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("filebox"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := n.conn.Publish(topic, payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", topic, err)
	}
	return nil
}

// Close drains the connection.
func (n *NATS) Close() {
	if n.conn != nil {
		_ = n.conn.Drain()
	}
}

// UserTopic returns the per-user notification subject.
func UserTopic(userID string) string {
	return "user." + userID
}
