// Package notify publishes change notifications to per-user topics. Delivery
// is best-effort and at-most-once: the durable sync event log is the source
// of truth, the publish channel only shortens polling latency.
package notify

import "context"

// Notifier is a fire-and-forget publish channel.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Noop discards every message. Used when no broker is configured and in tests.
type Noop struct{}

func (Noop) Publish(ctx context.Context, topic string, payload []byte) error {
	return nil
}
