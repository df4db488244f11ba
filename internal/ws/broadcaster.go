package ws

import "context"

// Broadcaster is the horizontal scale-out seam: a shared pub/sub bus keyed
// by user id, so a fanout target can be published even when the target's
// socket lives on a different process. The hub always fans out locally
// first; Publish is an additional, best-effort notification for other
// nodes and is never required for local delivery.
type Broadcaster interface {
	Publish(ctx context.Context, userID string, frame Frame) error
}

// NoopBroadcaster is used when no REDIS_URL is configured: a single-process
// deployment.
type NoopBroadcaster struct{}

func (NoopBroadcaster) Publish(context.Context, string, Frame) error { return nil }
