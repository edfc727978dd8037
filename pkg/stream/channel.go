package stream

import (
	"context"

	"github.com/voltstream/voltstream/pkg/types"
)

// Channel is one open realtime output destined for a single connected client.
// Send must be safe for concurrent use: the broadcaster, the heartbeat, and
// the initial-snapshot write may race on the same channel, and implementations
// serialize them so frames arrive in write order. A failed Send means the
// client is gone; the registry reacts by unregistering the channel.
type Channel interface {
	// ID returns a stable opaque identifier for logging
	ID() string
	// Send writes one already-serialized SSE frame to the client
	Send(payload []byte) error
}

// SnapshotSource provides the current device snapshot for broadcasting
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context) ([]types.DeviceSnapshot, error)
}

// SourceFunc adapts a function to the SnapshotSource interface
type SourceFunc func(ctx context.Context) ([]types.DeviceSnapshot, error)

// FetchSnapshot implements SnapshotSource
func (f SourceFunc) FetchSnapshot(ctx context.Context) ([]types.DeviceSnapshot, error) {
	return f(ctx)
}
