package interfaces

import (
	"context"
	"encoding/json"
	"time"
)

// RelayTransport is one live connection to the relay.
type RelayTransport interface {
	// Emit queues event with payload for sending. It does not wait for the
	// network.
	Emit(event string, payload any) error
	// Inbound yields the argument array of every CHANNEL_MESSAGE event.
	Inbound() <-chan json.RawMessage
	// Done is closed once the connection has ended.
	Done() <-chan struct{}
	// Err reports why the connection ended, nil while it is live or after
	// an explicit Close.
	Err() error
	// Close tears the connection down. Calling it more than once is a no-op.
	Close() error
}

// RelayDialer opens relay connections.
type RelayDialer interface {
	Dial(ctx context.Context, timeout time.Duration) (RelayTransport, error)
}
