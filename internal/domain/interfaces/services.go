package interfaces

import (
	"context"
	"encoding/json"

	domaintypes "keeperbridge/internal/domain/types"
)

// ChannelService is the encrypted relay channel used by the CLI.
type ChannelService interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Close() error
	Connected() bool

	GenerateKey() (domaintypes.SecretKey, error)
	UseKey(key domaintypes.SecretKey) error
	Secret() domaintypes.SecretKey
	Room() domaintypes.RoomID

	Emit(event string, payload any, skipEncryption bool, network domaintypes.Network) error
	ProcessInbound(message json.RawMessage) (domaintypes.InboundMessage, error)
}

// EventSink receives normalized inbound messages for the UI layer.
type EventSink interface {
	Publish(ctx context.Context, msg domaintypes.InboundMessage) error
}

// DeviceExecutor runs a hardware wallet interface command and returns its
// standard output.
type DeviceExecutor interface {
	Execute(ctx context.Context, args ...string) ([]byte, error)
}

// DeviceService enumerates hardware wallets and prepares wallet responses.
type DeviceService interface {
	Enumerate(ctx context.Context, network domaintypes.Network) ([]domaintypes.Device, error)
	Xpubs(
		ctx context.Context,
		profile domaintypes.DeviceProfile,
		account uint32,
	) (domaintypes.Xpubs, error)
	Response(action string, data any) (domaintypes.DeviceResponse, error)
}
