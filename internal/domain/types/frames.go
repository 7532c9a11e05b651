package types

import "encoding/json"

// Relay event names.
const (
	EventJoinChannel    = "JOIN_CHANNEL"
	EventChannelMessage = "CHANNEL_MESSAGE"
)

// JoinRequest is the unencrypted control payload of JOIN_CHANNEL.
type JoinRequest struct {
	Room RoomID `json:"room"`
}

// Frame is an outbound relay payload. Data holds either an Envelope or a JSON
// string carrying the stringified plaintext payload.
type Frame struct {
	Room    RoomID          `json:"room"`
	Data    json.RawMessage `json:"data"`
	Network Network         `json:"network,omitempty"`
}

// InboundMessage is an inbound CHANNEL_MESSAGE after optional decryption.
type InboundMessage struct {
	Data    json.RawMessage `json:"data"`
	Network json.RawMessage `json:"network"`
}
