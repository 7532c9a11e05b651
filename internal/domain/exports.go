package domain

import (
	interfaces "keeperbridge/internal/domain/interfaces"
	types "keeperbridge/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	SecretKey      = types.SecretKey
	RoomID         = types.RoomID
	Network        = types.Network
	Envelope       = types.Envelope
	JoinRequest    = types.JoinRequest
	Frame          = types.Frame
	InboundMessage = types.InboundMessage
	Device         = types.Device
	DeviceProfile  = types.DeviceProfile
	Xpubs          = types.Xpubs
	DeviceResponse = types.DeviceResponse
	ResponseData   = types.ResponseData
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	RelayTransport = interfaces.RelayTransport
	RelayDialer    = interfaces.RelayDialer
	ChannelService = interfaces.ChannelService
	EventSink      = interfaces.EventSink
	DeviceExecutor = interfaces.DeviceExecutor
	DeviceService  = interfaces.DeviceService
	ProfileStore   = interfaces.ProfileStore
	PairingStore   = interfaces.PairingStore
)

// Relay event names and wallet actions.
const (
	EventJoinChannel    = types.EventJoinChannel
	EventChannelMessage = types.EventChannelMessage

	ActionAddDevice   = types.ActionAddDevice
	ActionHealthCheck = types.ActionHealthCheck
)
