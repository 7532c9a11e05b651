// Package relay speaks the relay's Socket.IO dialect over a WebSocket.
//
// Dialer and Client implement domain.RelayDialer and domain.RelayTransport
// for the channel service. Only the Engine.IO v4 websocket transport and the
// default namespace are supported; long polling is never attempted.
//
// Events are text frames of the form 42["EVENT",payload]. The client emits
// JOIN_CHANNEL {room} and CHANNEL_MESSAGE {room, data, network} and receives
// CHANNEL_MESSAGE {requestData, network}. Any other inbound event is logged
// and dropped.
//
// Hub is an in-memory relay with the same wire behaviour. cmd/relay serves it
// for local development and the package tests run against it.
package relay
