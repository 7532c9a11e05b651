// Package main runs the in-memory Socket.IO relay used by keeperbridge during
// development and tests.
//
// Endpoint
//
//	GET /socket.io/?EIO=4&transport=websocket
//	    Engine.IO v4 websocket. Polling is not offered.
//
// Events
//
//	JOIN_CHANNEL {"room": "<64-hex>"}
//	    Subscribe the socket to room.
//
//	CHANNEL_MESSAGE {"room", "data", "network"?}
//	    Forward to every other socket in room as
//	    CHANNEL_MESSAGE {"requestData": data, "network": network|null}.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - The relay pings every socket and drops those that stop answering.
//   - The default listen address is :8080.
//
// The relay never sees plaintext or keys; it routes opaque envelopes by room.
package main
