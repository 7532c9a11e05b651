// Package channel is the orchestrator of the encrypted relay channel.
//
// A Service owns at most one pairing key, the room derived from it and one
// live relay transport. GenerateKey (or UseKey on the joining side) sets the
// key and joins its room; Emit seals payloads with the key before they reach
// the relay; inbound CHANNEL_MESSAGE events are decrypted by ProcessInbound
// on a dispatch goroutine and handed to an EventSink.
//
// Lifecycle:
//
//	Disconnected -> Connecting (bounded by ConnectTimeout) -> Connected -> Disconnected
//
// Connecting again starts a fresh session without key or room. With
// Reconnect enabled a connection lost without Disconnect is redialed with
// exponential backoff and the current room is joined again.
package channel
