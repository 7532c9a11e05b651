// Package seal is the symmetric cipher engine of the relay channel.
//
// Payloads are serialized to JSON, sealed with AES-256-GCM under a fresh
// 96-bit nonce and split into an envelope with a detached 128-bit tag. Open
// reverses this and fails closed: a bad tag, malformed envelope, or a
// plaintext that is not valid UTF-8 JSON returns an error and no data.
//
// The engine holds no state. Every call receives the key explicitly.
package seal
