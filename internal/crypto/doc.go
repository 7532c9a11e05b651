// Package crypto exposes the primitives behind pairing.
//
// Contents
//
//   - Pairing secret generation and validation (GenerateSecretKey,
//     ParseSecretKey, DecodeSecretKey)
//   - Room derivation: hex(SHA-256(hex key)) (RoomID)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//
// # Notes
//
// The secret key travels as its hex string everywhere except inside the
// cipher engine, which decodes it for the duration of one call and wipes the
// bytes afterwards.
package crypto
