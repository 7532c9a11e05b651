// Package store provides file-based persistence for keeperbridge.
//
// ProfileFileStore remembers the selected hardware wallet as JSON under the
// configured home directory. PairingFileStore seals a pairing key into a
// passphrase-protected file (scrypt + ChaCha20-Poly1305) when the user asks
// to export it, and opens such files on import. The channel itself never
// writes keys to disk.
//
// Writes go through a temp file and rename so a crash never leaves a
// truncated file behind. All methods are safe for concurrent use.
package store
