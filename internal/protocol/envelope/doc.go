// Package envelope converts between raw AEAD output and the hex-encoded
// {iv, encryptedData, authTag} object carried over the relay.
//
// Decoding never infers or defaults a field: a missing, non-hex or wrongly
// sized iv yields domain.ErrInvalidIV, and the same for encryptedData or
// authTag yields domain.ErrInvalidEncryptedData.
package envelope
