package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"keeperbridge/internal/domain"
)

// RoomID derives the relay room for key.
//
// It hashes the hex string form of the key, not the raw bytes, so any party
// holding the same pairing string lands in the same room.
func RoomID(key domain.SecretKey) domain.RoomID {
	sum := sha256.Sum256([]byte(key))
	return domain.RoomID(hex.EncodeToString(sum[:]))
}
