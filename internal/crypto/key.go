package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"keeperbridge/internal/domain"
)

// KeyBytes is the size of a pairing secret before hex encoding.
const KeyBytes = 32

// GenerateSecretKey draws a fresh pairing secret from the system CSPRNG.
func GenerateSecretKey() (domain.SecretKey, error) {
	var b [KeyBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	defer Wipe(b[:])
	return domain.SecretKey(hex.EncodeToString(b[:])), nil
}

// ParseSecretKey validates s as a canonical pairing secret: exactly
// 2*KeyBytes lowercase hex characters. Other spellings of the same bytes would
// hash to a different room, so they are rejected rather than normalized.
func ParseSecretKey(s string) (domain.SecretKey, error) {
	if len(s) != 2*KeyBytes {
		return "", fmt.Errorf("secret key: want %d hex chars, got %d", 2*KeyBytes, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("secret key: invalid character %q at %d", c, i)
		}
	}
	return domain.SecretKey(s), nil
}

// DecodeSecretKey returns the raw key bytes. Callers should Wipe the result
// once done.
func DecodeSecretKey(key domain.SecretKey) ([]byte, error) {
	if key.IsZero() {
		return nil, domain.ErrNoEncryptionKey
	}
	b, err := hex.DecodeString(key.String())
	if err != nil {
		return nil, fmt.Errorf("secret key: %w", err)
	}
	if len(b) != KeyBytes {
		Wipe(b)
		return nil, fmt.Errorf("secret key: want %d bytes, got %d", KeyBytes, len(b))
	}
	return b, nil
}
