package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"unicode/utf8"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
	"keeperbridge/internal/protocol/envelope"
)

// KeySize is the AES-256 key length.
const KeySize = 32

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, envelope.NonceSize)
}

// Encrypt serializes payload to JSON and seals it under key.
func Encrypt(key []byte, payload any) (domain.Envelope, error) {
	if len(key) == 0 {
		return domain.Envelope{}, domain.ErrNoEncryptionKey
	}
	if len(key) != KeySize {
		return domain.Envelope{}, domain.NewError(domain.KindEncryption, "encryption error: key must be 32 bytes")
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return domain.Envelope{}, domain.WrapError(domain.KindEncryption, "encryption error", err)
	}
	defer crypto.Wipe(plaintext)

	aead, err := newAEAD(key)
	if err != nil {
		return domain.Envelope{}, domain.WrapError(domain.KindEncryption, "encryption error", err)
	}
	nonce := make([]byte, envelope.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.Envelope{}, domain.WrapError(domain.KindEncryption, "encryption error", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - aead.Overhead()
	return envelope.Encode(nonce, sealed[:split], sealed[split:]), nil
}

// Decrypt opens env under key and returns the JSON payload.
func Decrypt(key []byte, env domain.Envelope) (json.RawMessage, error) {
	if len(key) == 0 {
		return nil, domain.ErrNoEncryptionKey
	}
	if len(key) != KeySize {
		return nil, domain.NewError(domain.KindDecryption, "decryption error: key must be 32 bytes")
	}
	nonce, ciphertext, tag, err := envelope.Decode(env)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(key)
	if err != nil {
		return nil, domain.WrapError(domain.KindDecryption, "decryption error", err)
	}
	combined := make([]byte, 0, len(ciphertext)+len(tag))
	combined = append(combined, ciphertext...)
	combined = append(combined, tag...)

	plaintext, err := aead.Open(nil, nonce, combined, nil)
	if err != nil {
		return nil, domain.WrapError(domain.KindDecryption, "decryption error", err)
	}
	if !utf8.Valid(plaintext) || !json.Valid(plaintext) {
		crypto.Wipe(plaintext)
		return nil, domain.NewError(domain.KindDecryption, "decryption error: plaintext is not utf-8 json")
	}
	return json.RawMessage(plaintext), nil
}

// EncryptWithKey decodes a hex pairing key, seals payload and wipes the key
// bytes.
func EncryptWithKey(key domain.SecretKey, payload any) (domain.Envelope, error) {
	raw, err := crypto.DecodeSecretKey(key)
	if err != nil {
		return domain.Envelope{}, err
	}
	defer crypto.Wipe(raw)
	return Encrypt(raw, payload)
}

// DecryptWithKey decodes a hex pairing key, opens env and wipes the key bytes.
func DecryptWithKey(key domain.SecretKey, env domain.Envelope) (json.RawMessage, error) {
	raw, err := crypto.DecodeSecretKey(key)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(raw)
	return Decrypt(raw, env)
}
