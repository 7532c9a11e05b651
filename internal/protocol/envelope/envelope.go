package envelope

import (
	"encoding/hex"
	"encoding/json"

	"keeperbridge/internal/domain"
)

const (
	NonceSize = 12
	TagSize   = 16
)

// wire mirrors domain.Envelope with pointers so absent fields are visible.
type wire struct {
	IV            *string `json:"iv"`
	EncryptedData *string `json:"encryptedData"`
	AuthTag       *string `json:"authTag"`
}

// Encode hex-encodes the three AEAD outputs.
func Encode(nonce, ciphertext, tag []byte) domain.Envelope {
	return domain.Envelope{
		IV:            hex.EncodeToString(nonce),
		EncryptedData: hex.EncodeToString(ciphertext),
		AuthTag:       hex.EncodeToString(tag),
	}
}

// Decode is the inverse of Encode.
func Decode(env domain.Envelope) (nonce, ciphertext, tag []byte, err error) {
	if env.IV == "" {
		return nil, nil, nil, domain.ErrInvalidIV
	}
	nonce, err = hex.DecodeString(env.IV)
	if err != nil {
		return nil, nil, nil, domain.WrapError(domain.KindInvalidIV, "invalid iv", err)
	}
	if len(nonce) != NonceSize {
		return nil, nil, nil, domain.ErrInvalidIV
	}

	// JSON payloads are never empty, so neither is their ciphertext.
	if env.EncryptedData == "" || env.AuthTag == "" {
		return nil, nil, nil, domain.ErrInvalidEncryptedData
	}
	ciphertext, err = hex.DecodeString(env.EncryptedData)
	if err != nil {
		return nil, nil, nil, domain.WrapError(domain.KindInvalidEncryptedData, "invalid encrypted data", err)
	}
	tag, err = hex.DecodeString(env.AuthTag)
	if err != nil {
		return nil, nil, nil, domain.WrapError(domain.KindInvalidEncryptedData, "invalid auth tag", err)
	}
	if len(tag) != TagSize {
		return nil, nil, nil, domain.ErrInvalidEncryptedData
	}
	return nonce, ciphertext, tag, nil
}

// Parse reads an envelope object, requiring every field to be present as a
// string.
func Parse(raw json.RawMessage) (domain.Envelope, error) {
	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.Envelope{}, domain.WrapError(domain.KindInvalidEncryptedData, "invalid envelope", err)
	}
	if w.IV == nil {
		return domain.Envelope{}, domain.ErrInvalidIV
	}
	if w.EncryptedData == nil || w.AuthTag == nil {
		return domain.Envelope{}, domain.ErrInvalidEncryptedData
	}
	return domain.Envelope{IV: *w.IV, EncryptedData: *w.EncryptedData, AuthTag: *w.AuthTag}, nil
}

// IsSealed reports whether raw is a JSON object with an encryptedData member.
// Anything else is plain control-plane data.
func IsSealed(raw json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	_, ok := obj["encryptedData"]
	return ok
}
