package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	// The current supported version of the sealed blob format stored on disk.
	sealedFormatVersion = 1
)

var (
	// ErrWrongPassphrase is returned when the passphrase is incorrect or the
	// sealed file has been modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted pairing file")
	// ErrEmptyPassphrase is returned when sealing without a passphrase.
	ErrEmptyPassphrase = errors.New("passphrase required")
)

// blob is the on-disk JSON structure holding the ciphertext and KDF parameters.
type blob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

type scryptParams struct{ N, r, p int }

// Tunables for scrypt key derivation.
func scryptParamsDefault() scryptParams { return scryptParams{N: 1 << 15, r: 8, p: 1} }

// seal derives a key from passphrase and seals raw into a JSON blob.
func seal(passphrase string, raw []byte, kdf scryptParams) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], kdf.N, kdf.r, kdf.p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; every blob has a fresh salt and so a fresh key
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(blob{
		V:      sealedFormatVersion,
		Salt:   salt[:],
		N:      kdf.N,
		R:      kdf.r,
		P:      kdf.p,
		Cipher: ct,
	})
}

// open decrypts a JSON blob using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	var bl blob
	if err := json.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("sealed file: %w", err)
	}
	if bl.V < 1 || bl.V > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported sealed file version %d", bl.V)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
