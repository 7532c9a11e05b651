package store

import (
	"fmt"
	"os"
	"path/filepath"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
)

// PairingFileStore writes pairing keys to passphrase-sealed files. It is only
// used when the user asks to export or import a key.
type PairingFileStore struct {
	kdf scryptParams
}

// NewPairingFileStore returns a PairingFileStore using the default scrypt
// cost.
func NewPairingFileStore() *PairingFileStore {
	return &PairingFileStore{kdf: scryptParamsDefault()}
}

// ExportPairingKey seals key under passphrase and writes it to path (0600).
func (s *PairingFileStore) ExportPairingKey(path, passphrase string, key domain.SecretKey) error {
	if _, err := crypto.ParseSecretKey(key.String()); err != nil {
		return err
	}
	raw := []byte(key.String())
	defer crypto.Wipe(raw)

	b, err := seal(passphrase, raw, s.kdf)
	if err != nil {
		return fmt.Errorf("seal pairing key: %w", err)
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return writeFile(path, b, 0o600)
}

// ImportPairingKey opens a file written by ExportPairingKey.
func (s *PairingFileStore) ImportPairingKey(path, passphrase string) (domain.SecretKey, error) {
	b, err := readFile(path)
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", fmt.Errorf("pairing file %s: %w", path, os.ErrNotExist)
	}
	raw, err := open(passphrase, b)
	if err != nil {
		return "", err
	}
	defer crypto.Wipe(raw)
	return crypto.ParseSecretKey(string(raw))
}

// Compile-time assertion that PairingFileStore implements domain.PairingStore.
var _ domain.PairingStore = (*PairingFileStore)(nil)
