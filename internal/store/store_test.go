package store_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"keeperbridge/internal/crypto"
	"keeperbridge/internal/domain"
	"keeperbridge/internal/store"
)

func TestProfile_SaveLoad_OK(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested")
	var profiles domain.ProfileStore = store.NewProfileFileStore(home)

	if _, ok, err := profiles.LoadDeviceProfile(); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	want := domain.DeviceProfile{Fingerprint: "f00dbabe", DeviceType: "trezor", Network: "testnet"}
	if err := profiles.SaveDeviceProfile(want); err != nil {
		t.Fatalf("save profile: %v", err)
	}

	got, ok, err := profiles.LoadDeviceProfile()
	if err != nil || !ok {
		t.Fatalf("load profile: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("mismatch after load: %+v", got)
	}

	info, err := os.Stat(filepath.Join(home, "device.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestProfile_Overwrite(t *testing.T) {
	profiles := store.NewProfileFileStore(t.TempDir())
	_ = profiles.SaveDeviceProfile(domain.DeviceProfile{Fingerprint: "aaaa", DeviceType: "coldcard"})
	if err := profiles.SaveDeviceProfile(domain.DeviceProfile{Fingerprint: "bbbb", DeviceType: "ledger"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _, err := profiles.LoadDeviceProfile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Fingerprint != "bbbb" {
		t.Fatalf("fingerprint = %q, want bbbb", got.Fingerprint)
	}
}

func TestPairing_ExportImport_OK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairing", "key.sealed")
	var pairing domain.PairingStore = store.NewPairingFileStore()

	key, err := crypto.GenerateSecretKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := pairing.ExportPairingKey(path, "correct horse", key); err != nil {
		t.Fatalf("export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Contains(raw, []byte(key.String())) {
		t.Fatal("sealed file contains the key in clear")
	}

	got, err := pairing.ImportPairingKey(path, "correct horse")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got != key {
		t.Fatal("imported key differs")
	}
}

func TestPairing_WrongPassphrase_Fails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.sealed")
	pairing := store.NewPairingFileStore()

	key, _ := crypto.GenerateSecretKey()
	if err := pairing.ExportPairingKey(path, "correct", key); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := pairing.ImportPairingKey(path, "wrong"); !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("expected ErrWrongPassphrase, got %v", err)
	}
}

func TestPairing_Rejects(t *testing.T) {
	dir := t.TempDir()
	pairing := store.NewPairingFileStore()

	if err := pairing.ExportPairingKey(filepath.Join(dir, "a"), "", "ab"); err == nil {
		t.Fatal("expected error for malformed key")
	}
	key, _ := crypto.GenerateSecretKey()
	if err := pairing.ExportPairingKey(filepath.Join(dir, "b"), "", key); !errors.Is(err, store.ErrEmptyPassphrase) {
		t.Fatalf("expected ErrEmptyPassphrase, got %v", err)
	}
	if _, err := pairing.ImportPairingKey(filepath.Join(dir, "missing"), "x"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	garbage := filepath.Join(dir, "garbage")
	if err := os.WriteFile(garbage, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := pairing.ImportPairingKey(garbage, "x"); err == nil {
		t.Fatal("expected error for garbage file")
	}
}
