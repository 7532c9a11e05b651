package interfaces

import domaintypes "keeperbridge/internal/domain/types"

// ProfileStore remembers the selected hardware wallet.
type ProfileStore interface {
	SaveDeviceProfile(profile domaintypes.DeviceProfile) error
	LoadDeviceProfile() (domaintypes.DeviceProfile, bool, error)
}

// PairingStore seals a pairing key into a passphrase-protected file on
// explicit request.
type PairingStore interface {
	ExportPairingKey(path, passphrase string, key domaintypes.SecretKey) error
	ImportPairingKey(path, passphrase string) (domaintypes.SecretKey, error)
}
