package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"keeperbridge/internal/domain"
)

const profileFile = "device.json"

// ProfileFileStore persists the selected hardware wallet under dir.
type ProfileFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewProfileFileStore returns a ProfileFileStore rooted at dir.
func NewProfileFileStore(dir string) *ProfileFileStore {
	return &ProfileFileStore{dir: dir}
}

// SaveDeviceProfile replaces the stored profile.
func (s *ProfileFileStore) SaveDeviceProfile(profile domain.DeviceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ensureDir(s.dir); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.dir, profileFile), profile, 0o600)
}

// LoadDeviceProfile returns the stored profile; ok is false when none was
// saved yet.
func (s *ProfileFileStore) LoadDeviceProfile() (domain.DeviceProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := readFile(filepath.Join(s.dir, profileFile))
	if err != nil || b == nil {
		return domain.DeviceProfile{}, false, err
	}
	var profile domain.DeviceProfile
	if err := json.Unmarshal(b, &profile); err != nil {
		return domain.DeviceProfile{}, false, fmt.Errorf("%s: %w", profileFile, err)
	}
	return profile, true, nil
}

// Compile-time assertion that ProfileFileStore implements domain.ProfileStore.
var _ domain.ProfileStore = (*ProfileFileStore)(nil)
