package types

// SecretKey is the pairing secret shared out of band between the wallet and
// the desktop companion: 32 random bytes as 64 lowercase hex characters.
type SecretKey string

// String returns the hex form of the key.
func (k SecretKey) String() string { return string(k) }

// IsZero reports whether no key is set.
func (k SecretKey) IsZero() bool { return k == "" }

// RoomID is the public relay topic derived from a SecretKey.
type RoomID string

// String returns the hex form of the room identifier.
func (r RoomID) String() string { return string(r) }

// IsZero reports whether no room is set.
func (r RoomID) IsZero() bool { return r == "" }

// Network is the blockchain network routing hint attached to frames.
type Network string

// String returns the string form of the network.
func (n Network) String() string { return string(n) }
