package wgnl

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/sys/unix"
)

// KeyLen is the length in bytes of a WireGuard key.
const KeyLen = unix.WG_KEY_LEN

// Key is a WireGuard private, public or preshared key. The codec treats
// keys as opaque 32-byte values, it does not check curve membership.
type Key [KeyLen]byte

// ParseKey parses a key from its base64 string form.
func ParseKey(s string) (Key, error) {

	var key Key

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("failed to parse key: %v", err)
	}
	if len(b) != KeyLen {
		return key, fmt.Errorf("invalid key length %d, want %d", len(b), KeyLen)
	}

	copy(key[:], b)
	return key, nil

}

// String returns the base64 form of a key.
func (k Key) String() string {

	return base64.StdEncoding.EncodeToString(k[:])

}
