package vault

import (
	"fmt"
	"slices"
	"strconv"
)

// KeyRing is a fixed set of versioned keys loaded once at startup. Old
// versions stay readable after rotation; only the active one seals.
type KeyRing struct {
	active uint16
	keys   map[uint16][]byte
}

// NewKeyRing validates every key and the active version.
func NewKeyRing(active uint16, keys map[uint16][]byte) (*KeyRing, error) {
	if _, ok := keys[active]; !ok {
		return nil, fmt.Errorf("%w: version %d", ErrNoActiveKey, active)
	}

	own := make(map[uint16][]byte, len(keys))
	for v, k := range keys {
		if len(k) != aes256KeyLn {
			return nil, fmt.Errorf("%w: version %d has %d bytes", ErrInvalidKeyLength, v, len(k))
		}
		own[v] = slices.Clone(k)
	}

	return &KeyRing{active: active, keys: own}, nil
}

// ParseKeyRing builds a KeyRing from "version -> raw key" entries as read
// from configuration.
func ParseKeyRing(active uint16, entries map[string][]byte) (*KeyRing, error) {
	keys := make(map[uint16][]byte, len(entries))
	for v, k := range entries {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("vault: key version %q: %w", v, err)
		}
		keys[uint16(n)] = k
	}

	return NewKeyRing(active, keys)
}

func (r *KeyRing) Active() (uint16, []byte, error) {
	return r.active, r.keys[r.active], nil
}

func (r *KeyRing) Key(version uint16) ([]byte, error) {
	k, ok := r.keys[version]
	if !ok {
		return nil, fmt.Errorf("vault: unknown key version %d", version)
	}
	return k, nil
}
