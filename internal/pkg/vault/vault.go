package vault

import "errors"

var (
	// ErrDecrypt is the single outcome of every failed open: bad tag, wrong
	// scope, unknown key version, truncated or foreign blob.
	ErrDecrypt = errors.New("vault: decrypt failed")

	ErrPlaintextEmpty   = errors.New("vault: plaintext is empty")
	ErrInvalidKeyLength = errors.New("vault: key must be 32 bytes")
	ErrNoActiveKey      = errors.New("vault: no active key")
)

// Encryptor seals and opens secrets for a scope.
type Encryptor interface {
	Encrypt(plaintext []byte, scope Scope) ([]byte, error)
	Decrypt(blob []byte, scope Scope) ([]byte, error)
}

// KeyProvider resolves AES-256 keys by version.
type KeyProvider interface {
	// Active returns the key new blobs are sealed with.
	Active() (version uint16, key []byte, err error)
	// Key returns the key for a version found in a stored blob.
	Key(version uint16) ([]byte, error)
}
