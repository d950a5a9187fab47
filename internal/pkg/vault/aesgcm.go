package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

// Blob layout:
//
//	[0]      format (1)
//	[1..2]   key version, big endian
//	[3..14]  nonce
//	[15..]   ciphertext || 16-byte tag
const (
	blobFormat  byte = 1
	headerSize       = 3
	nonceSize        = 12
	tagSize          = 16
	aes256KeyLn      = 32
)

// AESGCM implements Encryptor with AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
}

func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

func (e *AESGCM) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	version, key, err := e.keys.Active()
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize+nonceSize, headerSize+nonceSize+len(plaintext)+tagSize)
	out[0] = blobFormat
	binary.BigEndian.PutUint16(out[1:3], version)
	if _, err := rand.Read(out[headerSize:]); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}

	return gcm.Seal(out, out[headerSize:], plaintext, scope.aad()), nil
}

func (e *AESGCM) Decrypt(blob []byte, scope Scope) ([]byte, error) {
	if len(blob) < headerSize+nonceSize+tagSize+1 || blob[0] != blobFormat {
		return nil, ErrDecrypt
	}

	key, err := e.keys.Key(binary.BigEndian.Uint16(blob[1:3]))
	if err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}

	nonce := blob[headerSize : headerSize+nonceSize]
	plain, err := gcm.Open(nil, nonce, blob[headerSize+nonceSize:], scope.aad())
	if err != nil {
		// Tampered, wrong key and wrong scope are indistinguishable on purpose.
		return nil, ErrDecrypt
	}

	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != aes256KeyLn {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: aes: %w", err)
	}

	return cipher.NewGCM(block)
}
