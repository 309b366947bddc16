// Package cryptox is the cipher engine of the journal: it generates and
// (de)serializes the symmetric entry key and seals/opens single entry bodies
// with AES-256-GCM.
//
// Every Encrypt call draws a fresh random 96-bit nonce, so one key can be used
// by any number of concurrent writers without coordinating counters. Decrypt is
// fail-closed: tampering, a wrong key or a wrong nonce all surface as
// ErrAuthentication and never as altered plaintext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
)

const (
	// KeySize is the raw key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes (96 bits).
	NonceSize = 12
)

var (
	// ErrAuthentication reports that ciphertext, nonce and key do not match.
	ErrAuthentication = errors.New("message authentication failed")
	// ErrInvalidKey reports raw key material of the wrong size.
	ErrInvalidKey = errors.New("invalid key material")
	// ErrNoKey reports a nil key argument.
	ErrNoKey = errors.New("no key")
)

// Key is a live symmetric key usable for both directions.
// It is safe for concurrent use.
type Key struct {
	raw  []byte
	aead cipher.AEAD
}

func newKey(raw []byte) (*Key, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(raw), KeySize)
	}

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, err
	}

	return &Key{raw: raw, aead: aead}, nil
}

// GenerateKey returns a fresh random 256-bit key.
func GenerateKey() (*Key, error) {
	raw, err := common.RandBytes(KeySize)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return newKey(raw)
}

// ExportKey returns a copy of the raw key material for persistence.
func ExportKey(k *Key) []byte {
	if k == nil {
		return nil
	}
	out := make([]byte, len(k.raw))
	copy(out, k.raw)
	return out
}

// ImportKey rebuilds a key from material produced by ExportKey.
// The input slice is copied; callers may wipe it afterwards.
func ImportKey(raw []byte) (*Key, error) {
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return newKey(buf)
}

// Encrypt seals plaintext under key with a newly drawn nonce.
//
// The returned nonce must be persisted next to the ciphertext; it is not
// secret but must never be reused with the same key.
func Encrypt(plaintext string, key *Key) (ciphertext, nonce []byte, err error) {
	if key == nil {
		return nil, nil, ErrNoKey
	}

	nonce, err = common.RandBytes(NonceSize)
	if err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext = key.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt.
//
// Any mismatch, including a nonce of the wrong length, yields ErrAuthentication.
func Decrypt(ciphertext, nonce []byte, key *Key) (string, error) {
	if key == nil {
		return "", ErrNoKey
	}
	if len(nonce) != NonceSize || len(ciphertext) < key.aead.Overhead() {
		return "", ErrAuthentication
	}

	plaintext, err := key.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrAuthentication
	}
	return string(plaintext), nil
}
