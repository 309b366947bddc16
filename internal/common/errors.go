// Package common defines the error taxonomy shared by the journal's storage,
// vault and service layers, plus small random-bytes helpers. Callers should
// match errors with errors.Is / errors.As.
package common

import (
	"errors"
	"fmt"
)

var (
	// Vault errors.
	ErrUninitialized = errors.New("key vault is not initialized")
	ErrCorruptedKey  = errors.New("stored encryption key is corrupted")

	// Entry errors.
	ErrNotFound       = errors.New("not found")
	ErrCorruptedEntry = errors.New("entry could not be read")
	ErrInvalidMood    = errors.New("mood must be between 1 and 5")

	// Storage errors.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrStorage       = errors.New("storage error")
)

// StorageError is a storage fault other than quota exhaustion.
// It matches ErrStorage and unwraps to the driver error.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
