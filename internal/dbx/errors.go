package dbx

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Classify maps a driver error from operation op onto the storage taxonomy.
//
// SQLITE_FULL (disk full or the max_page_count limit reached) becomes
// common.ErrQuotaExceeded; errors already classified pass through; any other
// failure is wrapped in a *common.StorageError. A nil err stays nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, common.ErrQuotaExceeded) || errors.Is(err, common.ErrStorage) {
		return err
	}
	if IsFull(err) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrQuotaExceeded, err)
	}
	return &common.StorageError{Op: op, Err: err}
}

// IsFull reports whether err is SQLite's "database or disk is full".
func IsFull(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return false
}
