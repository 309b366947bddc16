// Package entries is the record store for journal entries.
//
// # Data Model
//
// Each row holds the AES-GCM ciphertext of the body and its nonce, both as
// standard base64 TEXT, next to plaintext metadata (mood, word count,
// timestamps). The store never receives plaintext bodies; it does not know a
// key exists.
//
// # Ordering
//
// ListByTimeDesc walks the created_at index newest first. Ties are broken by
// insertion order (a hidden autoincrement seq column that survives replaces).
//
// # Errors
//
// Absent rows are (nil, nil) for Get and false for Delete. Driver failures
// are classified by dbx.Classify: common.ErrQuotaExceeded when the database
// is full, *common.StorageError otherwise.
//
// # Concurrency
//
// Every method is a single SQL statement and therefore atomic; a concurrent
// reader never observes a half-written row.
//
//	repo := entries.NewSQLiteRepository(db)
//	_ = repo.Put(ctx, entry)
//	list, _ := repo.ListByTimeDesc(ctx)
//	one, _ := repo.Get(ctx, id)
//	ok, _ := repo.Delete(ctx, id)
package entries
