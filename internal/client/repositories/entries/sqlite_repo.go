package entries

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
)

const selectColumns = `id, ciphertext, iv, mood, word_count, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put upserts an entry by id. The row keeps its seq, so a replaced entry
// keeps its place among entries created at the same instant.
func (r *SQLiteRepository) Put(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (id, ciphertext, iv, mood, word_count, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET ciphertext = excluded.ciphertext,
				iv = excluded.iv,
				mood = excluded.mood,
				word_count = excluded.word_count,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		e.Id,
		base64.StdEncoding.EncodeToString(e.Ciphertext),
		base64.StdEncoding.EncodeToString(e.Nonce),
		nullableMood(e.Mood),
		e.WordCount,
		e.CreatedAt.UnixNano(),
		e.UpdatedAt.UnixNano(),
	)
	return dbx.Classify("put entry", err)
}

// Update overwrites the mutable columns of the row with e.Id. A missing row
// is reported as false, not recreated.
func (r *SQLiteRepository) Update(ctx context.Context, e *models.Entry) (bool, error) {
	query := `UPDATE entries SET ciphertext = ?, iv = ?, mood = ?, word_count = ?, updated_at = ?
			WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		base64.StdEncoding.EncodeToString(e.Ciphertext),
		base64.StdEncoding.EncodeToString(e.Nonce),
		nullableMood(e.Mood),
		e.WordCount,
		e.UpdatedAt.UnixNano(),
		e.Id,
	)
	if err != nil {
		return false, dbx.Classify("update entry", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, dbx.Classify("update entry", err)
	}
	return ra > 0, nil
}

// Get returns a single row by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbx.Classify("get entry", err)
	}
	return e, nil
}

// Delete removes the row with the given id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return false, dbx.Classify("delete entry", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return false, dbx.Classify("delete entry", err)
	}
	return ra > 0, nil
}

// Clear removes all entries.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entries`)
	return dbx.Classify("clear entries", err)
}

// ListByTimeDesc lists rows newest first, ties in insertion order.
func (r *SQLiteRepository) ListByTimeDesc(ctx context.Context) ([]*models.Entry, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM entries ORDER BY created_at DESC, seq ASC`)
}

// ListByTimeAsc lists rows oldest first, ties in insertion order.
func (r *SQLiteRepository) ListByTimeAsc(ctx context.Context) ([]*models.Entry, error) {
	return r.list(ctx, `SELECT `+selectColumns+` FROM entries ORDER BY created_at ASC, seq ASC`)
}

// Count returns the number of stored entries.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, dbx.Classify("count entries", err)
	}
	return n, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.Classify("list entries", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, dbx.Classify("scan entry", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify("list entries", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e                 models.Entry
		ciphertext, nonce string
		mood              sql.NullInt64
		created, updated  int64
	)
	if err := s.Scan(&e.Id, &ciphertext, &nonce, &mood, &e.WordCount, &created, &updated); err != nil {
		return nil, err
	}

	// An undecodable column is left empty; decryption then reports the entry
	// as corrupted instead of the whole listing failing here.
	e.Ciphertext = decodeColumn(ciphertext)
	e.Nonce = decodeColumn(nonce)
	if mood.Valid {
		e.Mood = int(mood.Int64)
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	e.UpdatedAt = time.Unix(0, updated).UTC()
	return &e, nil
}

func decodeColumn(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

func nullableMood(m int) sql.NullInt64 {
	if m == models.MoodUnset {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(m), Valid: true}
}
