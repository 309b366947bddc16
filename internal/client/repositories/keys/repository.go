// Package keys persists the single encryption key record of an installation.
//
// The table admits exactly one row (id = 1). Writes go through
// InsertIfAbsent, so a record, once written, is never replaced.
package keys

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
)

type Repository interface {
	// Get returns the key record, or (nil, nil) when none was written yet.
	Get(ctx context.Context) (*models.KeyRecord, error)
	// InsertIfAbsent writes rec unless a record exists and reports whether
	// rec was the one written.
	InsertIfAbsent(ctx context.Context, rec *models.KeyRecord) (bool, error)
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.KeyRecord, error) {
	var (
		material string
		created  int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT material, created_at FROM encryption_key WHERE id = 1`).Scan(&material, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbx.Classify("get key record", err)
	}

	raw, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptedKey, err)
	}
	return &models.KeyRecord{Material: raw, CreatedAt: time.Unix(0, created).UTC()}, nil
}

func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, rec *models.KeyRecord) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO encryption_key (id, material, created_at) VALUES (1, ?, ?) ON CONFLICT(id) DO NOTHING`,
		base64.StdEncoding.EncodeToString(rec.Material), rec.CreatedAt.UnixNano())
	if err != nil {
		return false, dbx.Classify("insert key record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbx.Classify("insert key record", err)
	}
	return n == 1, nil
}
