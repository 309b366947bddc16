package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/client/storage"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T, o storage.Options) *sql.DB {
	t.Helper()
	if o.Path == "" {
		o.Path = filepath.Join(t.TempDir(), "entries.db")
	}
	db, err := storage.Open(context.Background(), o)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func entryAt(id string, at time.Time) *models.Entry {
	return &models.Entry{
		Id:         id,
		Ciphertext: []byte("ct-" + id),
		Nonce:      []byte("nonce-" + id),
		Mood:       3,
		WordCount:  2,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func ids(list []*models.Entry) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Id)
	}
	return out
}

func TestPut_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	ctx := context.Background()

	e := entryAt("a", base)
	e.Mood = 5
	require.NoError(t, r.Put(ctx, e))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e, got)
}

func TestPut_ReplacesById(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, entryAt("a", base)))

	upd := entryAt("a", base)
	upd.Ciphertext = []byte("new ciphertext")
	upd.Nonce = []byte("new nonce")
	upd.Mood = models.MoodUnset
	upd.UpdatedAt = base.Add(time.Minute)
	require.NoError(t, r.Put(ctx, upd))

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, upd, got)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPut_StoresBase64Text(t *testing.T) {
	db := setupDB(t, storage.Options{})
	r := NewSQLiteRepository(db)
	require.NoError(t, r.Put(context.Background(), entryAt("a", base)))

	var ct, iv, typ string
	require.NoError(t, db.QueryRow(`SELECT ciphertext, iv, typeof(ciphertext) FROM entries WHERE id='a'`).Scan(&ct, &iv, &typ))
	assert.Equal(t, "text", typ)
	assert.Equal(t, "Y3QtYQ==", ct)
	assert.Equal(t, "bm9uY2UtYQ==", iv)
}

func TestPut_RejectsUpdatedBeforeCreated(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))

	e := entryAt("a", base)
	e.UpdatedAt = base.Add(-time.Second)
	err := r.Put(context.Background(), e)
	require.ErrorIs(t, err, common.ErrStorage)
}

func TestGet_Absent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))

	got, err := r.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGet_UndecodableColumnsComeBackEmpty(t *testing.T) {
	db := setupDB(t, storage.Options{})
	r := NewSQLiteRepository(db)
	require.NoError(t, r.Put(context.Background(), entryAt("a", base)))

	_, err := db.Exec(`UPDATE entries SET ciphertext = '***not base64***' WHERE id = 'a'`)
	require.NoError(t, err)

	got, err := r.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, got.Ciphertext)
	assert.Equal(t, []byte("nonce-a"), got.Nonce)
}

func TestDelete_ExistingAndAbsent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, entryAt("x", base)))

	ok, err := r.Delete(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Delete(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_RewritesExistingRow(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	ctx := context.Background()
	require.NoError(t, r.Put(ctx, entryAt("u", base)))

	upd := entryAt("u", base)
	upd.Ciphertext = []byte("rewritten")
	upd.Mood = models.MoodUnset
	upd.WordCount = 7
	upd.UpdatedAt = base.Add(time.Hour)
	upd.CreatedAt = base.Add(-time.Hour) // ignored

	ok, err := r.Update(ctx, upd)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.Get(ctx, "u")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("rewritten"), got.Ciphertext)
	assert.Equal(t, models.MoodUnset, got.Mood)
	assert.Equal(t, 7, got.WordCount)
	assert.True(t, got.CreatedAt.Equal(base))
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))
}

func TestUpdate_AbsentRowIsNotInserted(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	ctx := context.Background()

	ok, err := r.Update(ctx, entryAt("ghost", base))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClear_LeavesSettingsAndKey(t *testing.T) {
	db := setupDB(t, storage.Options{})
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO settings(name, value) VALUES ('theme', '"dark"')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO encryption_key(id, material, created_at) VALUES (1, 'AAAA', 0)`)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Put(ctx, entryAt(fmt.Sprintf("e%d", i), base)))
	}
	require.NoError(t, r.Clear(ctx))

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	var cnt int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&cnt))
	assert.Equal(t, 1, cnt)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM encryption_key`).Scan(&cnt))
	assert.Equal(t, 1, cnt)
}

func TestListByTime_Ordering(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, entryAt("mid", base.Add(time.Hour))))
	require.NoError(t, r.Put(ctx, entryAt("old", base)))
	require.NoError(t, r.Put(ctx, entryAt("new", base.Add(2*time.Hour))))
	// same instant as "mid", inserted later
	require.NoError(t, r.Put(ctx, entryAt("mid2", base.Add(time.Hour))))
	// replacing "mid" keeps its insertion slot
	require.NoError(t, r.Put(ctx, entryAt("mid", base.Add(time.Hour))))

	desc, err := r.ListByTimeDesc(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "mid2", "old"}, ids(desc))

	asc, err := r.ListByTimeAsc(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "mid", "mid2", "new"}, ids(asc))
}

func TestListByTimeDesc_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{}))
	list, err := r.ListByTimeDesc(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPut_QuotaExceeded_PriorRowsReadable(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t, storage.Options{MaxPages: 32}))
	ctx := context.Background()

	big := make([]byte, 16*1024)
	for i := range big {
		big[i] = byte(i*31 + 7)
	}

	var stored []string
	var quotaErr error
	for i := 0; i < 100; i++ {
		e := entryAt(fmt.Sprintf("big-%d", i), base.Add(time.Duration(i)*time.Second))
		e.Ciphertext = big
		if err := r.Put(ctx, e); err != nil {
			quotaErr = err
			break
		}
		stored = append(stored, e.Id)
	}

	require.ErrorIs(t, quotaErr, common.ErrQuotaExceeded)
	require.NotEmpty(t, stored)

	for _, id := range stored {
		got, err := r.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, big, got.Ciphertext)
	}
}

func TestDriverErrorsAreStorageErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLiteRepository(db)
	ctx := context.Background()
	cause := errors.New("disk I/O error")

	mock.ExpectExec("INSERT INTO entries").WillReturnError(cause)
	err = r.Put(ctx, entryAt("a", base))
	require.ErrorIs(t, err, common.ErrStorage)
	require.ErrorIs(t, err, cause)

	mock.ExpectExec("UPDATE entries SET").WillReturnError(cause)
	_, err = r.Update(ctx, entryAt("a", base))
	require.ErrorIs(t, err, common.ErrStorage)

	mock.ExpectQuery("SELECT (.+) FROM entries WHERE id").WillReturnError(cause)
	_, err = r.Get(ctx, "a")
	require.ErrorIs(t, err, common.ErrStorage)

	mock.ExpectQuery("SELECT (.+) FROM entries ORDER BY").WillReturnError(cause)
	_, err = r.ListByTimeDesc(ctx)
	require.ErrorIs(t, err, common.ErrStorage)

	mock.ExpectExec("DELETE FROM entries").WillReturnError(cause)
	_, err = r.Delete(ctx, "a")
	require.ErrorIs(t, err, common.ErrStorage)

	mock.ExpectExec("DELETE FROM entries").WillReturnError(cause)
	require.ErrorIs(t, r.Clear(ctx), common.ErrStorage)

	mock.ExpectQuery("SELECT COUNT").WillReturnError(cause)
	_, err = r.Count(ctx)
	require.ErrorIs(t, err, common.ErrStorage)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScanErrorIsStorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "ciphertext", "iv", "mood", "word_count", "created_at", "updated_at"}).
		AddRow("a", "AA==", "AA==", nil, "not-a-number", 0, 0)
	mock.ExpectQuery("SELECT (.+) FROM entries ORDER BY").WillReturnRows(rows)

	_, err = NewSQLiteRepository(db).ListByTimeAsc(context.Background())
	require.ErrorIs(t, err, common.ErrStorage)
}
