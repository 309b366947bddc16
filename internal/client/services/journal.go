package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/client/repositories/entries"
	"github.com/dmitrijs2005/gophjournal/internal/client/repositories/settings"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/dbx"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"github.com/google/uuid"
)

// DefaultPreviewLength is the preview size in runes when none is configured.
const DefaultPreviewLength = 100

// KeyProvider hands out the live entry key. *vault.Vault implements it.
type KeyProvider interface {
	CurrentKey() (*cryptox.Key, error)
}

// JournalService is the entry-level API of the journal.
//
// Every method fails with common.ErrUninitialized until the key vault is
// Ready. Plaintext is returned to the caller only; rows handed to the record
// store carry ciphertext.
type JournalService interface {
	Save(ctx context.Context, content string, mood int) (*models.EntryMeta, error)
	Get(ctx context.Context, id string) (*models.EntryView, error)
	ListPreviews(ctx context.Context) ([]models.Preview, error)
	Update(ctx context.Context, id string, upd models.EntryUpdate) (*models.EntryMeta, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Search(ctx context.Context, query string) ([]models.Preview, error)
	ExportAll(ctx context.Context) ([]models.EntryView, error)
	Import(ctx context.Context, views []models.EntryView) (int, error)
	Stats(ctx context.Context) (*models.Stats, error)

	GetSetting(ctx context.Context, name string, v any) (bool, error)
	PutSetting(ctx context.Context, name string, v any) error
}

type journalService struct {
	db       *sql.DB
	keys     KeyProvider
	entries  entries.Repository
	settings settings.Repository

	log        logging.Logger
	now        func() time.Time
	previewLen int
}

type JournalOption func(*journalService)

// WithClock overrides the time source for entry timestamps.
func WithClock(now func() time.Time) JournalOption {
	return func(s *journalService) { s.now = now }
}

// WithPreviewLength sets the preview size in runes.
func WithPreviewLength(n int) JournalOption {
	return func(s *journalService) {
		if n > 0 {
			s.previewLen = n
		}
	}
}

func WithLogger(l logging.Logger) JournalOption {
	return func(s *journalService) { s.log = l }
}

// NewJournalService binds the service to an opened journal database and the
// key provider.
func NewJournalService(db *sql.DB, keys KeyProvider, opts ...JournalOption) JournalService {
	s := &journalService{
		db:         db,
		keys:       keys,
		entries:    entries.NewSQLiteRepository(db),
		settings:   settings.NewSQLiteRepository(db),
		log:        logging.NewNop(),
		now:        time.Now,
		previewLen: DefaultPreviewLength,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *journalService) Save(ctx context.Context, content string, mood int) (*models.EntryMeta, error) {
	if !models.ValidMood(mood) {
		return nil, common.ErrInvalidMood
	}
	key, err := s.keys.CurrentKey()
	if err != nil {
		return nil, err
	}

	ct, iv, err := cryptox.Encrypt(content, key)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	now := s.now().UTC()
	e := &models.Entry{
		Id:         uuid.NewString(),
		Ciphertext: ct,
		Nonce:      iv,
		Mood:       mood,
		WordCount:  models.WordCount(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.entries.Put(ctx, e); err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}

	s.log.Debug(ctx, "entry saved", "id", e.Id, "words", e.WordCount)
	meta := e.Meta()
	return &meta, nil
}

func (s *journalService) Get(ctx context.Context, id string) (*models.EntryView, error) {
	key, err := s.keys.CurrentKey()
	if err != nil {
		return nil, err
	}

	e, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading entry: %w", err)
	}
	if e == nil {
		return nil, common.ErrNotFound
	}

	content, err := open(e, key)
	if err != nil {
		s.log.Warn(ctx, "entry could not be decrypted", "id", e.Id)
		return nil, err
	}
	return &models.EntryView{EntryMeta: e.Meta(), Content: content}, nil
}

func (s *journalService) ListPreviews(ctx context.Context) ([]models.Preview, error) {
	return s.previews(ctx, func(string) bool { return true })
}

func (s *journalService) Search(ctx context.Context, query string) ([]models.Preview, error) {
	q := strings.ToLower(query)
	return s.previews(ctx, func(content string) bool {
		return strings.Contains(strings.ToLower(content), q)
	})
}

func (s *journalService) previews(ctx context.Context, match func(string) bool) ([]models.Preview, error) {
	views, err := s.decryptAll(ctx, s.entries.ListByTimeDesc)
	if err != nil {
		return nil, err
	}

	result := make([]models.Preview, 0, len(views))
	for _, v := range views {
		if !match(v.Content) {
			continue
		}
		result = append(result, models.Preview{
			EntryMeta: v.EntryMeta,
			Preview:   models.Excerpt(v.Content, s.previewLen),
		})
	}
	return result, nil
}

func (s *journalService) ExportAll(ctx context.Context) ([]models.EntryView, error) {
	return s.decryptAll(ctx, s.entries.ListByTimeAsc)
}

// decryptAll opens every row returned by list. Rows that fail to decrypt are
// skipped and logged by id.
func (s *journalService) decryptAll(ctx context.Context, list func(context.Context) ([]*models.Entry, error)) ([]models.EntryView, error) {
	key, err := s.keys.CurrentKey()
	if err != nil {
		return nil, err
	}

	rows, err := list(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	result := make([]models.EntryView, 0, len(rows))
	skipped := 0
	for _, e := range rows {
		content, err := open(e, key)
		if err != nil {
			skipped++
			s.log.Warn(ctx, "skipping unreadable entry", "id", e.Id)
			continue
		}
		result = append(result, models.EntryView{EntryMeta: e.Meta(), Content: content})
	}
	if skipped > 0 {
		s.log.Info(ctx, "unreadable entries skipped", "count", skipped)
	}
	return result, nil
}

func (s *journalService) Update(ctx context.Context, id string, upd models.EntryUpdate) (*models.EntryMeta, error) {
	if upd.Mood != nil && !models.ValidMood(*upd.Mood) {
		return nil, common.ErrInvalidMood
	}
	key, err := s.keys.CurrentKey()
	if err != nil {
		return nil, err
	}

	e, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading entry: %w", err)
	}
	if e == nil {
		return nil, common.ErrNotFound
	}

	if upd.Content == nil {
		if _, err := open(e, key); err != nil {
			s.log.Warn(ctx, "refusing to update unreadable entry", "id", e.Id)
			return nil, err
		}
	} else {
		ct, iv, err := cryptox.Encrypt(*upd.Content, key)
		if err != nil {
			return nil, fmt.Errorf("encryption error: %w", err)
		}
		e.Ciphertext, e.Nonce = ct, iv
		e.WordCount = models.WordCount(*upd.Content)
	}
	if upd.Mood != nil {
		e.Mood = *upd.Mood
	}

	e.UpdatedAt = s.now().UTC()
	if e.UpdatedAt.Before(e.CreatedAt) {
		e.UpdatedAt = e.CreatedAt
	}

	ok, err := s.entries.Update(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("saving entry: %w", err)
	}
	if !ok {
		return nil, common.ErrNotFound
	}

	s.log.Debug(ctx, "entry updated", "id", e.Id, "content", upd.Content != nil, "mood", upd.Mood != nil)
	meta := e.Meta()
	return &meta, nil
}

func (s *journalService) Delete(ctx context.Context, id string) error {
	if _, err := s.keys.CurrentKey(); err != nil {
		return err
	}

	ok, err := s.entries.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	if !ok {
		return common.ErrNotFound
	}
	s.log.Debug(ctx, "entry deleted", "id", id)
	return nil
}

func (s *journalService) DeleteAll(ctx context.Context) error {
	if _, err := s.keys.CurrentKey(); err != nil {
		return err
	}
	if err := s.entries.Clear(ctx); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	s.log.Info(ctx, "all entries deleted")
	return nil
}

// Import restores exported entries under the current key. Ids and timestamps
// are kept, so importing the same backup twice leaves one copy of each entry.
// The whole batch is written in one transaction.
func (s *journalService) Import(ctx context.Context, views []models.EntryView) (int, error) {
	key, err := s.keys.CurrentKey()
	if err != nil {
		return 0, err
	}

	rows := make([]*models.Entry, 0, len(views))
	now := s.now().UTC()
	for i, v := range views {
		if !models.ValidMood(v.Mood) {
			return 0, fmt.Errorf("entry %d: %w", i, common.ErrInvalidMood)
		}

		ct, iv, err := cryptox.Encrypt(v.Content, key)
		if err != nil {
			return 0, fmt.Errorf("encryption error: %w", err)
		}

		e := &models.Entry{
			Id:         v.Id,
			Ciphertext: ct,
			Nonce:      iv,
			Mood:       v.Mood,
			WordCount:  models.WordCount(v.Content),
			CreatedAt:  v.CreatedAt.UTC(),
			UpdatedAt:  v.UpdatedAt.UTC(),
		}
		if e.Id == "" {
			e.Id = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.Before(e.CreatedAt) {
			e.UpdatedAt = e.CreatedAt
		}
		rows = append(rows, e)
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := entries.NewSQLiteRepository(tx)
		for _, e := range rows {
			if err := repo.Put(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("importing entries: %w", err)
	}

	s.log.Info(ctx, "entries imported", "count", len(rows))
	return len(rows), nil
}

// Stats summarizes plaintext metadata only; nothing is decrypted.
func (s *journalService) Stats(ctx context.Context) (*models.Stats, error) {
	if _, err := s.keys.CurrentKey(); err != nil {
		return nil, err
	}

	rows, err := s.entries.ListByTimeAsc(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	st := &models.Stats{Entries: len(rows)}
	moodSum := 0
	for _, e := range rows {
		st.Words += e.WordCount
		if e.Mood != models.MoodUnset {
			st.MoodEntries++
			moodSum += e.Mood
		}
	}
	if st.MoodEntries > 0 {
		st.AverageMood = float64(moodSum) / float64(st.MoodEntries)
	}
	if len(rows) > 0 {
		st.Oldest = rows[0].CreatedAt
		st.Newest = rows[len(rows)-1].CreatedAt
	}
	return st, nil
}

// GetSetting decodes the setting stored under name into v and reports
// whether it existed.
func (s *journalService) GetSetting(ctx context.Context, name string, v any) (bool, error) {
	if _, err := s.keys.CurrentKey(); err != nil {
		return false, err
	}
	raw, err := s.settings.Get(ctx, name)
	if err != nil {
		return false, fmt.Errorf("loading setting: %w", err)
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding setting %q: %w", name, err)
	}
	return true, nil
}

func (s *journalService) PutSetting(ctx context.Context, name string, v any) error {
	if _, err := s.keys.CurrentKey(); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", name, err)
	}
	if err := s.settings.Set(ctx, name, raw); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}

// open decrypts the body of e. Cipher failures become ErrCorruptedEntry.
func open(e *models.Entry, key *cryptox.Key) (string, error) {
	content, err := cryptox.Decrypt(e.Ciphertext, e.Nonce, key)
	if errors.Is(err, cryptox.ErrAuthentication) {
		return "", common.ErrCorruptedEntry
	}
	if err != nil {
		return "", fmt.Errorf("decryption error: %w", err)
	}
	return content, nil
}
