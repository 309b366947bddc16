// Package vault owns the journal's single durable encryption key.
//
// A Vault starts Uninitialized. Initialize loads the persisted key record, or
// generates a key and persists it when none exists, and moves the vault to
// Ready. A record is written at most once per installation: when two
// initializers race, the loser loads the winner's key instead of writing its
// own. Storage failures leave the vault Uninitialized; there is no fallback
// to an in-memory key.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/cryptox"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

// State is the vault lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// KeyStore is the durable backing of the vault. The SQLite keys repository
// implements it; other backings can be swapped in without touching the
// cipher engine or the record store.
type KeyStore interface {
	Get(ctx context.Context) (*models.KeyRecord, error)
	InsertIfAbsent(ctx context.Context, rec *models.KeyRecord) (bool, error)
}

// Vault is safe for concurrent use.
type Vault struct {
	store KeyStore
	log   logging.Logger
	now   func() time.Time

	mu  sync.Mutex
	key atomic.Pointer[cryptox.Key]
}

type Option func(*Vault)

// WithClock overrides the time source used for the key record timestamp.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// WithLogger sets the vault logger.
func WithLogger(l logging.Logger) Option {
	return func(v *Vault) { v.log = l }
}

func New(store KeyStore, opts ...Option) *Vault {
	v := &Vault{store: store, log: logging.NewNop(), now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// State reports whether a key is loaded.
func (v *Vault) State() State {
	if v.key.Load() != nil {
		return StateReady
	}
	return StateUninitialized
}

// CurrentKey returns the live key, or common.ErrUninitialized before a
// successful Initialize.
func (v *Vault) CurrentKey() (*cryptox.Key, error) {
	k := v.key.Load()
	if k == nil {
		return nil, common.ErrUninitialized
	}
	return k, nil
}

// Initialize loads or creates the installation key. Calling it again once
// the vault is Ready is a no-op.
func (v *Vault) Initialize(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key.Load() != nil {
		return nil
	}

	rec, err := v.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("loading key record: %w", err)
	}

	if rec == nil {
		k, created, err := v.create(ctx)
		if err != nil {
			return err
		}
		if created {
			v.log.Info(ctx, "generated new encryption key")
			v.key.Store(k)
			return nil
		}

		// another initializer wrote the record first
		rec, err = v.store.Get(ctx)
		if err != nil {
			return fmt.Errorf("loading key record: %w", err)
		}
		if rec == nil {
			return fmt.Errorf("loading key record: %w", errors.New("record missing after insert conflict"))
		}
	}

	k, err := cryptox.ImportKey(rec.Material)
	common.WipeByteArray(rec.Material)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrCorruptedKey, err)
	}

	v.log.Debug(ctx, "loaded encryption key", "created_at", rec.CreatedAt)
	v.key.Store(k)
	return nil
}

func (v *Vault) create(ctx context.Context) (*cryptox.Key, bool, error) {
	k, err := cryptox.GenerateKey()
	if err != nil {
		return nil, false, err
	}

	material := cryptox.ExportKey(k)
	defer common.WipeByteArray(material)

	created, err := v.store.InsertIfAbsent(ctx, &models.KeyRecord{Material: material, CreatedAt: v.now().UTC()})
	if err != nil {
		return nil, false, fmt.Errorf("persisting key record: %w", err)
	}
	return k, created, nil
}
