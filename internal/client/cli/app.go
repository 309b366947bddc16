package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dmitrijs2005/gophjournal/internal/client/client"
	"github.com/dmitrijs2005/gophjournal/internal/client/config"
	"github.com/dmitrijs2005/gophjournal/internal/client/repositories/keys"
	"github.com/dmitrijs2005/gophjournal/internal/client/services"
	"github.com/dmitrijs2005/gophjournal/internal/client/storage"
	"github.com/dmitrijs2005/gophjournal/internal/client/vault"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
	"golang.org/x/term"
)

// IO binds the App to its terminal. Interactive enables spinners.
type IO struct {
	In          io.Reader
	Out         io.Writer
	Err         io.Writer
	Interactive bool
}

type App struct {
	config  *config.Config
	db      *sql.DB
	vault   *vault.Vault
	journal services.JournalService
	auth    services.AuthService
	ai      services.AIService
	log     logging.Logger

	reader      *bufio.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool

	userName string
	closers  []io.Closer
}

// NewApp opens the store under cfg.DataDir, initializes the key vault and
// builds the services. Any failure here is fatal for the session: no command
// runs against a store without its key.
func NewApp(ctx context.Context, cfg *config.Config, stdio IO) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	logger, logCloser := logging.NewFileLogger(logging.FileOptions{
		Path:       cfg.LogPath(),
		Level:      cfg.LogLevel,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 30,
	})

	a := &App{
		config:      cfg,
		log:         logger,
		reader:      bufio.NewReader(stdio.In),
		out:         stdio.Out,
		errOut:      stdio.Err,
		interactive: stdio.Interactive,
		closers:     []io.Closer{logCloser},
	}

	db, err := storage.Open(ctx, storage.Options{
		Path:        cfg.DBPath(),
		BusyTimeout: cfg.BusyTimeout,
		MaxPages:    cfg.StorageMaxPages,
	})
	if err != nil {
		logger.Error(ctx, "opening database failed", "path", cfg.DBPath(), "error", err)
		_ = a.Close()
		return nil, err
	}
	a.db = db
	a.closers = append([]io.Closer{db}, a.closers...)

	a.vault = vault.New(keys.NewSQLiteRepository(db), vault.WithLogger(logger))
	if err := a.vault.Initialize(ctx); err != nil {
		logger.Error(ctx, "key vault initialization failed", "error", err)
		_ = a.Close()
		return nil, err
	}

	a.journal = services.NewJournalService(db, a.vault,
		services.WithLogger(logger.With("component", "journal")),
		services.WithPreviewLength(cfg.PreviewLength),
	)

	apiClient, err := client.NewHTTPClient(client.Options{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger.With("component", "client"),
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.auth = services.NewAuthService(apiClient, logger.With("component", "auth"))
	a.ai = services.NewAIService(apiClient, a.journal, logger.With("component", "ai"))

	logger.Debug(ctx, "app ready", "db", cfg.DBPath())
	return a, nil
}

// Close releases the database and the log file.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// withSpinner runs fn while a spinner is shown on interactive terminals.
func (a *App) withSpinner(msg string, fn func() error) error {
	if !a.interactive {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + msg
	s.Start()
	defer s.Stop()
	return fn()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
