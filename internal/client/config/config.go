package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// EnvDataDir overrides the default data directory.
const EnvDataDir = "GOPHJOURNAL_DIR"

// Config holds runtime settings for the journal CLI.
type Config struct {
	DataDir  string
	DBFile   string
	LogFile  string
	LogLevel string

	APIBaseURL     string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	PreviewLength int

	// StorageMaxPages caps the database size in SQLite pages; 0 disables it.
	StorageMaxPages int
	BusyTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.DBFile = "journal.db"
	c.LogFile = "journal.log"
	c.LogLevel = "info"
	c.APIBaseURL = "http://127.0.0.1:5000"
	c.RequestTimeout = 10 * time.Second
	c.MaxRetries = 3
	c.RetryDelay = 500 * time.Millisecond
	c.PreviewLength = 100
	c.StorageMaxPages = 0
	c.BusyTimeout = 5 * time.Second
}

func defaultDataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, "gophjournal")
}

// Load builds a Config from defaults overlaid with the file at path.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// DBPath is the absolute location of the journal database.
func (c *Config) DBPath() string { return c.resolve(c.DBFile) }

// LogPath is the absolute location of the log file.
func (c *Config) LogPath() string { return c.resolve(c.LogFile) }

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("data_dir is empty")
	case c.DBFile == "":
		return errors.New("db_file is empty")
	case c.PreviewLength <= 0:
		return fmt.Errorf("preview_length must be positive, got %d", c.PreviewLength)
	case c.MaxRetries < 0:
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	case c.StorageMaxPages < 0:
		return fmt.Errorf("storage_max_pages must not be negative, got %d", c.StorageMaxPages)
	case c.RequestTimeout < 0, c.RetryDelay < 0, c.BusyTimeout < 0:
		return errors.New("durations must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
