package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/gophjournal/internal/timex"
)

// fileConfig is a DTO for config files. Pointer fields tell "absent" from
// "zero"; timex.Duration accepts strings like "3s".
type fileConfig struct {
	DataDir  *string `json:"data_dir" toml:"data_dir"`
	DBFile   *string `json:"db_file" toml:"db_file"`
	LogFile  *string `json:"log_file" toml:"log_file"`
	LogLevel *string `json:"log_level" toml:"log_level"`

	APIBaseURL     *string         `json:"api_base_url" toml:"api_base_url"`
	RequestTimeout *timex.Duration `json:"request_timeout" toml:"request_timeout"`
	MaxRetries     *int            `json:"max_retries" toml:"max_retries"`
	RetryDelay     *timex.Duration `json:"retry_delay" toml:"retry_delay"`

	PreviewLength   *int            `json:"preview_length" toml:"preview_length"`
	StorageMaxPages *int            `json:"storage_max_pages" toml:"storage_max_pages"`
	BusyTimeout     *timex.Duration `json:"busy_timeout" toml:"busy_timeout"`
}

// loadFile overlays cfg with the keys present in the file at path.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var fc fileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.DBFile, fc.DBFile)
	setString(&cfg.LogFile, fc.LogFile)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.APIBaseURL, fc.APIBaseURL)

	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.RetryDelay != nil {
		cfg.RetryDelay = fc.RetryDelay.Duration
	}
	if fc.BusyTimeout != nil {
		cfg.BusyTimeout = fc.BusyTimeout.Duration
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.PreviewLength != nil {
		cfg.PreviewLength = *fc.PreviewLength
	}
	if fc.StorageMaxPages != nil {
		cfg.StorageMaxPages = *fc.StorageMaxPages
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
