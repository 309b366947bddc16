package config

import (
	"github.com/spf13/pflag"
)

// Flags holds the values of the config flags registered by BindFlags.
type Flags struct {
	ConfigFile string

	fs     *pflag.FlagSet
	values Config
}

// BindFlags registers the config flags on fs, typically a cobra command's
// persistent flag set. Defaults shown in help come from LoadDefaults.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	f.values.LoadDefaults()
	v := &f.values

	fs.StringVarP(&f.ConfigFile, "config", "c", "", "path to a JSON or TOML config file")
	fs.StringVar(&v.DataDir, "data-dir", v.DataDir, "directory holding the journal database and log")
	fs.StringVar(&v.DBFile, "db-file", v.DBFile, "database file name or path")
	fs.StringVar(&v.LogFile, "log-file", v.LogFile, "log file name or path")
	fs.StringVar(&v.LogLevel, "log-level", v.LogLevel, "log level: debug, info, warn or error")
	fs.StringVarP(&v.APIBaseURL, "api", "a", v.APIBaseURL, "base URL of the journal backend")
	fs.DurationVar(&v.RequestTimeout, "request-timeout", v.RequestTimeout, "timeout of a single backend request")
	fs.IntVar(&v.MaxRetries, "max-retries", v.MaxRetries, "retries of a failed backend request")
	fs.DurationVar(&v.RetryDelay, "retry-delay", v.RetryDelay, "initial backoff between retries")
	fs.IntVar(&v.PreviewLength, "preview-length", v.PreviewLength, "characters shown per entry in listings")
	fs.IntVar(&v.StorageMaxPages, "storage-max-pages", v.StorageMaxPages, "database size cap in pages (0 = none)")
	fs.DurationVar(&v.BusyTimeout, "busy-timeout", v.BusyTimeout, "wait for a locked database")

	return f
}

// Apply copies the flags the user actually set into cfg.
func (f *Flags) Apply(cfg *Config) {
	v := &f.values
	set := func(name string, fn func()) {
		if f.fs.Changed(name) {
			fn()
		}
	}

	set("data-dir", func() { cfg.DataDir = v.DataDir })
	set("db-file", func() { cfg.DBFile = v.DBFile })
	set("log-file", func() { cfg.LogFile = v.LogFile })
	set("log-level", func() { cfg.LogLevel = v.LogLevel })
	set("api", func() { cfg.APIBaseURL = v.APIBaseURL })
	set("request-timeout", func() { cfg.RequestTimeout = v.RequestTimeout })
	set("max-retries", func() { cfg.MaxRetries = v.MaxRetries })
	set("retry-delay", func() { cfg.RetryDelay = v.RetryDelay })
	set("preview-length", func() { cfg.PreviewLength = v.PreviewLength })
	set("storage-max-pages", func() { cfg.StorageMaxPages = v.StorageMaxPages })
	set("busy-timeout", func() { cfg.BusyTimeout = v.BusyTimeout })
}

// Load resolves the full configuration: defaults, then the --config file,
// then the flags set on the command line.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.ConfigFile)
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
