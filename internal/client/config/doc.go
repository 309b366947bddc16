// Package config loads runtime configuration for the journal CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults). The data directory
//     defaults to $XDG_DATA_HOME/gophjournal; GOPHJOURNAL_DIR replaces it.
//  2. Optional config file selected with --config. Files ending in .toml are
//     read as TOML, everything else as JSON. Keys missing from the file keep
//     their earlier value.
//  3. Command-line flags (see BindFlags), which override earlier values.
//
// # File schema
//
// Durations are strings like "3s" (JSON also accepts integer nanoseconds):
//
//	{
//	  "data_dir": "/home/ann/.local/share/gophjournal",
//	  "api_base_url": "http://127.0.0.1:5000",
//	  "request_timeout": "10s",
//	  "max_retries": 3,
//	  "preview_length": 100
//	}
//
// Relative db_file and log_file paths resolve against data_dir.
package config
