// Package config loads runtime configuration for the SplitFair CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are decoded as YAML, everything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL
//	-d string   path of the local SQLite database
//	-t int      request timeout (seconds)
//	-l string   log level (debug, info, warn, error)
//
// # File schema
//
//	{
//	  "base_url": "http://localhost:8000",
//	  "token_path": "/csrf-token/",
//	  "cookie_name": "csrftoken",
//	  "request_timeout": "15s",
//	  "log_backend": "zap"
//	}
//
// The loaded Config is validated before it is returned.
package config
