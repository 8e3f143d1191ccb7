package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/splitfair/internal/flagx"
	"github.com/dmitrijs2005/splitfair/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Empty fields leave the
// current value untouched.
type FileConfig struct {
	BaseURL         string         `json:"base_url" yaml:"base_url"`
	TokenPath       string         `json:"token_path" yaml:"token_path"`
	LoginPath       string         `json:"login_path" yaml:"login_path"`
	RegisterPath    string         `json:"register_path" yaml:"register_path"`
	LogoutPath      string         `json:"logout_path" yaml:"logout_path"`
	EventsPath      string         `json:"events_path" yaml:"events_path"`
	CreateEventPath string         `json:"create_event_path" yaml:"create_event_path"`
	CookieName      string         `json:"cookie_name" yaml:"cookie_name"`
	HeaderName      string         `json:"header_name" yaml:"header_name"`
	FormField       string         `json:"form_field" yaml:"form_field"`
	DBPath          string         `json:"db_path" yaml:"db_path"`
	RequestTimeout  timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	LogLevel        string         `json:"log_level" yaml:"log_level"`
	LogBackend      string         `json:"log_backend" yaml:"log_backend"`
	MetricsAddr     string         `json:"metrics_addr" yaml:"metrics_addr"`
}

// parseFile overlays cfg with the file named by -c/-config in args.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc FileConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.BaseURL, fc.BaseURL)
	set(&cfg.TokenPath, fc.TokenPath)
	set(&cfg.LoginPath, fc.LoginPath)
	set(&cfg.RegisterPath, fc.RegisterPath)
	set(&cfg.LogoutPath, fc.LogoutPath)
	set(&cfg.EventsPath, fc.EventsPath)
	set(&cfg.CreateEventPath, fc.CreateEventPath)
	set(&cfg.CookieName, fc.CookieName)
	set(&cfg.HeaderName, fc.HeaderName)
	set(&cfg.FormField, fc.FormField)
	set(&cfg.DBPath, fc.DBPath)
	set(&cfg.LogLevel, fc.LogLevel)
	set(&cfg.LogBackend, fc.LogBackend)
	set(&cfg.MetricsAddr, fc.MetricsAddr)
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
}
