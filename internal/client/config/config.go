package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the SplitFair CLI: where the backend
// lives, which endpoints and synchronizer-token names it uses, and local
// storage and logging options.
type Config struct {
	BaseURL string `validate:"required,url"`

	TokenPath       string `validate:"required,startswith=/"`
	LoginPath       string `validate:"required,startswith=/"`
	RegisterPath    string `validate:"required,startswith=/"`
	LogoutPath      string `validate:"required,startswith=/"`
	EventsPath      string `validate:"required,startswith=/"`
	CreateEventPath string `validate:"required,startswith=/"`

	// CookieName, HeaderName and FormField follow the backend's CSRF
	// framework conventions.
	CookieName string `validate:"required"`
	HeaderName string `validate:"required"`
	FormField  string `validate:"required"`

	DBPath         string        `validate:"required"`
	RequestTimeout time.Duration `validate:"gt=0"`

	LogLevel    string `validate:"oneof=debug info warn error"`
	LogBackend  string `validate:"oneof=slog zap"`
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

// LoadDefaults populates c with values matching a local development backend.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://localhost:8000"
	c.TokenPath = "/csrf-token/"
	c.LoginPath = "/api/login/"
	c.RegisterPath = "/register/"
	c.LogoutPath = "/logout/"
	c.EventsPath = "/api/events/"
	c.CreateEventPath = "/api/events/create/"
	c.CookieName = "csrftoken"
	c.HeaderName = "X-CSRFToken"
	c.FormField = "csrfmiddlewaretoken"
	c.DBPath = "splitfair.db"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "info"
	c.LogBackend = "slog"
}

// Validate reports the first invalid field, if any.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then the config file named in args (if any), then
// the flags in args, and validates the result.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
