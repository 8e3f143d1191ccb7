package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()
	assert.Equal(t, "http://localhost:8000", c.BaseURL)
	assert.Equal(t, "/csrf-token/", c.TokenPath)
	assert.Equal(t, "csrftoken", c.CookieName)
	assert.Equal(t, "X-CSRFToken", c.HeaderName)
	assert.Equal(t, "csrfmiddlewaretoken", c.FormField)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	require.NoError(t, c.Validate())
}

func TestLoad_NoArgsGivesDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), *cfg))
}

func TestLoad_JSONFile(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
		"base_url": "https://splitfair.example",
		"cookie_name": "XSRF-TOKEN",
		"request_timeout": "3s",
		"log_backend": "zap"
	}`)

	cfg, err := Load([]string{"-c", path})
	require.NoError(t, err)

	want := defaults()
	want.BaseURL = "https://splitfair.example"
	want.CookieName = "XSRF-TOKEN"
	want.RequestTimeout = 3 * time.Second
	want.LogBackend = "zap"
	assert.Empty(t, cmp.Diff(want, *cfg))
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "base_url: http://10.0.0.5:8000\nlogin_path: /accounts/login/\nrequest_timeout: 2500ms\nmetrics_addr: localhost:9100\n")

	cfg, err := Load([]string{"-config", path})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.BaseURL)
	assert.Equal(t, "/accounts/login/", cfg.LoginPath)
	assert.Equal(t, 2500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, "localhost:9100", cfg.MetricsAddr)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"base_url": "http://from-file:8000", "request_timeout": "4s"}`)

	cfg, err := Load([]string{"-c", path, "-a", "http://from-flag:8000", "-d", "/tmp/x.db", "-l", "debug"})
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag:8000", cfg.BaseURL)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4*time.Second, cfg.RequestTimeout, "untouched -t keeps file value")

	cfg, err = Load([]string{"-c", path, "-t", "9"})
	require.NoError(t, err)
	assert.Equal(t, 9*time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"-c", filepath.Join(t.TempDir(), "nope.json")}},
		{name: "broken json", args: []string{"-c", writeFile(t, "bad.json", `{ not json`)}},
		{name: "bad timeout flag", args: []string{"-t", "abc"}},
		{name: "invalid base url", args: []string{"-a", "not a url"}},
		{name: "zero timeout", args: []string{"-t", "0"}},
		{name: "bad level", args: []string{"-l", "verbose"}},
		{name: "bad backend", args: []string{"-c", writeFile(t, "b.json", `{"log_backend": "logrus"}`)}},
		{name: "path without slash", args: []string{"-c", writeFile(t, "p.yml", "token_path: csrf\n")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			require.Error(t, err)
		})
	}
}
