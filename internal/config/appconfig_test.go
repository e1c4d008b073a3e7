package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestNewAppConfig(t *testing.T) {
	cfg := NewAppConfig()

	if cfg.Instance.AppID != DefaultAppID {
		t.Errorf("Expected AppID=%s, got %s", DefaultAppID, cfg.Instance.AppID)
	}
	if cfg.Instance.RetryBudget != 2 {
		t.Errorf("Expected RetryBudget=2, got %d", cfg.Instance.RetryBudget)
	}
	if cfg.Instance.DialTimeoutSeconds != 5 {
		t.Errorf("Expected DialTimeoutSeconds=5, got %d", cfg.Instance.DialTimeoutSeconds)
	}
	if cfg.URIScheme.Register {
		t.Error("Expected Register=false")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected Level=info, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestAppConfigLoadSave(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "app-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "singleinstance.conf")

	cfg := NewAppConfig()
	cfg.Instance.AppID = "fingertipai"
	cfg.Instance.EndpointDir = "/run/user/1000/fingertipai"
	cfg.Instance.RetryBudget = 4
	cfg.Instance.DialTimeoutSeconds = 9
	cfg.URIScheme.Register = true
	cfg.URIScheme.Scheme = "fta"
	cfg.URIScheme.AppName = "Fingertip AI"
	cfg.Logging.Level = "debug"
	cfg.Notifications.Enabled = true
	cfg.Notifications.ShowActivation = false

	if err := SaveAppConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}
	if _, err := os.Stat(configPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temporary file left behind")
	}

	loaded, err := LoadAppConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Loaded config mismatch:\n got %+v\nwant %+v", *loaded, *cfg)
	}
}

func TestLoadAppConfig_MissingFile(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatalf("Missing file should not be an error: %v", err)
	}
	if *cfg != *NewAppConfig() {
		t.Errorf("Expected defaults, got %+v", *cfg)
	}
}

func TestLoadAppConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.conf")
	content := "[instance]\napp_id = viewer\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Instance.AppID != "viewer" {
		t.Errorf("Expected AppID=viewer, got %s", cfg.Instance.AppID)
	}
	if cfg.Instance.RetryBudget != 2 || cfg.Instance.DialTimeoutSeconds != 5 {
		t.Errorf("Missing keys should keep defaults, got %+v", cfg.Instance)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default level, got %s", cfg.Logging.Level)
	}
}

func TestLoadAppConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	if err := os.WriteFile(path, []byte("[instance\napp_id = x\n"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadAppConfig(path); err == nil {
		t.Error("Expected an error for a malformed file")
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*AppConfig)
		wantErr error
	}{
		{"defaults", func(c *AppConfig) {}, nil},
		{"empty app id", func(c *AppConfig) { c.Instance.AppID = "  " }, ErrMissingAppID},
		{"dots only", func(c *AppConfig) { c.Instance.AppID = "..." }, ErrMissingAppID},
		{"zero budget", func(c *AppConfig) { c.Instance.RetryBudget = 0 }, nil},
		{"negative budget", func(c *AppConfig) { c.Instance.RetryBudget = -1 }, ErrInvalidRetryBudget},
		{"huge budget", func(c *AppConfig) { c.Instance.RetryBudget = 11 }, ErrInvalidRetryBudget},
		{"zero timeout", func(c *AppConfig) { c.Instance.DialTimeoutSeconds = 0 }, ErrInvalidDialTimeout},
		{"long timeout", func(c *AppConfig) { c.Instance.DialTimeoutSeconds = 61 }, ErrInvalidDialTimeout},
		{"bad scheme ignored when not registering", func(c *AppConfig) { c.URIScheme.Scheme = "1bad" }, nil},
		{"bad scheme", func(c *AppConfig) {
			c.URIScheme.Register = true
			c.URIScheme.Scheme = "1bad"
		}, ErrInvalidScheme},
		{"app id as scheme", func(c *AppConfig) {
			c.URIScheme.Register = true
			c.Instance.AppID = "my app"
		}, ErrInvalidScheme},
		{"bad level", func(c *AppConfig) { c.Logging.Level = "loud" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewAppConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidScheme(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"fingertipai", true},
		{"web+app", true},
		{"a1.b-c", true},
		{"", false},
		{"1app", false},
		{"my app", false},
		{"app:", false},
	}
	for _, tt := range tests {
		if got := ValidScheme(tt.in); got != tt.want {
			t.Errorf("ValidScheme(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSchemeAndDisplayName(t *testing.T) {
	cfg := NewAppConfig()
	cfg.Instance.AppID = "FingertipAI"

	if got := cfg.SchemeName(); got != "fingertipai" {
		t.Errorf("SchemeName() = %q, want fingertipai", got)
	}
	if got := cfg.DisplayName(); got != "FingertipAI" {
		t.Errorf("DisplayName() = %q, want FingertipAI", got)
	}

	cfg.URIScheme.Scheme = "FTA"
	cfg.URIScheme.AppName = "Fingertip AI"
	if got := cfg.SchemeName(); got != "fta" {
		t.Errorf("SchemeName() = %q, want fta", got)
	}
	if got := cfg.DisplayName(); got != "Fingertip AI" {
		t.Errorf("DisplayName() = %q, want Fingertip AI", got)
	}
}

func TestDialTimeout(t *testing.T) {
	cfg := NewAppConfig()
	cfg.Instance.DialTimeoutSeconds = 3
	if got := cfg.DialTimeout(); got != 3*time.Second {
		t.Errorf("DialTimeout() = %v, want 3s", got)
	}
}

func TestLogFilePath(t *testing.T) {
	cfg := NewAppConfig()
	if got, err := cfg.LogFilePath(); err != nil || got != "" {
		t.Errorf("LogFilePath() with no file = %q, %v; want empty", got, err)
	}

	cfg.Logging.File = "app.log"
	got, err := cfg.LogFilePath()
	if err != nil {
		t.Fatalf("LogFilePath() failed: %v", err)
	}
	if want := filepath.Join(LogDirectory(), "app.log"); got != want {
		t.Errorf("LogFilePath() = %q, want %q", got, want)
	}

	dir := t.TempDir()
	cfg.Logging.File = filepath.Join(dir, "logs", "app.log")
	got, err = cfg.LogFilePath()
	if err != nil {
		t.Fatalf("LogFilePath() failed: %v", err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "app.log" {
		t.Errorf("LogFilePath() = %q, want an absolute path ending in app.log", got)
	}
}

func TestResolveEndpoint(t *testing.T) {
	dir := t.TempDir()
	base, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("EvalSymlinks failed: %v", err)
	}

	cfg := NewAppConfig()
	cfg.Instance.AppID = "app"
	cfg.Instance.EndpointDir = dir

	loc, err := cfg.ResolveEndpoint()
	if err != nil {
		t.Fatalf("ResolveEndpoint failed: %v", err)
	}
	if loc.Dir != base {
		t.Errorf("Expected dir %q, got %q", base, loc.Dir)
	}
	if loc.Name != "app.sock" {
		t.Errorf("Expected app.sock, got %q", loc.Name)
	}
}

func TestEndpointDirectory(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := endpointDirectoryFor("linux", "viewer"); got != filepath.Join("/run/user/1000", "viewer") {
		t.Errorf("Expected runtime dir, got %q", got)
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	got := endpointDirectoryFor("linux", "viewer")
	if !strings.HasSuffix(got, "viewer") || !filepath.IsAbs(got) {
		t.Errorf("Unexpected fallback directory %q", got)
	}

	t.Setenv("LOCALAPPDATA", filepath.Join(string(filepath.Separator), "appdata", "local"))
	want := filepath.Join(string(filepath.Separator), "appdata", "local", "viewer")
	if got := endpointDirectoryFor("windows", "viewer"); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path, err := DefaultConfigPath()
	if err != nil {
		t.Skipf("No default config path: %v", err)
	}
	if filepath.Base(path) != "singleinstance.conf" {
		t.Errorf("Unexpected config file name %q", filepath.Base(path))
	}
}
