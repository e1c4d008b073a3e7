package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/rescale/singleinstance/internal/constants"
	"github.com/rescale/singleinstance/internal/endpoint"
	"github.com/rescale/singleinstance/internal/logging"
	"github.com/rescale/singleinstance/internal/pathutil"
	"github.com/rescale/singleinstance/internal/util/sanitize"
)

// DefaultAppID is used when neither the config file nor a flag names the application.
const DefaultAppID = "singleinstance"

// AppConfig is the single-instance configuration.
//
// Config file location:
//   - Windows: %APPDATA%\singleinstance\singleinstance.conf
//   - Unix: ~/.config/singleinstance/singleinstance.conf
//
// INI format:
//
//	[instance]
//	app_id = fingertipai
//	endpoint_dir =
//	retry_budget = 2
//	dial_timeout_seconds = 5
//
//	[uri_scheme]
//	register = false
//	scheme =
//	app_name =
//
//	[logging]
//	level = info
//
//	[notifications]
//	enabled = false
//	show_activation = true
//	show_registration_failure = true
type AppConfig struct {
	Instance      InstanceConfig
	URIScheme     URISchemeConfig
	Logging       LoggingConfig
	Notifications NotificationConfig
}

// InstanceConfig controls how the rendezvous endpoint is claimed.
type InstanceConfig struct {
	// AppID identifies the application. Launches with the same AppID share
	// one endpoint. Default: "singleinstance"
	AppID string `ini:"app_id"`

	// EndpointDir overrides the directory holding the socket.
	// Empty means the platform default from EndpointDirectory.
	EndpointDir string `ini:"endpoint_dir"`

	// RetryBudget is the number of stale endpoint recoveries per launch.
	// Minimum: 0, Maximum: 10, Default: 2
	RetryBudget int `ini:"retry_budget"`

	// DialTimeoutSeconds bounds the follower's connection attempt.
	// Minimum: 1, Maximum: 60, Default: 5
	DialTimeoutSeconds int `ini:"dial_timeout_seconds"`
}

// URISchemeConfig controls deep-link handler registration (Windows only).
type URISchemeConfig struct {
	// Register writes the handler on every leader start.
	// Default: false
	Register bool `ini:"register"`

	// Scheme is the URI scheme, e.g. "fingertipai" for fingertipai://...
	// Empty means AppID.
	Scheme string `ini:"scheme"`

	// AppName is shown by the OS when asking which program opens the link.
	// Empty means AppID.
	AppName string `ini:"app_name"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `ini:"level"`

	// File receives a rotated JSON copy of the log. A bare file
	// name is placed in LogDirectory(). Empty disables file logging.
	File string `ini:"file"`
}

// NotificationConfig contains desktop notification settings for the leader.
type NotificationConfig struct {
	// Enabled turns desktop notifications on. Default: false
	Enabled bool `ini:"enabled"`

	// ShowActivation notifies when another launch hands over its arguments.
	// Default: true
	ShowActivation bool `ini:"show_activation"`

	// ShowRegistrationFailure notifies when the URI scheme could not be registered.
	// Default: true
	ShowRegistrationFailure bool `ini:"show_registration_failure"`
}

// AppConfig validation errors
var (
	ErrMissingAppID       = errors.New("app_id is required")
	ErrInvalidRetryBudget = fmt.Errorf("retry_budget must be between 0 and %d", constants.MaxRetryBudget)
	ErrInvalidDialTimeout = errors.New("dial_timeout_seconds must be between 1 and 60")
	ErrInvalidScheme      = errors.New("scheme must start with a letter and contain only letters, digits, '+', '-' or '.'")
	ErrInvalidLogLevel    = errors.New("level must be one of debug, info, warn, error")
)

// NewAppConfig creates a new AppConfig with default values.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Instance: InstanceConfig{
			AppID:              DefaultAppID,
			EndpointDir:        "",
			RetryBudget:        constants.DefaultRetryBudget,
			DialTimeoutSeconds: int(constants.DialTimeout / time.Second),
		},
		URIScheme: URISchemeConfig{
			Register: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Notifications: NotificationConfig{
			Enabled:                 false,
			ShowActivation:          true,
			ShowRegistrationFailure: true,
		},
	}
}

// LoadAppConfig loads configuration from path.
// If path is empty, uses the default path.
// If the file doesn't exist, returns a config with default values and no error.
// If the file exists but is invalid, returns an error.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := NewAppConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(path), err)
	}

	instanceSection := iniFile.Section("instance")
	cfg.Instance.AppID = instanceSection.Key("app_id").MustString(DefaultAppID)
	cfg.Instance.EndpointDir = instanceSection.Key("endpoint_dir").String()
	cfg.Instance.RetryBudget = instanceSection.Key("retry_budget").MustInt(constants.DefaultRetryBudget)
	cfg.Instance.DialTimeoutSeconds = instanceSection.Key("dial_timeout_seconds").MustInt(int(constants.DialTimeout / time.Second))

	schemeSection := iniFile.Section("uri_scheme")
	cfg.URIScheme.Register = schemeSection.Key("register").MustBool(false)
	cfg.URIScheme.Scheme = schemeSection.Key("scheme").String()
	cfg.URIScheme.AppName = schemeSection.Key("app_name").String()

	cfg.Logging.Level = iniFile.Section("logging").Key("level").MustString("info")
	cfg.Logging.File = iniFile.Section("logging").Key("file").String()

	notifySection := iniFile.Section("notifications")
	cfg.Notifications.Enabled = notifySection.Key("enabled").MustBool(false)
	cfg.Notifications.ShowActivation = notifySection.Key("show_activation").MustBool(true)
	cfg.Notifications.ShowRegistrationFailure = notifySection.Key("show_registration_failure").MustBool(true)

	return cfg, nil
}

// SaveAppConfig saves configuration to path.
// If path is empty, uses the default path.
// Creates parent directories if they don't exist.
func SaveAppConfig(cfg *AppConfig, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	instanceSection, err := iniFile.NewSection("instance")
	if err != nil {
		return fmt.Errorf("failed to create instance section: %w", err)
	}
	instanceSection.Key("app_id").SetValue(cfg.Instance.AppID)
	instanceSection.Key("endpoint_dir").SetValue(cfg.Instance.EndpointDir)
	instanceSection.Key("retry_budget").SetValue(strconv.Itoa(cfg.Instance.RetryBudget))
	instanceSection.Key("dial_timeout_seconds").SetValue(strconv.Itoa(cfg.Instance.DialTimeoutSeconds))

	schemeSection, err := iniFile.NewSection("uri_scheme")
	if err != nil {
		return fmt.Errorf("failed to create uri_scheme section: %w", err)
	}
	schemeSection.Key("register").SetValue(strconv.FormatBool(cfg.URIScheme.Register))
	schemeSection.Key("scheme").SetValue(cfg.URIScheme.Scheme)
	schemeSection.Key("app_name").SetValue(cfg.URIScheme.AppName)

	loggingSection, err := iniFile.NewSection("logging")
	if err != nil {
		return fmt.Errorf("failed to create logging section: %w", err)
	}
	loggingSection.Key("level").SetValue(cfg.Logging.Level)
	loggingSection.Key("file").SetValue(cfg.Logging.File)

	notifySection, err := iniFile.NewSection("notifications")
	if err != nil {
		return fmt.Errorf("failed to create notifications section: %w", err)
	}
	notifySection.Key("enabled").SetValue(strconv.FormatBool(cfg.Notifications.Enabled))
	notifySection.Key("show_activation").SetValue(strconv.FormatBool(cfg.Notifications.ShowActivation))
	notifySection.Key("show_registration_failure").SetValue(strconv.FormatBool(cfg.Notifications.ShowRegistrationFailure))

	// Temporary file + rename so readers never see a partial config
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns nil if valid, or an error describing what's wrong.
func (cfg *AppConfig) Validate() error {
	if strings.TrimSpace(cfg.Instance.AppID) == "" || sanitize.FileName(cfg.Instance.AppID) == "" {
		return ErrMissingAppID
	}
	if cfg.Instance.RetryBudget < 0 || cfg.Instance.RetryBudget > constants.MaxRetryBudget {
		return ErrInvalidRetryBudget
	}
	if cfg.Instance.DialTimeoutSeconds < 1 || cfg.Instance.DialTimeoutSeconds > 60 {
		return ErrInvalidDialTimeout
	}
	if cfg.URIScheme.Register && !ValidScheme(cfg.SchemeName()) {
		return ErrInvalidScheme
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		return ErrInvalidLogLevel
	}
	return nil
}

// ValidScheme reports whether s is a syntactically valid URI scheme
// (RFC 3986: ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )).
func ValidScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 {
			if !isAlpha {
				return false
			}
			continue
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// SchemeName returns the URI scheme to register, defaulting to AppID.
func (cfg *AppConfig) SchemeName() string {
	if s := strings.TrimSpace(cfg.URIScheme.Scheme); s != "" {
		return strings.ToLower(s)
	}
	return strings.ToLower(strings.TrimSpace(cfg.Instance.AppID))
}

// DisplayName returns the application name for the OS handler prompt.
func (cfg *AppConfig) DisplayName() string {
	if s := strings.TrimSpace(cfg.URIScheme.AppName); s != "" {
		return s
	}
	return cfg.Instance.AppID
}

// LogFilePath returns where the log file goes, or "" when file
// logging is off.
func (cfg *AppConfig) LogFilePath() (string, error) {
	file := strings.TrimSpace(cfg.Logging.File)
	if file == "" {
		return "", nil
	}
	if filepath.Base(file) == file {
		return filepath.Join(LogDirectory(), file), nil
	}
	return pathutil.ResolveAbsolutePath(file)
}

// DialTimeout returns the follower dial timeout.
func (cfg *AppConfig) DialTimeout() time.Duration {
	return time.Duration(cfg.Instance.DialTimeoutSeconds) * time.Second
}

// ResolveEndpoint returns the socket location for this configuration.
// A configured endpoint_dir is expanded and made absolute; otherwise the
// platform default for the sanitized AppID is used.
func (cfg *AppConfig) ResolveEndpoint() (endpoint.Location, error) {
	dir := strings.TrimSpace(cfg.Instance.EndpointDir)
	if dir == "" {
		dir = EndpointDirectory(sanitize.FileName(cfg.Instance.AppID))
	}

	resolved, err := pathutil.ResolveAbsolutePath(dir)
	if err != nil {
		return endpoint.Location{}, fmt.Errorf("invalid endpoint directory %q: %w", dir, err)
	}
	return endpoint.Resolve(resolved, cfg.Instance.AppID)
}
