// Package notify provides cross-platform desktop notifications for the leader instance.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gen2brain/beeep"

	"github.com/rescale/singleinstance/internal/logging"
)

// Notifier handles desktop notifications.
type Notifier struct {
	logger  *logging.Logger
	appName string
	cfg     Config
	mu      sync.RWMutex

	// send and alert deliver one notification; replaced in tests
	send  func(title, message string) error
	alert func(title, message string) error
}

// Config holds notification configuration.
type Config struct {
	// Enabled determines if notifications are sent.
	Enabled bool

	// ShowActivation notifies when another launch hands over its arguments.
	ShowActivation bool

	// ShowRegistrationFailure notifies when the URI scheme handler could not be written.
	ShowRegistrationFailure bool
}

// DefaultConfig returns the default notification configuration.
// Notifications are off unless the config file turns them on.
func DefaultConfig() *Config {
	return &Config{
		Enabled:                 false,
		ShowActivation:          true,
		ShowRegistrationFailure: true,
	}
}

// NewNotifier creates a new notifier with the given configuration.
func NewNotifier(appName string, cfg *Config, logger *logging.Logger) *Notifier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Notifier{
		logger:  logger.WithComponent("notify"),
		appName: appName,
		cfg:     *cfg,
		send: func(title, message string) error {
			// Windows toast, macOS notification center, Linux D-Bus
			return beeep.Notify(title, message, "")
		},
		alert: func(title, message string) error {
			return beeep.Alert(title, message, "")
		},
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cfg.Enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg.Enabled
}

func (n *Notifier) config() Config {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.cfg
}

// Activation sends a notification for arguments forwarded by another launch.
func (n *Notifier) Activation(args []string) {
	cfg := n.config()
	if !cfg.Enabled || !cfg.ShowActivation {
		return
	}

	message := "Opened again"
	if len(args) > 0 {
		message = fmt.Sprintf("Opened with:\n%s", truncate(strings.Join(args, " "), 120))
	}

	if err := n.send(n.appName, message); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send activation notification")
	}
}

// RegistrationFailed sends a notification when deep links will not reach the application.
func (n *Notifier) RegistrationFailed(scheme string, err error) {
	cfg := n.config()
	if !cfg.Enabled || !cfg.ShowRegistrationFailure {
		return
	}

	title := n.appName + " Alert"
	message := fmt.Sprintf("Links starting with %s:// could not be registered:\n%s", scheme, truncate(err.Error(), 100))

	// beeep.Alert is more prominent on some platforms
	if alertErr := n.alert(title, message); alertErr != nil {
		if sendErr := n.send(title, message); sendErr != nil {
			n.logger.Error().Err(sendErr).Str("scheme", scheme).Msg("Failed to send registration alert")
		}
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen-3, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
