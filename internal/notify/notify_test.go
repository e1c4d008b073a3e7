package notify

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

type sent struct {
	title, message string
}

func newTestNotifier(cfg *Config) (*Notifier, *[]sent) {
	var got []sent
	n := NewNotifier("Viewer", cfg, nil)
	n.send = func(title, message string) error {
		got = append(got, sent{title, message})
		return nil
	}
	n.alert = func(title, message string) error {
		return errors.New("alerts unavailable")
	}
	return n, &got
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Enabled {
		t.Error("Expected Enabled to be false by default")
	}
	if !cfg.ShowActivation {
		t.Error("Expected ShowActivation to be true by default")
	}
	if !cfg.ShowRegistrationFailure {
		t.Error("Expected ShowRegistrationFailure to be true by default")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 3, "..."},
		{"日本語テキスト", 8, "日..."},
		{"ünïcødé", 7, "ün..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
		if !utf8.ValidString(result) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8 %q", tt.input, tt.maxLen, result)
		}
	}
}

func TestSetEnabled(t *testing.T) {
	n := NewNotifier("Viewer", nil, nil)

	if n.IsEnabled() {
		t.Error("Expected initially disabled")
	}
	n.SetEnabled(true)
	if !n.IsEnabled() {
		t.Error("Expected enabled after SetEnabled(true)")
	}
}

func TestActivation(t *testing.T) {
	n, got := newTestNotifier(&Config{Enabled: true, ShowActivation: true})

	n.Activation([]string{"viewer://open", "file.txt"})
	n.Activation(nil)

	if len(*got) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(*got))
	}
	first := (*got)[0]
	if first.title != "Viewer" {
		t.Errorf("Expected title Viewer, got %q", first.title)
	}
	if !strings.Contains(first.message, "viewer://open file.txt") {
		t.Errorf("Expected args in message, got %q", first.message)
	}
	if (*got)[1].message != "Opened again" {
		t.Errorf("Unexpected message for no args: %q", (*got)[1].message)
	}
}

func TestRegistrationFailedFallsBackToNotify(t *testing.T) {
	n, got := newTestNotifier(&Config{Enabled: true, ShowRegistrationFailure: true})

	n.RegistrationFailed("viewer", errors.New("access denied"))

	if len(*got) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(*got))
	}
	if !strings.Contains((*got)[0].message, "viewer://") || !strings.Contains((*got)[0].message, "access denied") {
		t.Errorf("Unexpected message %q", (*got)[0].message)
	}
}

func TestNotifierDisabled_NoSend(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, ShowActivation: true, ShowRegistrationFailure: true}},
		{"kinds off", &Config{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, got := newTestNotifier(tt.cfg)
			n.Activation([]string{"x"})
			n.RegistrationFailed("viewer", errors.New("boom"))
			if len(*got) != 0 {
				t.Errorf("Expected no notifications, got %v", *got)
			}
		})
	}
}
