// Package registrar registers the application as the handler of a custom
// URI scheme, so that opening scheme://... launches it with the link as
// its first argument.
//
// Only Windows is supported. On macOS deep links arrive through the
// application bundle (CFBundleURLTypes in Info.plist) and are delivered to
// the already-running process by the OS, so no registration is needed and
// the single-instance hand-off is not used for them.
package registrar

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Registration errors
var (
	ErrNotSupported  = errors.New("URI scheme registration is only supported on Windows")
	ErrEmptyScheme   = errors.New("URI scheme is required")
	ErrEmptyExecPath = errors.New("executable path is required")
)

// ClassesRoot is the per-user registry location of URI scheme handlers,
// relative to HKEY_CURRENT_USER.
const ClassesRoot = `SOFTWARE\Classes`

// Value is one registry value to write. An empty Name is the key's default value.
type Value struct {
	Name string
	Data string
}

// KeyPlan is one registry key to create, with the values to set on it.
type KeyPlan struct {
	Path   string // relative to HKEY_CURRENT_USER
	Values []Value
}

// Plan returns the keys and values that make exePath the handler of scheme:
//
//	HKCU\SOFTWARE\Classes\<scheme>                     (default) = appName
//	                                                   URL Protocol = ""
//	HKCU\SOFTWARE\Classes\<scheme>\shell
//	HKCU\SOFTWARE\Classes\<scheme>\shell\open
//	HKCU\SOFTWARE\Classes\<scheme>\shell\open\command  (default) = "<exe>" "%1"
//
// Keys are ordered parent first.
func Plan(exePath, scheme, appName string) ([]KeyPlan, error) {
	scheme = strings.TrimSpace(scheme)
	if scheme == "" {
		return nil, ErrEmptyScheme
	}
	if strings.ContainsAny(scheme, `\/:`) {
		return nil, fmt.Errorf("invalid URI scheme %q", scheme)
	}
	if strings.TrimSpace(exePath) == "" {
		return nil, ErrEmptyExecPath
	}
	if appName == "" {
		appName = scheme
	}

	root := ClassesRoot + `\` + scheme
	return []KeyPlan{
		{Path: root, Values: []Value{
			{Name: "", Data: appName},
			{Name: "URL Protocol", Data: ""},
		}},
		{Path: root + `\shell`},
		{Path: root + `\shell\open`},
		{Path: root + `\shell\open\command`, Values: []Value{
			{Name: "", Data: OpenCommand(exePath)},
		}},
	}, nil
}

// OpenCommand returns the shell\open\command line that passes the link as
// the first argument.
func OpenCommand(exePath string) string {
	return `"` + exePath + `" "%1"`
}

// ValidatePlatform reports whether deep-link registration works on this OS.
func ValidatePlatform() error {
	return validatePlatformFor(runtime.GOOS)
}

func validatePlatformFor(goos string) error {
	switch goos {
	case "windows":
		return nil
	case "darwin":
		return fmt.Errorf("%w: on macOS declare the scheme in the bundle's Info.plist (CFBundleURLTypes) and set LSMultipleInstancesProhibited", ErrNotSupported)
	default:
		return ErrNotSupported
	}
}
