//go:build !windows

package registrar

import (
	"github.com/rescale/singleinstance/internal/logging"
)

// Register is not supported on non-Windows platforms.
func Register(exePath, scheme, appName string, logger *logging.Logger) error {
	return ValidatePlatform()
}

// Registered always returns "" on non-Windows platforms.
func Registered(scheme string) (string, error) {
	return "", ValidatePlatform()
}
