//go:build windows

package registrar

import (
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/rescale/singleinstance/internal/logging"
)

// Register makes exePath the handler of scheme for the current user.
// Existing values are overwritten, so calling it on every start keeps the
// registration pointing at the running binary.
func Register(exePath, scheme, appName string, logger *logging.Logger) error {
	plan, err := Plan(exePath, scheme, appName)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	for _, kp := range plan {
		key, _, err := registry.CreateKey(registry.CURRENT_USER, kp.Path, registry.SET_VALUE)
		if err != nil {
			return fmt.Errorf("failed to create HKCU\\%s: %w", kp.Path, err)
		}
		for _, v := range kp.Values {
			if err := key.SetStringValue(v.Name, v.Data); err != nil {
				key.Close()
				return fmt.Errorf("failed to set HKCU\\%s value %q: %w", kp.Path, v.Name, err)
			}
		}
		key.Close()
		logger.Debug().Str("key", `HKCU\`+kp.Path).Int("values", len(kp.Values)).Msg("Registry key written")
	}

	logger.Info().Str("scheme", scheme).Str("exe", exePath).Msg("URI scheme handler registered")
	return nil
}

// Registered returns the command currently registered for scheme, or ""
// when the scheme has no handler.
func Registered(scheme string) (string, error) {
	path := ClassesRoot + `\` + scheme + `\shell\open\command`
	key, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", fmt.Errorf("failed to open HKCU\\%s: %w", path, err)
	}
	defer key.Close()

	cmd, _, err := key.GetStringValue("")
	if err != nil {
		if err == registry.ErrNotExist {
			return "", nil
		}
		return "", fmt.Errorf("failed to read HKCU\\%s: %w", path, err)
	}
	return cmd, nil
}
