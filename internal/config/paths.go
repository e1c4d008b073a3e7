// Package config provides configuration management for single-instance applications.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// vendorDir groups every per-user directory this module creates.
const vendorDir = "singleinstance"

// EndpointDirectory returns the directory that holds the rendezvous socket
// for appDir (usually the application identifier).
//
// Locations:
//   - Windows: %LOCALAPPDATA%\<appDir>
//   - Unix: $XDG_RUNTIME_DIR/<appDir> when set, else ~/.config/<appDir>
func EndpointDirectory(appDir string) string {
	return endpointDirectoryFor(runtime.GOOS, appDir)
}

func endpointDirectoryFor(goos, appDir string) string {
	if goos == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appDir)
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, appDir)
	}

	// Runtime dir is per-user, tmpfs and cleared at logout, so no stale sockets survive a reboot
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, appDir)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), appDir)
		}
		return filepath.Join(homeDir, ".config", appDir)
	}
	return filepath.Join(configDir, appDir)
}

// LogDirectory returns the log directory.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\singleinstance\logs
//   - Unix: ~/.config/singleinstance/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), vendorDir+"-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, vendorDir, "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), vendorDir+"-logs")
		}
		return filepath.Join(homeDir, ".config", vendorDir, "logs")
	}
	return filepath.Join(configDir, vendorDir, "logs")
}

// DefaultConfigPath returns the default path for the config file.
//   - Windows: %APPDATA%\singleinstance\singleinstance.conf
//   - Unix: ~/.config/singleinstance/singleinstance.conf
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE environment variable set")
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, vendorDir)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", vendorDir)
	}

	return filepath.Join(configDir, vendorDir+".conf"), nil
}
