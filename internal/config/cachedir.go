package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
)

// Application identity used to derive the platform cache directory
const (
	appQualifier    = "com"
	appOrganization = "league-toolkit"
	appName         = "lol-hashes"
)

// ResolveCacheDir returns override when set, otherwise the platform cache
// directory for the application. The directory is created if absent.
func ResolveCacheDir(override string) (string, error) {
	dir := override
	if dir == "" {
		home, _ := os.UserHomeDir()
		var err error
		dir, err = platformCacheDir(runtime.GOOS, os.Getenv, home)
		if err != nil {
			return "", svcerrors.NewFileError("resolve cache dir", "", err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", svcerrors.NewFileError("create cache dir", dir, err)
	}
	return dir, nil
}

// platformCacheDir follows each OS's convention for per-application caches
func platformCacheDir(goos string, getenv func(string) string, home string) (string, error) {
	switch goos {
	case "windows":
		base := getenv("LOCALAPPDATA")
		if base == "" {
			return "", errors.New("%LOCALAPPDATA% is not set")
		}
		return filepath.Join(base, appOrganization, appName, "cache"), nil
	case "darwin", "ios":
		if home == "" {
			return "", errors.New("home directory is unknown")
		}
		return filepath.Join(home, "Library", "Caches", appQualifier+"."+appOrganization+"."+appName), nil
	default:
		if xdg := getenv("XDG_CACHE_HOME"); xdg != "" && filepath.IsAbs(xdg) {
			return filepath.Join(xdg, appName), nil
		}
		if home == "" {
			return "", errors.New("neither $XDG_CACHE_HOME nor home directory is set")
		}
		return filepath.Join(home, ".cache", appName), nil
	}
}
