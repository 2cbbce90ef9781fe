package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestPlatformCacheDir(t *testing.T) {
	tests := []struct {
		name string
		goos string
		env  map[string]string
		home string
		want string
	}{
		{"linux xdg", "linux", map[string]string{"XDG_CACHE_HOME": "/xdg"}, "/home/u", filepath.Join("/xdg", "lol-hashes")},
		{"linux home", "linux", nil, "/home/u", filepath.Join("/home/u", ".cache", "lol-hashes")},
		{"linux relative xdg ignored", "linux", map[string]string{"XDG_CACHE_HOME": "rel"}, "/home/u", filepath.Join("/home/u", ".cache", "lol-hashes")},
		{"darwin", "darwin", nil, "/Users/u", filepath.Join("/Users/u", "Library", "Caches", "com.league-toolkit.lol-hashes")},
		{"windows", "windows", map[string]string{"LOCALAPPDATA": "C:/Users/u/AppData/Local"}, "", filepath.Join("C:/Users/u/AppData/Local", "league-toolkit", "lol-hashes", "cache")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := platformCacheDir(tt.goos, envFrom(tt.env), tt.home)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformCacheDir_Unresolvable(t *testing.T) {
	_, err := platformCacheDir("linux", envFrom(nil), "")
	assert.Error(t, err)
	_, err = platformCacheDir("windows", envFrom(nil), "C:/Users/u")
	assert.Error(t, err)
}

func TestResolveCacheDir_OverrideCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	got, err := ResolveCacheDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
