package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/hashsvc/internal/remote"
)

func TestParseTOML(t *testing.T) {
	content := `
[server]
socket = "/tmp/custom.sock"

[cache]
dir = "/data/hashes"

[remote]
user_agent = "toml-agent"
timeout_sec = 30

[ingest]
workers = 2
`
	cfg, err := parseTOML([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.sock", cfg.Server.Socket)
	assert.Equal(t, "/data/hashes", cfg.Cache.Dir)
	assert.Equal(t, "toml-agent", cfg.Remote.UserAgent)
	assert.Equal(t, 30, cfg.Remote.TimeoutSec)
	assert.Equal(t, remote.DefaultSources, cfg.Remote.Sources, "omitted sources keep defaults")
	assert.Equal(t, 2, cfg.Ingest.Workers)
	assert.Equal(t, "*.game.*", cfg.Ingest.GamePattern)
}

func TestParseTOML_SourcesReplaceDefaults(t *testing.T) {
	cfg, err := parseTOML([]byte(`
[remote]
sources = ["https://mirror.example.com/only"]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://mirror.example.com/only"}, cfg.Remote.Sources)
}

func TestParseTOML_UnknownKeyRejected(t *testing.T) {
	_, err := parseTOML([]byte(`
[server]
sockett = "/tmp/typo.sock"
`))
	assert.Error(t, err)
}

func TestLoad_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "hashsvc.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[cache]\ndir = \"/from/toml\"\n"), 0644))
	cfg, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "/from/toml", cfg.Cache.Dir)

	kdlPath := filepath.Join(dir, KDLFileName)
	require.NoError(t, os.WriteFile(kdlPath, []byte("cache {\n    dir \"/from/kdl\"\n}\n"), 0644))
	cfg, err = Load(kdlPath)
	require.NoError(t, err)
	assert.Equal(t, "/from/kdl", cfg.Cache.Dir)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.kdl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSocketPath(), cfg.Server.Socket)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, remote.DefaultSources, cfg.Remote.Sources)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), KDLFileName)
	require.NoError(t, os.WriteFile(path, []byte("ingest {\n    game_pattern \"[\"\n}\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Discover(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, TOMLFileName), []byte(""), 0644))
	assert.Equal(t, filepath.Join(dir, TOMLFileName), Discover(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte(""), 0644))
	assert.Equal(t, filepath.Join(dir, KDLFileName), Discover(dir), "KDL takes precedence")
}
