package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/standardbeagle/hashsvc/internal/ingest"
	"github.com/standardbeagle/hashsvc/internal/remote"
	"github.com/standardbeagle/hashsvc/internal/version"
)

// Config file names looked up by Discover, in order
const (
	KDLFileName  = ".hashsvc.kdl"
	TOMLFileName = ".hashsvc.toml"
)

const DefaultTimeoutSec = 300

type Config struct {
	Version int     `toml:"version"`
	Server  Server  `toml:"server"`
	Cache   Cache   `toml:"cache"`
	Remote  Remote  `toml:"remote"`
	Ingest  Ingest  `toml:"ingest"`
	Metrics Metrics `toml:"metrics"`
}

type Server struct {
	Socket string `toml:"socket"` // Unix socket path for the RPC server
}

type Cache struct {
	Dir string `toml:"dir"` // Empty means the per-platform cache directory
}

type Remote struct {
	UserAgent  string   `toml:"user_agent"`
	TimeoutSec int      `toml:"timeout_sec"` // HTTP client timeout for metadata and downloads
	Sources    []string `toml:"sources"`     // Contents API metadata endpoints, synced in order
}

type Ingest struct {
	GamePattern  string `toml:"game_pattern"`
	BinPattern   string `toml:"bin_pattern"`
	DigestSuffix string `toml:"digest_suffix"`
	Workers      int    `toml:"workers"` // 0 = NumCPU
}

type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a configuration with every field populated
func Default() *Config {
	return &Config{
		Version: 1,
		Server:  Server{Socket: DefaultSocketPath()},
		Remote: Remote{
			UserAgent:  version.UserAgent(),
			TimeoutSec: DefaultTimeoutSec,
			Sources:    append([]string(nil), remote.DefaultSources...),
		},
		Ingest: Ingest{
			GamePattern:  ingest.DefaultGamePattern,
			BinPattern:   ingest.DefaultBinPattern,
			DigestSuffix: ingest.DefaultDigestSuffix,
			Workers:      runtime.NumCPU(),
		},
		Metrics: Metrics{Enabled: true},
	}
}

// DefaultSocketPath is the RPC socket used when none is configured
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "hashsvc.sock")
}

// Load reads the configuration at path. An empty path or a missing file
// yields validated defaults. Files ending in .toml are decoded as TOML,
// anything else as KDL.
func Load(path string) (*Config, error) {
	if path == "" {
		return validated(Default())
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return validated(Default())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg, err = parseTOML(content)
	} else {
		cfg, err = parseKDL(string(content))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return validated(cfg)
}

// Discover returns the first config file present in dir, or "" when there is none
func Discover(dir string) string {
	for _, name := range []string{KDLFileName, TOMLFileName} {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func validated(cfg *Config) (*Config, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
