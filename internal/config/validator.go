package config

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/ingest"
	"github.com/standardbeagle/hashsvc/internal/version"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults fills zero values with defaults, then validates.
// Returns a *ConfigError naming the offending field on failure.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	v.setSmartDefaults(cfg)

	if err := v.validateRemoteConfig(&cfg.Remote); err != nil {
		return err
	}

	if err := v.validateIngestConfig(&cfg.Ingest); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Server.Socket) == "" {
		return svcerrors.NewConfigError("server.socket", "", errors.New("socket path cannot be empty"))
	}

	return nil
}

func (v *Validator) validateRemoteConfig(r *Remote) error {
	if r.TimeoutSec < 0 {
		return svcerrors.NewConfigError("remote.timeout_sec", fmt.Sprint(r.TimeoutSec), errors.New("timeout cannot be negative"))
	}

	for _, source := range r.Sources {
		u, err := url.Parse(source)
		if err != nil {
			return svcerrors.NewConfigError("remote.sources", source, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return svcerrors.NewConfigError("remote.sources", source, fmt.Errorf("unsupported scheme %q", u.Scheme))
		}
		if u.Host == "" {
			return svcerrors.NewConfigError("remote.sources", source, errors.New("missing host"))
		}
	}

	return nil
}

func (v *Validator) validateIngestConfig(in *Ingest) error {
	if !doublestar.ValidatePattern(in.GamePattern) {
		return svcerrors.NewConfigError("ingest.game_pattern", in.GamePattern, errors.New("invalid glob pattern"))
	}
	if !doublestar.ValidatePattern(in.BinPattern) {
		return svcerrors.NewConfigError("ingest.bin_pattern", in.BinPattern, errors.New("invalid glob pattern"))
	}
	if in.Workers < 0 {
		return svcerrors.NewConfigError("ingest.workers", fmt.Sprint(in.Workers), errors.New("workers cannot be negative"))
	}
	return nil
}

// setSmartDefaults fills zero values left by a partial config file
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Server.Socket == "" {
		cfg.Server.Socket = DefaultSocketPath()
	}
	if cfg.Remote.UserAgent == "" {
		cfg.Remote.UserAgent = version.UserAgent()
	}
	if cfg.Remote.TimeoutSec == 0 {
		cfg.Remote.TimeoutSec = DefaultTimeoutSec
	}
	if cfg.Ingest.GamePattern == "" {
		cfg.Ingest.GamePattern = ingest.DefaultGamePattern
	}
	if cfg.Ingest.BinPattern == "" {
		cfg.Ingest.BinPattern = ingest.DefaultBinPattern
	}
	if cfg.Ingest.DigestSuffix == "" {
		cfg.Ingest.DigestSuffix = ingest.DefaultDigestSuffix
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = max(1, runtime.NumCPU())
	}
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
