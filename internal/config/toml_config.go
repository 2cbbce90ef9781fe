package config

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/hashsvc/internal/remote"
)

// parseTOML decodes content over the defaults so omitted keys keep them.
// Unknown keys are rejected to catch typos early.
func parseTOML(content []byte) (*Config, error) {
	cfg := Default()
	cfg.Remote.Sources = nil

	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if len(cfg.Remote.Sources) == 0 {
		cfg.Remote.Sources = append([]string(nil), remote.DefaultSources...)
	}
	return cfg, nil
}
