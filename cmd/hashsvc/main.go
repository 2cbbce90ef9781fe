package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/hashsvc/internal/config"
	"github.com/standardbeagle/hashsvc/internal/debug"
	"github.com/standardbeagle/hashsvc/internal/lifecycle"
	"github.com/standardbeagle/hashsvc/internal/metrics"
	"github.com/standardbeagle/hashsvc/internal/remote"
	"github.com/standardbeagle/hashsvc/internal/service"
	"github.com/standardbeagle/hashsvc/internal/table"
	"github.com/standardbeagle/hashsvc/internal/version"

	"github.com/urfave/cli/v2"
)

var Version = version.Version

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
// Without --config the working directory is searched for a config file.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	if configPath == "" {
		if wd, err := os.Getwd(); err == nil {
			configPath = config.Discover(wd)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		if configPath == "" {
			return nil, fmt.Errorf("failed to load default config: %w", err)
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if socket := c.String("socket"); socket != "" {
		abs, err := filepath.Abs(socket)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve socket path %q: %w", socket, err)
		}
		cfg.Server.Socket = abs
	}
	if dir := c.String("cache-dir"); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cache dir %q: %w", dir, err)
		}
		cfg.Cache.Dir = abs
	}
	if c.Bool("offline") {
		cfg.Remote.Sources = nil
	}

	return cfg, nil
}

// buildService wires the lookup service the serve and mcp commands share
func buildService(cfg *config.Config) (*service.Service, *metrics.Collectors) {
	var m *metrics.Collectors
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	pipeline := lifecycle.NewPipeline(cfg, newSyncer(cfg, m))
	manager := lifecycle.NewManager(pipeline, table.NewSet(), m)
	return service.New(manager, m, pipeline.Dir), m
}

// newSyncer returns nil in offline mode, where loads ingest whatever the
// cache already holds. Sync and ingest share one digest suffix.
func newSyncer(cfg *config.Config, m *metrics.Collectors) *remote.Syncer {
	if len(cfg.Remote.Sources) == 0 {
		return nil
	}
	return remote.NewSyncer(remote.Options{
		Sources:      cfg.Remote.Sources,
		UserAgent:    cfg.Remote.UserAgent,
		DigestSuffix: cfg.Ingest.DigestSuffix,
		Timeout:      time.Duration(cfg.Remote.TimeoutSec) * time.Second,
		Metrics:      m,
	})
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "hashsvc",
		Usage:                  "Resolve game and bin hashes to their source strings",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file (.kdl or .toml); defaults to .hashsvc.kdl or .hashsvc.toml in the working directory",
			},
			&cli.StringFlag{
				Name:    "socket",
				Aliases: []string{"s"},
				Usage:   "Unix socket of the hash server",
				EnvVars: []string{"HASHSVC_SOCKET"},
			},
			&cli.StringFlag{
				Name:    "cache-dir",
				Usage:   "Directory holding the downloaded hash tables",
				EnvVars: []string{"HASHSVC_CACHE_DIR"},
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Skip the remote sync and ingest the cache as-is",
			},
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug output to a log file in the temp directory",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the hash server on its Unix socket",
				Action: serveCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Action: mcpCommand,
			},
			{
				Name:   "load",
				Usage:  "Sync the cache and load every hash table",
				Flags:  []cli.Flag{jsonFlag()},
				Action: loadCommand,
			},
			{
				Name:   "unload",
				Usage:  "Drop the loaded hash tables",
				Flags:  []cli.Flag{jsonFlag()},
				Action: unloadCommand,
			},
			{
				Name:      "get",
				Usage:     "Look up the string behind a hex hash",
				ArgsUsage: "<hex-hash>",
				Flags:     []cli.Flag{typeFlag(), jsonFlag()},
				Action:    getCommand,
			},
			{
				Name:      "add",
				Usage:     "Hash a string and add it to the loaded table",
				ArgsUsage: "<string>",
				Flags:     []cli.Flag{typeFlag(), jsonFlag()},
				Action:    addCommand,
			},
			{
				Name:      "hash",
				Usage:     "Print the hash of a string without contacting the server",
				ArgsUsage: "<string>",
				Flags:     []cli.Flag{typeFlag()},
				Action:    hashCommand,
			},
			{
				Name:    "status",
				Aliases: []string{"st"},
				Usage:   "Show the table state and entry counts",
				Flags:   []cli.Flag{jsonFlag()},
				Action:  statusCommand,
			},
			{
				Name:  "shutdown",
				Usage: "Stop the running hash server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Close connections immediately instead of draining in-flight requests",
					},
				},
				Action: shutdownCommand,
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
	}
}

func typeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Usage:   "Hashtable type: game or bin",
		Value:   "game",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "json",
		Aliases: []string{"j"},
		Usage:   "Output as JSON",
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
