package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/standardbeagle/hashsvc/internal/debug"
	"github.com/standardbeagle/hashsvc/internal/mcp"
	"github.com/urfave/cli/v2"
)

// mcpCommand serves the lookup tools over stdio. Stdout belongs to the
// protocol, so debug output is silenced first.
func mcpCommand(c *cli.Context) error {
	debug.SetMCPMode(true)

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	svc, _ := buildService(cfg)
	srv := mcp.NewServer(svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
