package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/standardbeagle/hashsvc/internal/config"
	"github.com/standardbeagle/hashsvc/internal/debug"
	"github.com/standardbeagle/hashsvc/internal/server"
	"github.com/standardbeagle/hashsvc/internal/version"
	"github.com/urfave/cli/v2"
)

// serveCommand runs the hash server until a signal or a shutdown request
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	svc, m := buildService(cfg)
	srv := server.NewHashServer(cfg, svc, m)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Hash server started\n")
	fmt.Fprintf(out, "Socket: %s\n", srv.SocketPath())
	fmt.Fprintf(out, "\nUse 'hashsvc shutdown' to stop the server\n")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		fmt.Fprintf(out, "\nReceived signal %v, shutting down...\n", sig)
	case <-srv.Done():
		if srv.Forced() {
			fmt.Fprintln(out, "Forced shutdown requested")
		} else {
			fmt.Fprintln(out, "Server shutdown requested")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	fmt.Fprintln(out, "Server shut down cleanly")
	return nil
}

// shutdownCommand asks the running server to exit
func shutdownCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	client := server.NewClientWithSocket(cfg.Server.Socket)
	defer client.Close()

	if !client.IsServerRunning() {
		return fmt.Errorf("no server is running on %s", cfg.Server.Socket)
	}

	if err := client.Shutdown(c.Bool("force")); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for client.IsServerRunning() {
		if time.Now().After(deadline) {
			return fmt.Errorf("server did not shut down")
		}
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Fprintln(c.App.Writer, "Server shut down successfully")
	return nil
}

// ensureServerRunning returns a client for the configured socket, starting a
// background server first when none answers. A server built from a different
// binary is replaced.
func ensureServerRunning(c *cli.Context, cfg *config.Config) (*server.Client, error) {
	client := server.NewClientWithSocket(cfg.Server.Socket)

	if ping, err := client.Ping(); err == nil {
		if ping.BuildID == "" || ping.BuildID == version.BuildID() {
			return client, nil
		}
		debug.LogRPC("server build %s differs from %s, restarting\n", ping.BuildID, version.BuildID())
		fmt.Fprintln(c.App.ErrWriter, "Hash server is from a different build, restarting...")
		if err := client.Shutdown(true); err != nil {
			return nil, fmt.Errorf("failed to stop stale server: %w", err)
		}
		if err := waitForExit(client, 5*time.Second); err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(c.App.ErrWriter, "Hash server not running, starting in background...")

	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	cmd := exec.Command(executable, serveArgs(c, cfg)...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	if err := cmd.Process.Release(); err != nil {
		return nil, fmt.Errorf("failed to detach server process: %w", err)
	}

	if err := client.WaitForReady(30 * time.Second); err != nil {
		return nil, fmt.Errorf("server did not become ready: %w", err)
	}
	return client, nil
}

// serveArgs forwards the global flags so the background server sees the
// same configuration as the command that started it
func serveArgs(c *cli.Context, cfg *config.Config) []string {
	var args []string
	if path := c.String("config"); path != "" {
		args = append(args, "--config", path)
	}
	args = append(args, "--socket", cfg.Server.Socket)
	if cfg.Cache.Dir != "" {
		args = append(args, "--cache-dir", cfg.Cache.Dir)
	}
	if c.Bool("offline") {
		args = append(args, "--offline")
	}
	return append(args, "serve")
}

func waitForExit(client *server.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for client.IsServerRunning() {
		if time.Now().After(deadline) {
			return fmt.Errorf("server on %s did not exit", client.SocketPath())
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
