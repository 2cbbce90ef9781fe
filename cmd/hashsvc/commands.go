package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/hashing"
	"github.com/standardbeagle/hashsvc/internal/mcp"
	"github.com/standardbeagle/hashsvc/internal/server"
	"github.com/urfave/cli/v2"
)

// connect loads config and returns a client for a running server
func connect(c *cli.Context) (*server.Client, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}
	client, err := ensureServerRunning(c, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return client, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// requireArg returns the single positional argument of a command
func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one <%s> argument", c.Command.Name, name)
	}
	return c.Args().First(), nil
}

func loadCommand(c *cli.Context) error {
	client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.LoadHashes()
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	if !resp.Success {
		return errors.New(resp.Message)
	}
	fmt.Fprintln(c.App.Writer, resp.Message)
	return nil
}

func unloadCommand(c *cli.Context) error {
	client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.UnloadHashes()
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	fmt.Fprintln(c.App.Writer, resp.Message)
	return nil
}

func getCommand(c *cli.Context) error {
	arg, err := requireArg(c, "hex-hash")
	if err != nil {
		return err
	}
	hash, err := mcp.ParseHexHash(arg)
	if err != nil {
		return err
	}
	if _, err := hashing.ParseNamespace(c.String("type")); err != nil {
		return err
	}

	client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.GetString(hash, c.String("type"))
	if err != nil {
		if svcerrors.IsBusy(err) {
			return fmt.Errorf("%w; retry once the load finishes", err)
		}
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	if !resp.Found {
		return fmt.Errorf("%016x not found in %s table", hash, c.String("type"))
	}
	fmt.Fprintln(c.App.Writer, resp.Value)
	return nil
}

func addCommand(c *cli.Context) error {
	raw, err := requireArg(c, "string")
	if err != nil {
		return err
	}
	client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.AddHash(raw, c.String("type"))
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, resp)
	}
	if !resp.Success {
		return fmt.Errorf("add failed: %s", resp.Message)
	}
	fmt.Fprintln(c.App.Writer, resp.Message)
	return nil
}

// hashCommand computes locally; no server or table is involved
func hashCommand(c *cli.Context) error {
	raw, err := requireArg(c, "string")
	if err != nil {
		return err
	}
	ns, err := hashing.ParseNamespace(c.String("type"))
	if err != nil {
		return err
	}
	h := hashing.Compute(ns, raw)
	if ns == hashing.NamespaceBin {
		fmt.Fprintf(c.App.Writer, "%08x\n", h)
	} else {
		fmt.Fprintf(c.App.Writer, "%016x\n", h)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	client, err := connect(c)
	if err != nil {
		return err
	}
	defer client.Close()

	st, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to get server status: %w", err)
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, st)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "State:     %s\n", st.State)
	fmt.Fprintf(w, "Game:      %d\n", st.GameCount)
	fmt.Fprintf(w, "Bin:       %d\n", st.BinCount)
	if st.CacheDir != "" {
		fmt.Fprintf(w, "Cache dir: %s\n", st.CacheDir)
	}
	fmt.Fprintf(w, "Socket:    %s\n", client.SocketPath())
	return nil
}
