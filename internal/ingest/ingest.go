// Package ingest walks a cache directory and loads every hash table file it
// recognizes into a table.Set.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/hashsvc/internal/debug"
	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/hashing"
	"github.com/standardbeagle/hashsvc/internal/table"
)

// Default classification patterns, matched against the file base name
const (
	DefaultGamePattern  = "*.game.*"
	DefaultBinPattern   = "*.binentries.*"
	DefaultDigestSuffix = ".sha"
)

// maxLineSize bounds a single line; values are file paths so this is generous
const maxLineSize = 1024 * 1024

// Ingestor classifies and parses hash table files
type Ingestor struct {
	GamePattern  string
	BinPattern   string
	DigestSuffix string
	Workers      int
}

// New returns an Ingestor with the default patterns
func New() *Ingestor {
	return &Ingestor{
		GamePattern:  DefaultGamePattern,
		BinPattern:   DefaultBinPattern,
		DigestSuffix: DefaultDigestSuffix,
		Workers:      runtime.NumCPU(),
	}
}

// Report counts what an Ingest call loaded
type Report struct {
	Files int
	Game  int
	Bin   int
}

type sourceFile struct {
	path string
	ns   hashing.Namespace
}

// Classify returns the namespace for a file name, or false when the file is
// hidden (in-progress downloads are dot files), a digest sidecar, or matches
// neither pattern.
func (in *Ingestor) Classify(name string) (hashing.Namespace, bool) {
	if strings.HasPrefix(name, ".") {
		return 0, false
	}
	if in.DigestSuffix != "" && strings.HasSuffix(name, in.DigestSuffix) {
		return 0, false
	}
	if ok, _ := doublestar.Match(in.GamePattern, name); ok {
		return hashing.NamespaceGame, true
	}
	if ok, _ := doublestar.Match(in.BinPattern, name); ok {
		return hashing.NamespaceBin, true
	}
	return 0, false
}

// Ingest loads every classified file under dir into tables. Files are parsed
// concurrently but merged in walk order, so a hash present in several files
// resolves the same way on every load. Any parse error fails the call.
func (in *Ingestor) Ingest(ctx context.Context, dir string, tables *table.Set) (Report, error) {
	var report Report

	files, err := in.collect(dir)
	if err != nil {
		return report, err
	}
	debug.LogIngest("found %d hash table files under %s\n", len(files), dir)

	batches := make([][]table.Entry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	workers := in.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, f := range files {
		g.Go(func() error {
			entries, err := parseFile(gctx, f.path)
			if err != nil {
				return err
			}
			batches[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	merge(files, batches, tables, &report)
	return report, nil
}

// merge applies batches in walk order and drops each one once it is in the
// table, so parsed entries are not held twice for the whole merge.
func merge(files []sourceFile, batches [][]table.Entry, tables *table.Set, report *Report) {
	for i, f := range files {
		n := len(batches[i])
		tables.For(f.ns).PutBatch(batches[i])
		batches[i] = nil

		report.Files++
		if f.ns == hashing.NamespaceBin {
			report.Bin += n
		} else {
			report.Game += n
		}
		debug.LogIngest("loaded %d %s entries from %s\n", n, f.ns, f.path)
	}
}

func (in *Ingestor) collect(dir string) ([]sourceFile, error) {
	var files []sourceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if ns, ok := in.Classify(d.Name()); ok {
			files = append(files, sourceFile{path: path, ns: ns})
		}
		return nil
	})
	if err != nil {
		return nil, svcerrors.NewFileError("walk", dir, err)
	}
	return files, nil
}

func parseFile(ctx context.Context, path string) ([]table.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, svcerrors.NewFileError("open", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffSize)
	if err := checkText(br); err != nil {
		return nil, svcerrors.NewFileError("validate", path, err)
	}

	entries, err := Parse(ctx, br, path)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Parse reads `<hex-hash> <value>` lines from r. name is only used in errors.
func Parse(ctx context.Context, r io.Reader, name string) ([]table.Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var entries []table.Entry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		entry, err := ParseLine(line)
		if err != nil {
			token, _, _ := strings.Cut(line, " ")
			return nil, svcerrors.NewParseError(name, lineNo, token, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, svcerrors.NewFileError("read", name, err)
	}
	return entries, nil
}

// ParseLine splits a line at its first space into a hex hash and the verbatim value
func ParseLine(line string) (table.Entry, error) {
	hexHash, value, ok := strings.Cut(line, " ")
	if !ok {
		return table.Entry{}, fmt.Errorf("missing space separator")
	}
	hash, err := strconv.ParseUint(hexHash, 16, 64)
	if err != nil {
		return table.Entry{}, fmt.Errorf("invalid hex hash: %w", err)
	}
	return table.Entry{Hash: hash, Value: value}, nil
}
