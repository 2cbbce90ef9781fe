// Package remote keeps a local cache directory in step with the hash table
// files published on a GitHub-style contents API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/hashsvc/internal/debug"
	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/metrics"
)

// DigestSuffix is the default suffix appended to a synced file's name to
// form its digest sidecar
const DigestSuffix = ".sha"

// tempPattern names in-progress downloads. Ingest skips dot files, and Sync
// removes leftovers from an interrupted run before it starts.
const tempPattern = ".sync-*"

// DefaultSources are the CommunityDragon contents API endpoints for the
// binentries table and the two game table shards.
var DefaultSources = []string{
	"https://api.github.com/repos/CommunityDragon/Data/contents/hashes/lol/hashes.binentries.txt",
	"https://api.github.com/repos/CommunityDragon/Data/contents/hashes/lol/hashes.game.txt.0",
	"https://api.github.com/repos/CommunityDragon/Data/contents/hashes/lol/hashes.game.txt.1",
}

// Metadata is the subset of a contents API response the syncer needs
type Metadata struct {
	SHA         string `json:"sha"`
	DownloadURL string `json:"download_url"`
	Name        string `json:"name"`
}

// Validate fails on any missing field or a name that would escape the cache dir
func (m Metadata) Validate() error {
	switch {
	case m.SHA == "":
		return fmt.Errorf("metadata is missing sha")
	case m.DownloadURL == "":
		return fmt.Errorf("metadata is missing download_url")
	case m.Name == "":
		return fmt.Errorf("metadata is missing name")
	case m.Name != filepath.Base(m.Name) || m.Name == "." || m.Name == "..":
		return fmt.Errorf("metadata name %q is not a plain file name", m.Name)
	}
	return nil
}

// Report summarizes one Sync run
type Report struct {
	Downloaded int
	Skipped    int
}

// Options configures a Syncer
type Options struct {
	Sources      []string
	UserAgent    string
	DigestSuffix string // empty means DigestSuffix
	Timeout   time.Duration
	Client    *http.Client
	Metrics   *metrics.Collectors
}

// Syncer downloads source files whose remote digest differs from the cached one
type Syncer struct {
	sources      []string
	userAgent    string
	digestSuffix string
	client       *http.Client
	metrics      *metrics.Collectors
}

// NewSyncer builds a Syncer. An empty user agent is a programming error and
// panics: the contents API rejects anonymous clients.
func NewSyncer(opts Options) *Syncer {
	if opts.UserAgent == "" {
		panic("remote: NewSyncer requires a non-empty user agent")
	}
	sources := opts.Sources
	if len(sources) == 0 {
		sources = DefaultSources
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}
	suffix := opts.DigestSuffix
	if suffix == "" {
		suffix = DigestSuffix
	}
	return &Syncer{
		sources:      append([]string(nil), sources...),
		userAgent:    opts.UserAgent,
		digestSuffix: suffix,
		client:       client,
		metrics:      opts.Metrics,
	}
}

// DigestSuffix returns the sidecar suffix this syncer writes
func (s *Syncer) DigestSuffix() string {
	return s.digestSuffix
}

// Sources returns the metadata endpoints in sync order
func (s *Syncer) Sources() []string {
	return append([]string(nil), s.sources...)
}

// Sync brings cacheDir up to date with every source, in order. The first
// failure aborts the run; files synced before it stay on disk.
func (s *Syncer) Sync(ctx context.Context, cacheDir string) (Report, error) {
	var report Report
	sweepTemp(cacheDir)
	for _, source := range s.sources {
		downloaded, err := s.syncOne(ctx, cacheDir, source)
		if err != nil {
			return report, err
		}
		if downloaded {
			report.Downloaded++
			s.metrics.ObserveSyncFile(metrics.ResultDownloaded)
		} else {
			report.Skipped++
			s.metrics.ObserveSyncFile(metrics.ResultSkipped)
		}
	}
	debug.LogSync("sync complete: %d downloaded, %d up to date\n", report.Downloaded, report.Skipped)
	return report, nil
}

func (s *Syncer) syncOne(ctx context.Context, cacheDir, source string) (bool, error) {
	meta, err := s.fetchMetadata(ctx, source)
	if err != nil {
		return false, err
	}

	filePath := filepath.Join(cacheDir, meta.Name)
	digestPath := filePath + s.digestSuffix

	if isCurrent(filePath, digestPath, meta.SHA) {
		debug.LogSync("%s is up to date (sha %s)\n", meta.Name, meta.SHA)
		return false, nil
	}

	debug.LogSync("downloading %s from %s\n", meta.Name, meta.DownloadURL)
	if err := s.download(ctx, meta.DownloadURL, filePath); err != nil {
		return false, svcerrors.NewSyncError(meta.Name, "download", err)
	}
	if err := writeFileAtomic(digestPath, []byte(meta.SHA)); err != nil {
		return false, svcerrors.NewSyncError(meta.Name, "write digest", err)
	}
	return true, nil
}

func (s *Syncer) fetchMetadata(ctx context.Context, source string) (Metadata, error) {
	var meta Metadata

	resp, err := s.get(ctx, source)
	if err != nil {
		return meta, svcerrors.NewSyncError(source, "fetch metadata", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return meta, svcerrors.NewSyncError(source, "decode metadata", err)
	}
	if err := meta.Validate(); err != nil {
		return meta, svcerrors.NewSyncError(source, "decode metadata", err)
	}
	return meta, nil
}

func (s *Syncer) download(ctx context.Context, url, dest string) error {
	resp, err := s.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), tempPattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}

// get issues a GET with the client identity header and rejects non-2xx replies
func (s *Syncer) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// sweepTemp removes temp files left behind by a run that was killed
// mid-download, including the older ".<name>.tmp-*" naming.
func sweepTemp(cacheDir string) {
	fsys := os.DirFS(cacheDir)
	for _, pattern := range []string{tempPattern, ".*.tmp-*"} {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			continue
		}
		for _, name := range matches {
			if err := os.Remove(filepath.Join(cacheDir, name)); err == nil {
				debug.LogSync("removed stale temp file %s\n", name)
			}
		}
	}
}

// isCurrent reports whether the cached file exists and its sidecar matches sha
func isCurrent(filePath, digestPath, sha string) bool {
	if _, err := os.Stat(filePath); err != nil {
		return false
	}
	stored, err := os.ReadFile(digestPath)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(stored)) == sha
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
