package lifecycle

import (
	"context"
	"sync"

	"github.com/standardbeagle/hashsvc/internal/config"
	"github.com/standardbeagle/hashsvc/internal/debug"
	"github.com/standardbeagle/hashsvc/internal/ingest"
	"github.com/standardbeagle/hashsvc/internal/remote"
	"github.com/standardbeagle/hashsvc/internal/table"
)

// Pipeline is the production Loader: resolve the cache directory, sync it
// with the remote sources, then ingest everything in it.
type Pipeline struct {
	CacheDir string // override; empty means the platform cache dir
	Syncer   *remote.Syncer
	Ingestor *ingest.Ingestor

	mu       sync.Mutex
	resolved string
}

// NewPipeline wires a Pipeline from configuration
func NewPipeline(cfg *config.Config, syncer *remote.Syncer) *Pipeline {
	return &Pipeline{
		CacheDir: cfg.Cache.Dir,
		Syncer:   syncer,
		Ingestor: &ingest.Ingestor{
			GamePattern:  cfg.Ingest.GamePattern,
			BinPattern:   cfg.Ingest.BinPattern,
			DigestSuffix: cfg.Ingest.DigestSuffix,
			Workers:      cfg.Ingest.Workers,
		},
	}
}

// Load implements Loader
func (p *Pipeline) Load(ctx context.Context, tables *table.Set) error {
	dir, err := config.ResolveCacheDir(p.CacheDir)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.resolved = dir
	p.mu.Unlock()

	if p.Syncer != nil {
		if _, err := p.Syncer.Sync(ctx, dir); err != nil {
			return err
		}
	}

	report, err := p.Ingestor.Ingest(ctx, dir, tables)
	if err != nil {
		return err
	}
	debug.LogLifecycle("ingested %d files from %s\n", report.Files, dir)
	return nil
}

// Dir returns the cache directory used by the last load, or the configured
// override before any load has run.
func (p *Pipeline) Dir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved != "" {
		return p.resolved
	}
	return p.CacheDir
}
