// Package service is the operation surface shared by the RPC and MCP
// transports: Get, Add, Load, Unload and Status.
package service

import (
	"context"
	"fmt"

	"github.com/standardbeagle/hashsvc/internal/debug"
	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/hashing"
	"github.com/standardbeagle/hashsvc/internal/lifecycle"
	"github.com/standardbeagle/hashsvc/internal/metrics"
)

type GetResult struct {
	Found bool
	Value string
}

type AddResult struct {
	Success bool
	Message string
	Hash    uint64
}

type LoadResult struct {
	Success bool
	Message string
	Count   int32
	Busy    bool // another load was already running
}

type UnloadResult struct {
	Success bool
	Message string
}

// Status is a point-in-time view of the service
type Status struct {
	State     lifecycle.State
	GameCount int
	BinCount  int
	CacheDir  string
}

// CacheDirFunc reports the cache directory for Status
type CacheDirFunc func() string

type Service struct {
	manager  *lifecycle.Manager
	metrics  *metrics.Collectors
	cacheDir CacheDirFunc
}

// New creates a Service over manager. m and cacheDir may be nil.
func New(manager *lifecycle.Manager, m *metrics.Collectors, cacheDir CacheDirFunc) *Service {
	return &Service{manager: manager, metrics: m, cacheDir: cacheDir}
}

// Manager exposes the lifecycle manager
func (s *Service) Manager() *lifecycle.Manager {
	return s.manager
}

// Get looks hash up in the named table. An unknown namespace is a plain
// miss and never triggers a load. Load failures, including a load already
// in progress, are returned as errors.
func (s *Service) Get(ctx context.Context, namespace string, hash uint64) (GetResult, error) {
	ns, err := hashing.ParseNamespace(namespace)
	if err != nil {
		debug.LogRPC("get: %v\n", err)
		return GetResult{}, nil
	}

	if err := s.manager.EnsureLoaded(ctx); err != nil {
		s.metrics.ObserveLookup(ns, metrics.ResultError)
		return GetResult{}, err
	}

	value, ok := s.manager.Tables().For(ns).Get(hash)
	if !ok {
		s.metrics.ObserveLookup(ns, metrics.ResultMiss)
		return GetResult{}, nil
	}
	s.metrics.ObserveLookup(ns, metrics.ResultHit)
	return GetResult{Found: true, Value: value}, nil
}

// Add hashes raw with the namespace's algorithm and stores it
func (s *Service) Add(ctx context.Context, namespace, raw string) AddResult {
	ns, err := hashing.ParseNamespace(namespace)
	if err != nil {
		return AddResult{Message: err.Error()}
	}

	if err := s.manager.EnsureLoaded(ctx); err != nil {
		return AddResult{Message: err.Error()}
	}

	hash := hashing.Compute(ns, raw)
	s.manager.Tables().For(ns).Put(hash, raw)
	s.metrics.ObserveInsert(ns)
	s.metrics.SetEntries(s.manager.Counts())

	return AddResult{
		Success: true,
		Message: fmt.Sprintf("Added %s hash %016x", ns, hash),
		Hash:    hash,
	}
}

// Load forces a sync and ingest
func (s *Service) Load(ctx context.Context) LoadResult {
	if err := s.manager.ForceLoad(ctx); err != nil {
		return LoadResult{
			Message: fmt.Sprintf("Failed to load hashtables: %v", err),
			Busy:    svcerrors.IsBusy(err),
		}
	}

	counts := s.manager.Counts()
	game, bin := counts[hashing.NamespaceGame], counts[hashing.NamespaceBin]
	return LoadResult{
		Success: true,
		Message: fmt.Sprintf("Hashtables loaded: %d game, %d bin hashes!", game, bin),
		Count:   int32(game + bin),
	}
}

// Unload drops every entry
func (s *Service) Unload(ctx context.Context) UnloadResult {
	s.manager.Unload()
	return UnloadResult{Success: true, Message: "Hashtables unloaded"}
}

// Status reports state and table sizes without triggering a load
func (s *Service) Status() Status {
	counts := s.manager.Counts()
	st := Status{
		State:     s.manager.State(),
		GameCount: counts[hashing.NamespaceGame],
		BinCount:  counts[hashing.NamespaceBin],
	}
	if s.cacheDir != nil {
		st.CacheDir = s.cacheDir()
	}
	return st
}
