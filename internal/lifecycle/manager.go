// Package lifecycle drives the Unloaded -> Loading -> Loaded state machine
// that guards the hash tables.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/standardbeagle/hashsvc/internal/debug"
	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/hashing"
	"github.com/standardbeagle/hashsvc/internal/metrics"
	"github.com/standardbeagle/hashsvc/internal/table"
)

// State is the loading state of the tables
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// Loader populates tables. It runs outside the state lock.
type Loader interface {
	Load(ctx context.Context, tables *table.Set) error
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, tables *table.Set) error

func (f LoaderFunc) Load(ctx context.Context, tables *table.Set) error {
	return f(ctx, tables)
}

// Manager owns the tables and the state flag. mu guards only the flag;
// loads run with it released.
type Manager struct {
	mu    sync.Mutex
	state State

	tables  *table.Set
	loader  Loader
	metrics *metrics.Collectors
}

// NewManager creates a Manager in the Unloaded state. m may be nil.
func NewManager(loader Loader, tables *table.Set, m *metrics.Collectors) *Manager {
	if tables == nil {
		tables = table.NewSet()
	}
	return &Manager{
		state:   StateUnloaded,
		tables:  tables,
		loader:  loader,
		metrics: m,
	}
}

// Tables returns the managed tables
func (m *Manager) Tables() *table.Set {
	return m.tables
}

// State returns the current loading state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Counts returns per-namespace entry counts
func (m *Manager) Counts() map[hashing.Namespace]int {
	return m.tables.Counts()
}

// EnsureLoaded returns immediately when Loaded, rejects with a BusyError
// when a load is running, and otherwise performs the load itself.
func (m *Manager) EnsureLoaded(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateLoaded:
		m.mu.Unlock()
		return nil
	case StateLoading:
		m.mu.Unlock()
		return svcerrors.NewBusyError("ensure loaded")
	}
	m.state = StateLoading
	m.mu.Unlock()

	debug.LogLifecycle("tables unloaded, loading on demand\n")
	return m.runLoad(ctx)
}

// ForceLoad reloads regardless of state unless a load is already running.
// Existing entries are kept; ingested entries overwrite them.
func (m *Manager) ForceLoad(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateLoading {
		m.mu.Unlock()
		return svcerrors.NewBusyError("load")
	}
	previous := m.state
	m.state = StateLoading
	m.mu.Unlock()

	debug.LogLifecycle("explicit load requested (was %s)\n", previous)
	return m.runLoad(ctx)
}

// Unload clears both tables and marks the state Unloaded. A load already in
// flight is not cancelled and will set Loaded when it finishes.
func (m *Manager) Unload() {
	m.tables.Clear()

	m.mu.Lock()
	m.state = StateUnloaded
	m.mu.Unlock()

	m.metrics.SetEntries(m.tables.Counts())
	debug.LogLifecycle("tables unloaded\n")
}

func (m *Manager) runLoad(ctx context.Context) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			m.finish(svcerrors.NewInternalError("load", fmt.Errorf("loader panicked: %v", r)))
			panic(r)
		}
		m.metrics.ObserveLoad(err, time.Since(start))
	}()

	err = m.loader.Load(context.WithoutCancel(ctx), m.tables)
	m.finish(err)
	return err
}

func (m *Manager) finish(err error) {
	m.mu.Lock()
	if err != nil {
		m.state = StateUnloaded
	} else {
		m.state = StateLoaded
	}
	m.mu.Unlock()

	counts := m.tables.Counts()
	m.metrics.SetEntries(counts)
	if err != nil {
		debug.LogLifecycle("load failed: %v\n", err)
		return
	}
	debug.LogLifecycle("load complete: %d game, %d bin\n", counts[hashing.NamespaceGame], counts[hashing.NamespaceBin])
}
