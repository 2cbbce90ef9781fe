package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/standardbeagle/hashsvc/internal/config"
	"github.com/standardbeagle/hashsvc/internal/debug"
	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
	"github.com/standardbeagle/hashsvc/internal/metrics"
	"github.com/standardbeagle/hashsvc/internal/service"
	"github.com/standardbeagle/hashsvc/internal/version"
)

// HashServer exposes a service.Service over HTTP/JSON on a Unix socket
type HashServer struct {
	svc          *service.Service
	cfg          *config.Config
	metrics      *metrics.Collectors
	listener     net.Listener
	server       *http.Server
	startTime    time.Time
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
	forced       atomic.Bool
	socketPath   string // Custom socket path (empty uses cfg.Server.Socket)
}

// NewHashServer creates a server for svc. m may be nil, which disables /metrics.
func NewHashServer(cfg *config.Config, svc *service.Service, m *metrics.Collectors) *HashServer {
	return &HashServer{
		svc:          svc,
		cfg:          cfg,
		metrics:      m,
		startTime:    time.Now(),
		shutdownChan: make(chan struct{}),
	}
}

// SetSocketPath overrides the configured socket path
func (s *HashServer) SetSocketPath(path string) {
	s.socketPath = path
}

// SocketPath returns the socket path this server is using
func (s *HashServer) SocketPath() string {
	if s.socketPath != "" {
		return s.socketPath
	}
	if s.cfg != nil && s.cfg.Server.Socket != "" {
		return s.cfg.Server.Socket
	}
	return config.DefaultSocketPath()
}

// Start begins listening for client connections. The tables are not loaded
// here; the first lookup or an explicit /load does that.
func (s *HashServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.mu.Unlock()

	socketPath := s.SocketPath()
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	// Make socket accessible to user
	os.Chmod(socketPath, 0600)

	s.server = &http.Server{
		Handler: s.Handler(),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			debug.LogRPC("Server error: %v\n", err)
		}
	}()

	debug.LogRPC("Hash server started on %s (pid: %d)\n", socketPath, os.Getpid())
	return nil
}

// Handler returns the routed, panic-guarded handler
func (s *HashServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/load", s.handleLoad)
	mux.HandleFunc("/get", s.handleGet)
	mux.HandleFunc("/unload", s.handleUnload)
	mux.HandleFunc("/add", s.handleAdd)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/shutdown", s.handleShutdown)
	if s.metrics != nil && (s.cfg == nil || s.cfg.Metrics.Enabled) {
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return recoverInternal(mux)
}

// recoverInternal turns a handler panic into a 500. This is the only path
// that reports failure through the HTTP status.
func recoverInternal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				err := svcerrors.NewInternalError(r.URL.Path, fmt.Errorf("%v", p))
				debug.CatastrophicError("%v\n", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched
func decodeBody(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *HashServer) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadHashesRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	debug.LogRPC("load requested\n")
	res := s.svc.Load(r.Context())
	writeJSON(w, LoadHashesResponse{
		Success: res.Success,
		Message: res.Message,
		Count:   res.Count,
		Busy:    res.Busy,
	})
}

func (s *HashServer) handleGet(w http.ResponseWriter, r *http.Request) {
	var req GetStringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	debug.LogRPC("get %016x (%s)\n", req.Hash, req.HashtableType)
	res, err := s.svc.Get(r.Context(), req.HashtableType, req.Hash)
	resp := GetStringResponse{Found: res.Found, Value: res.Value}
	if err != nil {
		resp.Error = err.Error()
		resp.Busy = svcerrors.IsBusy(err)
	}
	writeJSON(w, resp)
}

func (s *HashServer) handleUnload(w http.ResponseWriter, r *http.Request) {
	debug.LogRPC("unload requested\n")
	res := s.svc.Unload(r.Context())
	writeJSON(w, UnloadHashesResponse{Success: res.Success, Message: res.Message})
}

func (s *HashServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddHashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	debug.LogRPC("add %q (%s)\n", req.String, req.HashtableType)
	res := s.svc.Add(r.Context(), req.HashtableType, req.String)
	resp := AddHashResponse{Success: res.Success, Message: res.Message}
	if res.Success {
		resp.Hash = fmt.Sprintf("%016x", res.Hash)
	}
	writeJSON(w, resp)
}

func (s *HashServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.svc.Status()
	writeJSON(w, StatusResponse{
		State:     st.State.String(),
		GameCount: st.GameCount,
		BinCount:  st.BinCount,
		CacheDir:  st.CacheDir,
	})
}

func (s *HashServer) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, PingResponse{
		Uptime:  time.Since(s.startTime).Seconds(),
		Version: version.Version,
		BuildID: version.BuildID(),
	})
}

// handleShutdown replies, then signals Wait
func (s *HashServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	var req ShutdownRequest
	if err := decodeBody(r, &req); err != nil {
		// Allow malformed body
		req = ShutdownRequest{}
	}

	s.forced.Store(req.Force)
	writeJSON(w, ShutdownResponse{Success: true, Message: "Server shutting down"})

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.signalShutdown()
	}()
}

func (s *HashServer) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
}

// Wait blocks until a shutdown request arrives
func (s *HashServer) Wait() {
	<-s.shutdownChan
}

// Done is closed once a shutdown request arrives
func (s *HashServer) Done() <-chan struct{} {
	return s.shutdownChan
}

// Forced reports whether the shutdown request asked for force
func (s *HashServer) Forced() bool {
	return s.forced.Load()
}

// Shutdown stops serving and removes the socket. After a forced shutdown
// request, open connections are closed without waiting for in-flight
// requests.
func (s *HashServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.signalShutdown()

	if s.server != nil {
		if s.forced.Load() {
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("server close error: %w", err)
			}
		} else if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()

	if s.listener != nil {
		s.listener.Close()
	}

	os.Remove(s.SocketPath())

	debug.LogRPC("Hash server shut down cleanly\n")
	return nil
}
