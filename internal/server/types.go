package server

// RPC request/response types for client-server communication

// LoadHashesRequest has no fields; the body may be empty
type LoadHashesRequest struct{}

type LoadHashesResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int32  `json:"count"`
	Busy    bool   `json:"busy,omitempty"`
}

type GetStringRequest struct {
	Hash          uint64 `json:"hash"`
	HashtableType string `json:"hashtable_type"`
}

// GetStringResponse carries load failures in Error rather than as an HTTP
// status. Busy is set when the failure is a load already in progress.
type GetStringResponse struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
	Busy  bool   `json:"busy,omitempty"`
}

type UnloadHashesRequest struct{}

type UnloadHashesResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AddHashRequest struct {
	String        string `json:"string"`
	HashtableType string `json:"hashtable_type"`
}

type AddHashResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Hash    string `json:"hash,omitempty"` // hex, set on success
}

// StatusResponse reports the table lifecycle without triggering a load
type StatusResponse struct {
	State     string `json:"state"`
	GameCount int    `json:"game_count"`
	BinCount  int    `json:"bin_count"`
	CacheDir  string `json:"cache_dir,omitempty"`
}

// ShutdownRequest requests server shutdown
type ShutdownRequest struct {
	Force bool `json:"force,omitempty"`
}

// ShutdownResponse confirms shutdown
type ShutdownResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PingResponse is the health check reply
type PingResponse struct {
	Uptime  float64 `json:"uptime_seconds"`
	Version string  `json:"version"`
	BuildID string  `json:"build_id"`
}
