package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
)

type GetStringParams struct {
	Hash          string `json:"hash"`
	HashtableType string `json:"hashtable_type"`
}

type AddHashParams struct {
	String        string `json:"string"`
	HashtableType string `json:"hashtable_type"`
}

type GetStringResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
	Hash  string `json:"hash"`
}

type LoadResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int32  `json:"count"`
}

type MessageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Hash    string `json:"hash,omitempty"`
}

type StatusResult struct {
	State     string `json:"state"`
	GameCount int    `json:"game_count"`
	BinCount  int    `json:"bin_count"`
	CacheDir  string `json:"cache_dir,omitempty"`
}

// ParseHexHash accepts a hex hash with an optional 0x prefix
func ParseHexHash(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, errors.New("hash is empty")
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex hash %q: %w", s, err)
	}
	return v, nil
}

func unmarshalArgs(req *mcp.CallToolRequest, v interface{}) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

func (s *Server) handleLoadHashes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.Load(ctx)
	out := LoadResult{Success: res.Success, Message: res.Message, Count: res.Count}
	if res.Busy {
		return createErrorResponse("load_hashes", svcerrors.NewBusyError("load"))
	}
	if !res.Success {
		return createErrorResponse("load_hashes", errors.New(res.Message))
	}
	return createJSONResponse(out)
}

func (s *Server) handleGetString(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p GetStringParams
	if err := unmarshalArgs(req, &p); err != nil {
		return createErrorResponse("get_string", fmt.Errorf("invalid parameters: %w", err))
	}

	hash, err := ParseHexHash(p.Hash)
	if err != nil {
		return createErrorResponse("get_string", err)
	}

	res, err := s.svc.Get(ctx, p.HashtableType, hash)
	if err != nil {
		return createErrorResponse("get_string", err)
	}
	return createJSONResponse(GetStringResult{
		Found: res.Found,
		Value: res.Value,
		Hash:  fmt.Sprintf("%016x", hash),
	})
}

func (s *Server) handleUnloadHashes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.Unload(ctx)
	return createJSONResponse(MessageResult{Success: res.Success, Message: res.Message})
}

func (s *Server) handleAddHash(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p AddHashParams
	if err := unmarshalArgs(req, &p); err != nil {
		return createErrorResponse("add_hash", fmt.Errorf("invalid parameters: %w", err))
	}

	res := s.svc.Add(ctx, p.HashtableType, p.String)
	if !res.Success {
		return createErrorResponse("add_hash", errors.New(res.Message))
	}
	return createJSONResponse(MessageResult{
		Success: true,
		Message: res.Message,
		Hash:    fmt.Sprintf("%016x", res.Hash),
	})
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.svc.Status()
	return createJSONResponse(StatusResult{
		State:     st.State.String(),
		GameCount: st.GameCount,
		BinCount:  st.BinCount,
		CacheDir:  st.CacheDir,
	})
}
