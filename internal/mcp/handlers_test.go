package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/hashsvc/internal/hashing"
	"github.com/standardbeagle/hashsvc/internal/lifecycle"
	"github.com/standardbeagle/hashsvc/internal/service"
	"github.com/standardbeagle/hashsvc/internal/table"
)

func newTestServer(t *testing.T, loadErr error) *Server {
	t.Helper()
	loader := lifecycle.LoaderFunc(func(ctx context.Context, tables *table.Set) error {
		if loadErr != nil {
			return loadErr
		}
		tables.For(hashing.NamespaceGame).Put(0xa7cf5b14b9b659e0, "data/characters/x/skin33.bin")
		return nil
	})
	return NewServer(service.New(lifecycle.NewManager(loader, nil, nil), nil, nil))
}

func callRequest(t *testing.T, args interface{}) *mcp.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: raw}}
}

func decodeText(t *testing.T, result *mcp.CallToolResult, v interface{}) {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), v))
}

func TestHandleGetString(t *testing.T) {
	s := newTestServer(t, nil)

	for _, hash := range []string{"a7cf5b14b9b659e0", "0xa7cf5b14b9b659e0", "A7CF5B14B9B659E0"} {
		result, err := s.handleGetString(context.Background(), callRequest(t, GetStringParams{Hash: hash, HashtableType: "game"}))
		require.NoError(t, err)
		assert.False(t, result.IsError)

		var out GetStringResult
		decodeText(t, result, &out)
		assert.True(t, out.Found, hash)
		assert.Equal(t, "data/characters/x/skin33.bin", out.Value)
		assert.Equal(t, "a7cf5b14b9b659e0", out.Hash)
	}
}

func TestHandleGetString_InvalidHash(t *testing.T) {
	s := newTestServer(t, nil)

	result, err := s.handleGetString(context.Background(), callRequest(t, GetStringParams{Hash: "zz", HashtableType: "game"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGetString_UnknownNamespaceIsMiss(t *testing.T) {
	s := newTestServer(t, nil)

	result, err := s.handleGetString(context.Background(), callRequest(t, GetStringParams{Hash: "1", HashtableType: "xyz"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out GetStringResult
	decodeText(t, result, &out)
	assert.False(t, out.Found)
}

func TestHandleGetString_LoadFailure(t *testing.T) {
	s := newTestServer(t, errors.New("offline"))

	result, err := s.handleGetString(context.Background(), callRequest(t, GetStringParams{Hash: "1", HashtableType: "game"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var out map[string]interface{}
	decodeText(t, result, &out)
	assert.Contains(t, out["error"], "offline")
}

func TestHandleAddHash(t *testing.T) {
	s := newTestServer(t, nil)

	result, err := s.handleAddHash(context.Background(), callRequest(t, AddHashParams{String: "foo", HashtableType: "bin"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var out MessageResult
	decodeText(t, result, &out)
	assert.True(t, out.Success)

	hash, err := ParseHexHash(out.Hash)
	require.NoError(t, err)
	assert.Equal(t, hashing.Compute(hashing.NamespaceBin, "foo"), hash)

	result, err = s.handleGetString(context.Background(), callRequest(t, GetStringParams{Hash: out.Hash, HashtableType: "bin"}))
	require.NoError(t, err)
	var got GetStringResult
	decodeText(t, result, &got)
	assert.Equal(t, "foo", got.Value)
}

func TestHandleAddHash_UnknownNamespace(t *testing.T) {
	s := newTestServer(t, nil)

	result, err := s.handleAddHash(context.Background(), callRequest(t, AddHashParams{String: "foo", HashtableType: "bins"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleLoadAndUnload(t *testing.T) {
	s := newTestServer(t, nil)

	result, err := s.handleLoadHashes(context.Background(), callRequest(t, struct{}{}))
	require.NoError(t, err)
	var load LoadResult
	decodeText(t, result, &load)
	assert.True(t, load.Success)
	assert.Equal(t, int32(1), load.Count)

	result, err = s.handleStatus(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{}})
	require.NoError(t, err)
	var st StatusResult
	decodeText(t, result, &st)
	assert.Equal(t, "loaded", st.State)
	assert.Equal(t, 1, st.GameCount)

	result, err = s.handleUnloadHashes(context.Background(), callRequest(t, struct{}{}))
	require.NoError(t, err)
	var unload MessageResult
	decodeText(t, result, &unload)
	assert.True(t, unload.Success)

	result, err = s.handleStatus(context.Background(), nil)
	require.NoError(t, err)
	decodeText(t, result, &st)
	assert.Equal(t, "unloaded", st.State)
}

func TestHandleLoad_Failure(t *testing.T) {
	s := newTestServer(t, errors.New("bad digest"))

	result, err := s.handleLoadHashes(context.Background(), callRequest(t, struct{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGuard_RecoversPanic(t *testing.T) {
	h := guard("boom", func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("lock poisoned")
	})

	result, err := h(context.Background(), nil)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal error in boom")
}

func TestParseHexHash(t *testing.T) {
	v, err := ParseHexHash(" 0xFF ")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xff), v)

	_, err = ParseHexHash("0x")
	assert.Error(t, err)
	_, err = ParseHexHash("10000000000000000")
	assert.Error(t, err)
}

func TestNewServer_RegistersTools(t *testing.T) {
	assert.NotPanics(t, func() { NewServer(service.New(lifecycle.NewManager(nil, nil, nil), nil, nil)) })
}

func TestHandleLoadHashes_BusyAsksForRetry(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	loader := lifecycle.LoaderFunc(func(ctx context.Context, tables *table.Set) error {
		close(started)
		<-release
		return nil
	})
	s := NewServer(service.New(lifecycle.NewManager(loader, nil, nil), nil, nil))

	first := callRequest(t, struct{}{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleLoadHashes(context.Background(), first)
	}()
	<-started

	result, err := s.handleLoadHashes(context.Background(), callRequest(t, struct{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	var out map[string]interface{}
	decodeText(t, result, &out)
	assert.Equal(t, true, out["retry"])

	close(release)
	<-done
}
