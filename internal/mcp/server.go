package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/hashsvc/internal/debug"
	"github.com/standardbeagle/hashsvc/internal/service"
	"github.com/standardbeagle/hashsvc/internal/version"
)

// Server exposes the lookup service as MCP tools over stdio
type Server struct {
	svc    *service.Service
	server *mcp.Server
}

// NewServer registers every tool against svc
func NewServer(svc *service.Service) *Server {
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "hashsvc-mcp-server",
			Version: version.Version,
		}, nil),
	}
	s.registerTools()
	return s
}

func namespaceSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Hashtable to use: 'game' (xxhash64 of lowercased WAD paths) or 'bin' (fnv1a32 of lowercased bin entry names)",
		Enum:        []any{"game", "bin"},
	}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "load_hashes",
		Description: "Sync hashtables from the remote source and load them into memory. Returns per-table counts.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, guard("load_hashes", s.handleLoadHashes))

	s.server.AddTool(&mcp.Tool{
		Name:        "get_string",
		Description: "Resolve a hash to the string that produced it. Loads the hashtables on first use.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"hash": {
					Type:        "string",
					Description: "Hash as hex, with or without 0x (e.g. 'a7cf5b14b9b659e0')",
				},
				"hashtable_type": namespaceSchema(),
			},
			Required: []string{"hash", "hashtable_type"},
		},
	}, guard("get_string", s.handleGetString))

	s.server.AddTool(&mcp.Tool{
		Name:        "unload_hashes",
		Description: "Drop all loaded hashes from memory. The next lookup reloads them.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, guard("unload_hashes", s.handleUnloadHashes))

	s.server.AddTool(&mcp.Tool{
		Name:        "add_hash",
		Description: "Hash a string with the table's algorithm and insert it. Not persisted across restarts.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"string": {
					Type:        "string",
					Description: "Original string, e.g. 'data/characters/x/skin33.bin'",
				},
				"hashtable_type": namespaceSchema(),
			},
			Required: []string{"string", "hashtable_type"},
		},
	}, guard("add_hash", s.handleAddHash))

	s.server.AddTool(&mcp.Tool{
		Name:        "hash_status",
		Description: "Report load state and entry counts without triggering a load.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, guard("hash_status", s.handleStatus))
}

// Start serves MCP on stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	debug.LogMCP("Starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
