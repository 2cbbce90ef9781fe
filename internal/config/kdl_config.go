package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// parseKDL reads a .hashsvc.kdl document over the defaults:
//
//	server { socket "/tmp/hashsvc.sock" }
//	cache { dir "/var/cache/hashsvc" }
//	remote {
//	    user_agent "my-tool/1.0"
//	    timeout_sec 120
//	    sources "https://..." "https://..."
//	}
//	ingest { workers 4; game_pattern "*.game.*" }
//	metrics { enabled false }
func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "server":
			for _, cn := range n.Children {
				assignSimpleString(cn, "socket", func(v string) { cfg.Server.Socket = v })
			}
		case "cache":
			for _, cn := range n.Children {
				assignSimpleString(cn, "dir", func(v string) { cfg.Cache.Dir = v })
			}
		case "remote":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "user_agent":
					if s, ok := firstStringArg(cn); ok {
						cfg.Remote.UserAgent = s
					}
				case "timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Remote.TimeoutSec = v
					}
				case "sources":
					if sources := collectStringArgs(cn); len(sources) > 0 {
						cfg.Remote.Sources = sources
					}
				}
			}
		case "ingest":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "game_pattern":
					if s, ok := firstStringArg(cn); ok {
						cfg.Ingest.GamePattern = s
					}
				case "bin_pattern":
					if s, ok := firstStringArg(cn); ok {
						cfg.Ingest.BinPattern = s
					}
				case "digest_suffix":
					if s, ok := firstStringArg(cn); ok {
						cfg.Ingest.DigestSuffix = s
					}
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Ingest.Workers = v
					}
				}
			}
		case "metrics":
			for _, cn := range n.Children {
				if nodeName(cn) == "enabled" {
					if b, ok := firstBoolArg(cn); ok {
						cfg.Metrics.Enabled = b
					}
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs accepts both `sources "a" "b"` and the block form
// `sources { "a"; "b" }` where each child node's name is the value.
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
