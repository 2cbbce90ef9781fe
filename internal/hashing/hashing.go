// Package hashing resolves hashtable namespaces and computes the per-namespace
// hash used as the lookup key for newly inserted strings.
package hashing

import (
	"hash/fnv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/hbollon/go-edlib"

	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
)

// Namespace identifies one of the two disjoint hashtables
type Namespace uint8

const (
	NamespaceGame Namespace = iota
	NamespaceBin
)

// Namespaces lists every valid namespace in wire order
var Namespaces = []Namespace{NamespaceGame, NamespaceBin}

// suggestionThreshold is the minimum Levenshtein similarity for a "did you mean" hint
const suggestionThreshold = 0.5

// String returns the wire name of the namespace
func (n Namespace) String() string {
	switch n {
	case NamespaceGame:
		return "game"
	case NamespaceBin:
		return "bin"
	default:
		return "unknown"
	}
}

// ParseNamespace resolves a wire name. Unknown names return a *NamespaceError
// carrying the closest valid name when one is similar enough.
func ParseNamespace(name string) (Namespace, error) {
	switch name {
	case "game":
		return NamespaceGame, nil
	case "bin":
		return NamespaceBin, nil
	}
	return 0, svcerrors.NewNamespaceError(name, suggest(name))
}

func suggest(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return ""
	}

	best := ""
	var bestScore float32
	for _, ns := range Namespaces {
		score, err := edlib.StringsSimilarity(lowered, ns.String(), edlib.Levenshtein)
		if err != nil {
			continue
		}
		if score > bestScore {
			best, bestScore = ns.String(), score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}

// Compute returns the lookup key for input in namespace ns. Both algorithms
// hash the lowercased input.
func Compute(ns Namespace, input string) uint64 {
	lowered := strings.ToLower(input)
	switch ns {
	case NamespaceBin:
		return uint64(FNV1a32(lowered))
	default:
		return xxhash.Sum64String(lowered)
	}
}

// FNV1a32 computes the 32-bit FNV-1a hash (offset basis 0x811C9DC5, prime 0x01000193)
func FNV1a32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
