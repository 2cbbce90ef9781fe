// Package table holds the in-memory hash -> string mappings, one per namespace.
package table

import (
	"sync"

	"github.com/standardbeagle/hashsvc/internal/hashing"
)

// Entry is a single hash -> original string mapping
type Entry struct {
	Hash  uint64
	Value string
}

// Table is a concurrency-safe hash -> string map. Readers share the lock,
// writers take it exclusively. Last write wins on a repeated hash.
type Table struct {
	mu      sync.RWMutex
	entries map[uint64]string
}

// New creates an empty table
func New() *Table {
	return &Table{entries: make(map[uint64]string)}
}

// Get returns the value stored for hash
func (t *Table) Get(hash uint64) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.entries[hash]
	return v, ok
}

// Put inserts or overwrites a single entry
func (t *Table) Put(hash uint64, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[hash] = value
}

// PutBatch inserts entries in order under a single write lock
func (t *Table) PutBatch(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range entries {
		t.entries[e.Hash] = e.Value
	}
}

// Len returns the number of entries
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Clear drops every entry. The backing map is replaced rather than emptied so
// its buckets are released to the garbage collector.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[uint64]string)
}

// Set owns one Table per namespace
type Set struct {
	game *Table
	bin  *Table
}

// NewSet creates empty tables for every namespace
func NewSet() *Set {
	return &Set{game: New(), bin: New()}
}

// For returns the table backing ns
func (s *Set) For(ns hashing.Namespace) *Table {
	if ns == hashing.NamespaceBin {
		return s.bin
	}
	return s.game
}

// Counts returns the entry count per namespace
func (s *Set) Counts() map[hashing.Namespace]int {
	return map[hashing.Namespace]int{
		hashing.NamespaceGame: s.game.Len(),
		hashing.NamespaceBin:  s.bin.Len(),
	}
}

// Len returns the total entry count across namespaces
func (s *Set) Len() int {
	return s.game.Len() + s.bin.Len()
}

// Clear empties every table
func (s *Set) Clear() {
	s.game.Clear()
	s.bin.Clear()
}
