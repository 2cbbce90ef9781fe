package table

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/hashsvc/internal/hashing"
)

func TestTable_PutGet(t *testing.T) {
	tbl := New()

	_, ok := tbl.Get(1)
	assert.False(t, ok)

	tbl.Put(1, "one")
	v, ok := tbl.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "one", v)

	tbl.Put(1, "uno")
	v, _ = tbl.Get(1)
	assert.Equal(t, "uno", v, "last write wins")
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_PutBatchOrder(t *testing.T) {
	tbl := New()
	tbl.PutBatch([]Entry{
		{Hash: 7, Value: "first"},
		{Hash: 8, Value: "other"},
		{Hash: 7, Value: "second"},
	})

	v, _ := tbl.Get(7)
	assert.Equal(t, "second", v)
	assert.Equal(t, 2, tbl.Len())

	tbl.PutBatch(nil)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_Clear(t *testing.T) {
	tbl := New()
	for i := uint64(0); i < 100; i++ {
		tbl.Put(i, fmt.Sprintf("v%d", i))
	}
	tbl.Clear()

	assert.Equal(t, 0, tbl.Len())
	_, ok := tbl.Get(5)
	assert.False(t, ok)

	tbl.Put(5, "back")
	v, ok := tbl.Get(5)
	assert.True(t, ok)
	assert.Equal(t, "back", v)
}

func TestTable_ConcurrentAccess(t *testing.T) {
	tbl := New()
	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				tbl.Put(uint64(w*1000+i), "x")
				tbl.Get(uint64(i))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8*500, tbl.Len())
}

func TestSet_NamespacesAreDisjoint(t *testing.T) {
	set := NewSet()
	set.For(hashing.NamespaceGame).Put(42, "game-value")
	set.For(hashing.NamespaceBin).Put(42, "bin-value")

	v, _ := set.For(hashing.NamespaceGame).Get(42)
	assert.Equal(t, "game-value", v)
	v, _ = set.For(hashing.NamespaceBin).Get(42)
	assert.Equal(t, "bin-value", v)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, map[hashing.Namespace]int{
		hashing.NamespaceGame: 1,
		hashing.NamespaceBin:  1,
	}, set.Counts())

	set.Clear()
	assert.Equal(t, 0, set.Len())
}
