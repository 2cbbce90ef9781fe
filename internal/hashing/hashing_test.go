package hashing

import (
	"errors"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcerrors "github.com/standardbeagle/hashsvc/internal/errors"
)

// referenceFNV1a32 is the textbook byte loop, kept independent of hash/fnv
func referenceFNV1a32(s string) uint32 {
	h := uint32(0x811C9DC5)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 0x01000193
	}
	return h
}

func TestFNV1a32_KnownVectors(t *testing.T) {
	assert.Equal(t, uint32(0x811C9DC5), FNV1a32(""), "empty string must hash to the offset basis")
	assert.Equal(t, uint32(0xE40C292C), FNV1a32("a"))
	assert.Equal(t, uint32(0xBF9CF968), FNV1a32("foobar"))
}

func TestCompute_Bin(t *testing.T) {
	got := Compute(NamespaceBin, "Quit")
	assert.Equal(t, uint64(referenceFNV1a32("quit")), got)
	assert.Zero(t, got>>32, "bin hashes are zero-extended 32-bit values")

	assert.Equal(t, uint64(0x811C9DC5), Compute(NamespaceBin, ""))
}

func TestCompute_Game(t *testing.T) {
	path := "Data/Characters/SRU_ES_BannerPlatform_Order/Skins/Skin33.bin"
	assert.Equal(t, xxhash.Sum64String("data/characters/sru_es_bannerplatform_order/skins/skin33.bin"), Compute(NamespaceGame, path))
	assert.Equal(t, uint64(0xEF46DB3751D8E999), Compute(NamespaceGame, ""), "xxh64 of empty input with seed 0")
}

func TestCompute_CaseInsensitive(t *testing.T) {
	for _, ns := range Namespaces {
		assert.Equal(t, Compute(ns, "foo/BAR.bin"), Compute(ns, "FOO/bar.BIN"), "namespace %s", ns)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	inputs := []string{"", "foo", "Quit", "data/characters/x/skin33.bin", "ünïcödé"}
	for _, ns := range Namespaces {
		for _, in := range inputs {
			first := Compute(ns, in)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, Compute(ns, in), "namespace %s input %q", ns, in)
			}
		}
	}
}

func TestParseNamespace(t *testing.T) {
	ns, err := ParseNamespace("game")
	require.NoError(t, err)
	assert.Equal(t, NamespaceGame, ns)

	ns, err = ParseNamespace("bin")
	require.NoError(t, err)
	assert.Equal(t, NamespaceBin, ns)

	assert.Equal(t, "game", NamespaceGame.String())
	assert.Equal(t, "bin", NamespaceBin.String())
}

func TestParseNamespace_Unknown(t *testing.T) {
	tests := []struct {
		input      string
		suggestion string
	}{
		{"gmae", "game"},
		{"GAME", "game"},
		{"bins", "bin"},
		{"xyz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseNamespace(tt.input)
			require.Error(t, err)

			var nsErr *svcerrors.NamespaceError
			require.True(t, errors.As(err, &nsErr))
			assert.Equal(t, tt.input, nsErr.Value)
			assert.Equal(t, tt.suggestion, nsErr.Suggestion)
		})
	}
}
