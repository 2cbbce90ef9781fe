package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildID_Stable(t *testing.T) {
	first := BuildID()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, BuildID())
}

func TestFullInfo(t *testing.T) {
	info := FullInfo()
	assert.True(t, strings.HasPrefix(info, "hashsvc "+Version))
	assert.Contains(t, info, GitCommit)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "hashsvc/"+Version, UserAgent())
}
