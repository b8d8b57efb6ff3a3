package lookup

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathLookup(t *testing.T) {
	var l PathLookup
	assert.True(t, l.Exists("sh"))
	assert.True(t, l.Exists("/bin/sh"))
	assert.False(t, l.Exists("gash-no-such-program"))
	assert.False(t, l.Exists(""))
}

func TestWhichLookup(t *testing.T) {
	if _, err := exec.LookPath("which"); err != nil {
		t.Skip("which not installed")
	}
	var l WhichLookup
	assert.True(t, l.Exists("sh"))
	assert.False(t, l.Exists("gash-no-such-program"))
	assert.False(t, l.Exists(""))
}

func TestCachedRemembersHits(t *testing.T) {
	calls := map[string]int{}
	installed := map[string]bool{"ls": true}
	c := NewCached(Func(func(name string) bool {
		calls[name]++
		return installed[name]
	}))

	assert.True(t, c.Exists("ls"))
	assert.True(t, c.Exists("ls"))
	assert.Equal(t, 1, calls["ls"])

	assert.False(t, c.Exists("fresh"))
	installed["fresh"] = true
	assert.True(t, c.Exists("fresh"), "misses are asked again")
	assert.Equal(t, 2, calls["fresh"])
}

func TestForMode(t *testing.T) {
	l, err := ForMode("")
	require.NoError(t, err)
	assert.IsType(t, PathLookup{}, l)

	l, err = ForMode("which")
	require.NoError(t, err)
	assert.IsType(t, WhichLookup{}, l)

	_, err = ForMode("hash")
	assert.Error(t, err)
}
