package ssrctable_test

import (
	"testing"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/ssrctable"
	"github.com/stretchr/testify/require"
)

func TestSetGetOwner(t *testing.T) {
	table := ssrctable.New()

	_, ok := table.GetSSRCOwner(111)
	require.False(t, ok)

	table.SetSSRCOwner(111, "alice")
	owner, ok := table.GetSSRCOwner(111)
	require.True(t, ok)
	require.Equal(t, "alice", owner)
}

func TestLaterWriteOverwrites(t *testing.T) {
	table := ssrctable.New()
	table.SetSSRCOwner(111, "alice")
	table.SetSSRCOwner(111, "bob")

	owner, ok := table.GetSSRCOwner(111)
	require.True(t, ok)
	require.Equal(t, "bob", owner)
}
