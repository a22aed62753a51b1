package differ_test

import (
	"testing"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/differ"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
	"github.com/stretchr/testify/require"
)

func snapshotWithVideoSSRCs(ssrcs ...uint32) sdp.Snapshot {
	var lines string
	lines += "m=video 9 UDP/TLS/RTP/SAVPF 100\r\na=mid:video\r\n"
	for _, s := range ssrcs {
		lines += "a=ssrc:" + itoa(s) + " cname:x\r\n"
	}
	return sdp.Snapshot{Session: "v=0\r\n", Media: []string{lines}}
}

func itoa(u uint32) string {
	const digits = "0123456789"
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = digits[u%10]
		u /= 10
	}
	return string(buf[i:])
}

func TestDifferAdditions(t *testing.T) {
	oldSnap := snapshotWithVideoSSRCs(111)
	newSnap := snapshotWithVideoSSRCs(111, 222)

	builder := jingle.NewBuilder()
	emitted := differ.New(newSnap, oldSnap).ToJingle(builder, "responder")
	require.True(t, emitted)

	contents := builder.Contents()
	require.Len(t, contents, 1)
	require.Len(t, contents[0].Description.Sources, 1)
	require.Equal(t, uint32(222), contents[0].Description.Sources[0].SSRC)
}

func TestDifferRemovals(t *testing.T) {
	oldSnap := snapshotWithVideoSSRCs(111, 222)
	newSnap := snapshotWithVideoSSRCs(111)

	builder := jingle.NewBuilder()
	emitted := differ.New(newSnap, oldSnap).ToJingle(builder, "responder")
	require.False(t, emitted)

	builder2 := jingle.NewBuilder()
	emitted2 := differ.New(oldSnap, newSnap).ToJingle(builder2, "responder")
	require.True(t, emitted2)
	require.Equal(t, uint32(222), builder2.Contents()[0].Description.Sources[0].SSRC)
}

func TestDifferIdempotent(t *testing.T) {
	snap := snapshotWithVideoSSRCs(111, 222)

	builder := jingle.NewBuilder()
	emitted := differ.New(snap, snap).ToJingle(builder, "responder")
	require.False(t, emitted)
	require.True(t, builder.Empty())
}

func TestDifferSymmetricDifference(t *testing.T) {
	a := snapshotWithVideoSSRCs(111, 222)
	bSnap := snapshotWithVideoSSRCs(222, 333)

	removeBuilder := jingle.NewBuilder()
	differ.New(a, bSnap).ToJingle(removeBuilder, "responder")
	addBuilder := jingle.NewBuilder()
	differ.New(bSnap, a).ToJingle(addBuilder, "responder")

	var removed, added []uint32
	for _, src := range removeBuilder.Contents()[0].Description.Sources {
		removed = append(removed, src.SSRC)
	}
	for _, src := range addBuilder.Contents()[0].Description.Sources {
		added = append(added, src.SSRC)
	}

	require.ElementsMatch(t, []uint32{111}, removed)
	require.ElementsMatch(t, []uint32{333}, added)
}
