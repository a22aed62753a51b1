// Package differ computes the set of source and source-group
// additions/removals between two SDP snapshots, per media section, and
// renders them as Jingle source-add/source-remove payloads.
//
// Two Differ calls are made per local renegotiation cycle:
// differ.New(oldLocal, newLocal).ToJingle(removeBuilder, creator) for
// source-remove, and differ.New(newLocal, oldLocal).ToJingle(addBuilder,
// creator) for source-add. Either side may come back empty; only
// non-empty diffs should be sent on the wire.
package differ

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
	"golang.org/x/exp/slices"
)

// Differ computes, for each media-section index, the sources and
// ssrc-groups present in A but absent from B. Membership is keyed by
// (mediaIndex, ssrc) for sources and (mediaIndex, semantics,
// sorted(ssrcs)) for groups, matching the multiset keys spec.md §3
// defines for the source set per media section.
type Differ struct {
	a, b sdp.Snapshot
}

// New constructs a Differ over two snapshots.
func New(a, b sdp.Snapshot) *Differ {
	return &Differ{a: a, b: b}
}

// ToJingle appends, for every media section where A has sources or
// groups that B lacks, a <content name="..."><description> carrying
// those sources/groups, using creator as the content's creator
// attribute. It returns true iff anything was appended.
func (d *Differ) ToJingle(builder *jingle.Builder, creator string) bool {
	emitted := false

	for i, mediaA := range d.a.Media {
		var mediaB string
		if i < len(d.b.Media) {
			mediaB = d.b.Media[i]
		}

		name, kind := jingle.MediaIdentity(mediaA)

		bSources := jingle.ParseSources(mediaB)
		for _, src := range jingle.ParseSources(mediaA) {
			present := slices.ContainsFunc(bSources, func(b jingle.Source) bool {
				return b.SSRC == src.SSRC
			})
			if present {
				continue
			}
			builder.AddSource(name, creator, kind, src)
			emitted = true
		}

		bGroups := jingle.ParseSSRCGroups(mediaB)
		for _, grp := range jingle.ParseSSRCGroups(mediaA) {
			key := groupKey(grp)
			present := slices.ContainsFunc(bGroups, func(b jingle.SSRCGroup) bool {
				return groupKey(b) == key
			})
			if present {
				continue
			}
			builder.AddSSRCGroup(name, creator, kind, grp)
			emitted = true
		}
	}

	return emitted
}

func groupKey(g jingle.SSRCGroup) string {
	ssrcs := make([]string, 0, len(g.Sources))
	for _, s := range g.Sources {
		ssrcs = append(ssrcs, strconv.FormatUint(uint64(s.SSRC), 10))
	}
	sort.Strings(ssrcs)
	return g.Semantics + "|" + strings.Join(ssrcs, ",")
}
