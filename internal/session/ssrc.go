package session

import (
	"github.com/jitsi-contrib/jingle-sessioncore/internal/differ"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// recordSSRCOwners reads the ssrc-info[owner] extension off every
// <source> in contents and records it in the SSRC table, the
// readSsrcInfo step spec.md §3/§4.6 names.
func (s *Session) recordSSRCOwners(contents []jingle.Content) {
	for _, content := range contents {
		if content.Description == nil {
			continue
		}
		for _, src := range content.Description.Sources {
			if src.Owner != nil && src.Owner.Owner != "" {
				s.ssrcTable.SetSSRCOwner(src.SSRC, src.Owner.Owner)
			}
		}
	}
}

// notifyMySSRCUpdate diffs the local description before/after a
// renegotiation and sends source-add/source-remove for whatever
// changed. Skipped entirely outside ACTIVE (spec.md Property 6).
func (s *Session) notifyMySSRCUpdate(oldLocal, newLocal sdp.Snapshot) {
	if s.State() != StateActive {
		return
	}

	creator := string(s.Role)

	removeBuilder := jingle.NewBuilder()
	if differ.New(oldLocal, newLocal).ToJingle(removeBuilder, creator) {
		s.sendJingle(jingle.ActionSourceRemove, removeBuilder.Contents(), nil)
	}

	addBuilder := jingle.NewBuilder()
	if differ.New(newLocal, oldLocal).ToJingle(addBuilder, creator) {
		s.sendJingle(jingle.ActionSourceAdd, addBuilder.Contents(), nil)
	}
}
