package session

import (
	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// emitOptions derives the codec's candidate-filtering options from
// this session's configuration (spec.md §4.2's toJingle/
// transportToJingle candidate filtering, driven by
// webrtcIceTcpDisable/webrtcIceUdpDisable/failICE).
func (s *Session) emitOptions() jingle.EmitOptions {
	return jingle.EmitOptions{
		RemoveTCPCandidates: s.config.WebrtcIceTCPDisable,
		RemoveUDPCandidates: s.config.WebrtcIceUDPDisable,
		FailICE:             s.config.FailICE,
	}
}

func jingleBuilderFor(snap sdp.Snapshot, role string, opts jingle.EmitOptions) *jingle.Builder {
	return jingle.ToJingle(snap, role, opts)
}

func jingleTransportBuilderFor(snap sdp.Snapshot, role string, opts jingle.EmitOptions) *jingle.Builder {
	return jingle.TransportToJingle(snap, role, opts)
}
