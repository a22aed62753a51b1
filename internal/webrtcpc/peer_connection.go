package webrtcpc

import (
	"fmt"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/session"
	"github.com/pion/webrtc/v3"
)

// PeerConnection adapts a *webrtc.PeerConnection to the session core's
// narrow PeerConnection capability, mirroring the callback wiring of
// the teacher's pkg/peer.Peer[ID] (onICECandidateGathered,
// onNegotiationNeeded, onICEConnectionStateChanged) but reporting
// through plain callbacks instead of a MessageSink, since this
// session core has exactly one observer (the owning session) rather
// than a fan-out of conference subscribers.
type PeerConnection struct {
	pc *webrtc.PeerConnection
}

var _ session.PeerConnection = (*PeerConnection)(nil)

func sdpType(s string) webrtc.SDPType {
	switch s {
	case "answer":
		return webrtc.SDPTypeAnswer
	case "pranswer":
		return webrtc.SDPTypePranswer
	case "rollback":
		return webrtc.SDPTypeRollback
	default:
		return webrtc.SDPTypeOffer
	}
}

func (p *PeerConnection) SetRemoteDescription(offer sdp.Snapshot, typ string) error {
	err := p.pc.SetRemoteDescription(webrtc.SessionDescription{Type: sdpType(typ), SDP: offer.Raw()})
	if err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}
	return nil
}

func (p *PeerConnection) CreateAnswer() (sdp.Snapshot, error) {
	// Deliberately does not call SetLocalDescription itself: the
	// renegotiation protocol inspects the answer's ufrag between
	// CreateAnswer and SetLocalDescription (spec.md §4.6 steps 6-7).
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return sdp.Snapshot{}, fmt.Errorf("failed to create answer: %w", err)
	}

	return sdp.Parse(answer.SDP), nil
}

func (p *PeerConnection) SetLocalDescription(answer sdp.Snapshot, typ string) error {
	err := p.pc.SetLocalDescription(webrtc.SessionDescription{Type: sdpType(typ), SDP: answer.Raw()})
	if err != nil {
		return fmt.Errorf("failed to set local description: %w", err)
	}
	return nil
}

func (p *PeerConnection) AddICECandidate(c session.Candidate) error {
	mid := c.SDPMid
	idx := uint16(c.SDPMLineIndex)

	err := p.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        &mid,
		SDPMLineIndex: &idx,
	})
	if err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}
	return nil
}

func (p *PeerConnection) Close() error {
	if err := p.pc.Close(); err != nil {
		return fmt.Errorf("failed to close peer connection: %w", err)
	}
	return nil
}

// IsClosed reports whether pion has already moved the connection to
// PeerConnectionStateClosed, e.g. torn down out-of-band while a
// renegotiation cycle is in flight.
func (p *PeerConnection) IsClosed() bool {
	return p.pc.ConnectionState() == webrtc.PeerConnectionStateClosed
}

func (p *PeerConnection) OnICECandidate(cb func(*session.Candidate)) {
	p.pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			cb(nil)
			return
		}

		init := candidate.ToJSON()

		var mid string
		if init.SDPMid != nil {
			mid = *init.SDPMid
		}

		var idx int
		if init.SDPMLineIndex != nil {
			idx = int(*init.SDPMLineIndex)
		}

		cb(&session.Candidate{
			Candidate:     init.Candidate,
			SDPMid:        mid,
			SDPMLineIndex: idx,
			Protocol:      candidate.Protocol.String(),
		})
	})
}

func (p *PeerConnection) OnNegotiationNeeded(cb func()) {
	p.pc.OnNegotiationNeeded(cb)
}

func (p *PeerConnection) OnICEConnectionStateChange(cb func(state string)) {
	p.pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		cb(state.String())
	})
}
