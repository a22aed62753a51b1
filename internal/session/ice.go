package session

import (
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// suspendGap is the ICE-state-change quiescence that, when followed by
// a drop back to "checking" from a previously connected state, is
// treated as a suspended-device reconnection rather than an ordinary
// ICE restart (the SUSPEND_DETECTED heuristic lib-jitsi-meet uses to
// tell a laptop lid closing apart from a flaky network).
const suspendGap = 1500 * time.Millisecond

// onICECandidate is wired as the peer connection's OnICECandidate
// callback. It filters the candidate by the configured UDP/TCP policy
// and either drips it (useDrip) or sends it immediately. A nil
// candidate marks end-of-gathering; spec.md's open question leaves
// this marker recorded but unacted upon, so it is dropped here too.
func (s *Session) onICECandidate(c *Candidate) {
	if c == nil {
		s.mu.Lock()
		s.lastCandidateSeen = true
		s.mu.Unlock()
		return
	}

	if s.config.WebrtcIceUDPDisable && c.Protocol == "udp" {
		return
	}
	if s.config.WebrtcIceTCPDisable && (c.Protocol == "tcp" || c.Protocol == "ssltcp") {
		return
	}

	s.drip.Add(*c)
}

// onNegotiationNeeded is wired as the peer connection's
// OnNegotiationNeeded callback. The session core never triggers its
// own renegotiations speculatively — every renegotiation here is
// driven by an inbound Jingle stanza — so this is logged only,
// mirroring the teacher's onSignalingStateChanged/onICEGatheringStateChanged
// callbacks that exist purely for diagnostics.
func (s *Session) onNegotiationNeeded() {
	s.logger.Debug("negotiation needed")
}

// onICEConnectionStateChange is wired as the peer connection's
// OnICEConnectionStateChange callback (pion's lowercase ICEConnectionState
// strings: new, checking, connected, completed, disconnected, failed,
// closed).
func (s *Session) onICEConnectionStateChange(state string) {
	now := time.Now()

	s.mu.Lock()
	previous := s.iceState
	gap := now.Sub(s.lastICEStateAt)
	s.iceState = state
	s.lastICEStateAt = now
	s.mu.Unlock()

	s.logger.WithField("state", state).Info("ICE connection state changed")
	s.emit(Notification{Event: EventICEConnectionStateChanged, Detail: state})

	switch state {
	case "checking":
		if (previous == "connected" || previous == "completed") && gap > 0 && gap < suspendGap {
			s.emit(Notification{Event: EventSuspendDetected, Detail: state})
		}
	case "connected", "completed":
		if previous == "disconnected" {
			s.emit(Notification{Event: EventConnectionRestored, Detail: state})
		}
		s.emit(Notification{Event: EventPeerConnectionReady, Detail: state})
	case "disconnected":
		s.emit(Notification{Event: EventConnectionInterrupted, Detail: state})
	case "failed":
		s.emit(Notification{Event: EventConnectionICEFailed, Detail: state})
	}
}

// AddRemoteCandidates handles an inbound transport-info: each
// content's transport candidates are added to the peer connection
// directly (no renegotiation involved), mirroring
// webrtcpc.PeerConnection.AddICECandidate's narrow contract. The
// content's position in the stanza selects its sdpMLineIndex.
func (s *Session) AddRemoteCandidates(contents []jingle.Content) error {
	for idx, content := range contents {
		if content.Transport == nil {
			continue
		}
		for _, cand := range content.Transport.Candidates {
			c := Candidate{
				Candidate:     jingle.RenderCandidate(cand),
				SDPMid:        content.Name,
				SDPMLineIndex: idx,
				Protocol:      cand.Protocol,
			}
			if err := s.pc.AddICECandidate(c); err != nil {
				s.logger.WithError(err).Warn("failed to add remote ICE candidate")
			}
		}
	}
	return nil
}

// flushCandidates is the drip batcher's flush callback: it renders the
// accumulated candidates as a single transport-info stanza, one
// <content><transport> per distinct sdpMLineIndex, each carrying the
// matching media section's DTLS fingerprint and one <candidate> per
// drip entry (spec.md §4.3).
func (s *Session) flushCandidates(batch []Candidate) {
	if len(batch) == 0 {
		return
	}

	builder := jingle.NewBuilder()
	opts := s.emitOptions()
	creator := string(s.Role)

	s.mu.Lock()
	localSDP := s.localSnap
	s.mu.Unlock()

	byMLine := make(map[int][]Candidate)
	order := make([]int, 0, len(batch))
	for _, c := range batch {
		if _, ok := byMLine[c.SDPMLineIndex]; !ok {
			order = append(order, c.SDPMLineIndex)
		}
		byMLine[c.SDPMLineIndex] = append(byMLine[c.SDPMLineIndex], c)
	}

	for _, idx := range order {
		if idx < 0 || idx >= len(localSDP.Media) {
			continue
		}
		media := localSDP.Media[idx]
		mid, _ := jingle.MediaIdentity(media)
		if mid == "" {
			continue
		}

		builder.PopulateTransportFingerprint(mid, creator, media)

		for _, c := range byMLine[idx] {
			line := c.Candidate
			if opts.FailICE {
				line = sdp.FailICERewrite(line)
			}
			if cand, ok := jingle.ParseCandidate(line); ok {
				builder.AddCandidate(mid, creator, cand)
			}
		}
	}

	if builder.Empty() {
		return
	}

	s.sendJingle(jingle.ActionTransportInfo, builder.Contents(), nil)
}
