package session

import (
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// Candidate is one local or remote ICE candidate, carrying just enough
// to both set it on the peer connection and serialize it to Jingle.
type Candidate struct {
	Candidate     string
	SDPMid        string
	SDPMLineIndex int
	Protocol      string
}

// PeerConnection is the narrow view of the local WebRTC peer
// connection the session core depends on — never the concrete
// pion/webrtc type. Spec.md §1 calls the peer connection an external
// collaborator "modelled only by its interface"; internal/webrtcpc
// ships the reference pion-backed implementation.
type PeerConnection interface {
	SetRemoteDescription(offer sdp.Snapshot, sdpType string) error
	CreateAnswer() (sdp.Snapshot, error)
	SetLocalDescription(answer sdp.Snapshot, sdpType string) error
	AddICECandidate(c Candidate) error
	Close() error

	// IsClosed reports whether the underlying connection has already
	// entered the closed state, e.g. torn down out-of-band while a
	// renegotiation cycle is in flight.
	IsClosed() bool

	// OnICECandidate registers the callback invoked once per gathered
	// local candidate; a nil candidate signals gathering completion.
	OnICECandidate(func(c *Candidate))
	OnNegotiationNeeded(func())
	OnICEConnectionStateChange(func(state string))
}

// SignallingTransport is the narrow view of the XMPP IQ transport the
// session core depends on. internal/xmppclient.Client satisfies this
// structurally.
type SignallingTransport interface {
	SendIQ(iq *jingle.IQ, timeout time.Duration, onResult func(*jingle.IQ), onError func(error))
}

// Event names one of the host-observable events spec.md §6 lists; the
// enclosing conference subscribes to these through an EventSink.
type Event string

const (
	EventICEConnectionStateChanged Event = "ICE_CONNECTION_STATE_CHANGED"
	EventConnectionRestored        Event = "CONNECTION_RESTORED"
	EventConnectionInterrupted     Event = "CONNECTION_INTERRUPTED"
	EventConnectionICEFailed       Event = "CONNECTION_ICE_FAILED"
	EventSuspendDetected           Event = "SUSPEND_DETECTED"
	EventPeerConnectionReady       Event = "PEERCONNECTION_READY"
	EventICERestarting             Event = "ICE_RESTARTING"
	EventSessionAcceptTimeout      Event = "SESSION_ACCEPT_TIMEOUT"
	EventRemoteUfragChanged        Event = "REMOTE_UFRAG_CHANGED"
	EventLocalUfragChanged         Event = "LOCAL_UFRAG_CHANGED"
	EventConferenceSetupFailed     Event = "CONFERENCE_SETUP_FAILED"
	EventJingleFatalError          Event = "JINGLE_FATAL_ERROR"
)

// Notification bundles an Event with the detail that goes with it
// (e.g. the new ICE state string, or the error behind a fatal event).
type Notification struct {
	Event   Event
	Detail  string
	Err     error
}

// EventSink receives host-observable notifications. The enclosing
// conference supplies one; a nil sink is valid and simply drops
// notifications, matching the teacher's tolerance for a nil/absent
// enclosing room in pkg/conference/participant.Tracker.
type EventSink func(Notification)

func (s EventSink) emit(n Notification) {
	if s != nil {
		s(n)
	}
}
