// Package session implements the Session State Machine (C6 in
// spec.md): the component that owns one Jingle session's lifecycle,
// driving its local peer connection through the offer/answer cycle
// and translating between inbound/outbound Jingle stanzas and SDP.
//
// Session's exported methods that mutate session state (AcceptOffer,
// ReplaceTransport, AddRemoteStream, RemoveRemoteStream, Terminate,
// Close) must only be called from the single goroutine that owns the
// session, mirroring the teacher's Conference.processMessages
// single-owner-goroutine discipline. ICE candidate delivery, ICE state
// changes and the drip flush run on their own goroutines; they read and
// write session fields only under the session mutex, and the drip flush
// sends its transport-info stanza straight through the signalling
// transport rather than through the modification queue.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/drip"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/modqueue"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/ssrctable"
	"github.com/sirupsen/logrus"
)

// State is one of the session's three lifecycle states.
type State int

const (
	StatePending State = iota
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateActive:
		return "ACTIVE"
	case StateEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Role is this local party's Jingle role for the session.
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// Session tracks one Jingle session against one peer connection.
type Session struct {
	SID     string
	Me      string
	PeerJID string
	Role    Role

	config    Config
	logger    *logrus.Entry
	pc        PeerConnection
	transport SignallingTransport
	events    EventSink

	ssrcTable *ssrctable.Table
	queue     *modqueue.Queue
	drip      *drip.Batcher[Candidate]

	mu          sync.Mutex
	state       State
	localSnap   sdp.Snapshot
	remoteSnap  sdp.Snapshot
	localUfrag  string
	remoteUfrag string

	lastCandidateSeen bool

	iceState       string
	lastICEStateAt time.Time
}

// New constructs a Session in state PENDING and wires the peer
// connection's callbacks. room may be nil (no enclosing conference, as
// in unit tests); events may be nil to drop all notifications.
func New(
	cfg Config,
	sid, me, peerJID string,
	role Role,
	pc PeerConnection,
	transport SignallingTransport,
	room ssrctable.AttachDetacher,
	events EventSink,
	logger *logrus.Entry,
) *Session {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	logger = logger.WithFields(logrus.Fields{"sid": sid, "peerjid": peerJID})

	s := &Session{
		SID:       sid,
		Me:        me,
		PeerJID:   peerJID,
		Role:      role,
		config:    cfg,
		logger:    logger,
		pc:        pc,
		transport: transport,
		events:    events,
		ssrcTable: ssrctable.New(),
		queue:     modqueue.New(),
		state:     StatePending,
	}

	s.ssrcTable.Attach(room)

	dripWindow := time.Duration(0)
	if cfg.UseDrip {
		dripWindow = cfg.DripFlush
	}
	s.drip = drip.New(dripWindow, s.flushCandidates)

	pc.OnICECandidate(s.onICECandidate)
	pc.OnNegotiationNeeded(s.onNegotiationNeeded)
	pc.OnICEConnectionStateChange(s.onICEConnectionStateChange)

	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) emit(n Notification) {
	s.events.emit(n)
}

// Close marks the session ENDED, detaches the SSRC table from the
// room, and closes the peer connection unless it is already closed.
// Idempotent (spec.md Property 8): a repeated call closes nothing and
// sends nothing, though it does hand the table to room's
// DetachSSRCTable again.
func (s *Session) Close(room ssrctable.AttachDetacher) {
	s.setState(StateEnded)

	s.drip.Close()
	s.ssrcTable.Detach(room)

	if s.pc.IsClosed() {
		return
	}
	if err := s.pc.Close(); err != nil {
		s.logger.WithError(err).Warn("failed to close peer connection")
	}
}

// HandleIQ dispatches an inbound Jingle IQ by its jingle action,
// mirroring the teacher's event.Type-keyed dispatch in
// pkg/conference/matrix_message_processor.go.
func (s *Session) HandleIQ(iq *jingle.IQ) error {
	if iq.Jingle == nil {
		return fmt.Errorf("IQ %s carries no jingle element", iq.ID)
	}

	switch iq.Jingle.Action {
	case jingle.ActionSessionInitiate:
		return s.AcceptOffer(iq.Jingle)
	case jingle.ActionTransportReplace:
		return s.ReplaceTransport(iq.Jingle)
	case jingle.ActionSourceAdd:
		return s.AddRemoteStream(iq.Jingle.Contents)
	case jingle.ActionSourceRemove:
		return s.RemoveRemoteStream(iq.Jingle.Contents)
	case jingle.ActionTransportInfo:
		return s.AddRemoteCandidates(iq.Jingle.Contents)
	case jingle.ActionSessionTerminate:
		s.onRemoteTerminate()
		return nil
	default:
		return fmt.Errorf("unhandled jingle action %q", iq.Jingle.Action)
	}
}
