package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/session"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/stanzaerr"
	"github.com/stretchr/testify/require"
)

// fakePC is a minimal session.PeerConnection double: CreateAnswer
// simply echoes the remote description back, which is enough to
// exercise the renegotiation cycle without a real WebRTC stack.
type fakePC struct {
	mu     sync.Mutex
	remote sdp.Snapshot
	local  sdp.Snapshot
	closed bool

	onCandidate func(*session.Candidate)
	onNegotiate func()
	onICEState  func(string)
}

func (p *fakePC) SetRemoteDescription(offer sdp.Snapshot, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remote = offer
	return nil
}

func (p *fakePC) CreateAnswer() (sdp.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remote, nil
}

func (p *fakePC) SetLocalDescription(answer sdp.Snapshot, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.local = answer
	return nil
}

func (p *fakePC) AddICECandidate(session.Candidate) error { return nil }

func (p *fakePC) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePC) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePC) OnICECandidate(cb func(*session.Candidate)) { p.onCandidate = cb }
func (p *fakePC) OnNegotiationNeeded(cb func())               { p.onNegotiate = cb }
func (p *fakePC) OnICEConnectionStateChange(cb func(string))   { p.onICEState = cb }

// fakeTransport records every sent IQ and, unless held, answers
// synchronously with an empty result so the renegotiation task driving
// it completes without needing a real XMPP connection.
type fakeTransport struct {
	mu   sync.Mutex
	sent []*jingle.IQ
	hold bool
}

func (t *fakeTransport) SendIQ(iq *jingle.IQ, timeout time.Duration, onResult func(*jingle.IQ), onError func(error)) {
	t.mu.Lock()
	t.sent = append(t.sent, iq)
	hold := t.hold
	t.mu.Unlock()

	if hold {
		if onError != nil {
			time.AfterFunc(timeout, func() {
				onError(stanzaerr.FromResponse(iq.ID, iq.ID, nil))
			})
		}
		return
	}
	if onResult != nil {
		onResult(&jingle.IQ{Type: "result", ID: iq.ID})
	}
}

func (t *fakeTransport) sentActions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	actions := make([]string, 0, len(t.sent))
	for _, iq := range t.sent {
		if iq.Jingle != nil {
			actions = append(actions, iq.Jingle.Action)
		}
	}
	return actions
}

func (t *fakeTransport) last() *jingle.IQ {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sent) == 0 {
		return nil
	}
	return t.sent[len(t.sent)-1]
}

func sampleOffer() *jingle.Jingle {
	return &jingle.Jingle{
		Action:    jingle.ActionSessionInitiate,
		Initiator: "peer@example.com/focus",
		SID:       "sid1",
		Contents: []jingle.Content{
			{
				Creator: "initiator",
				Name:    "audio",
				Description: &jingle.RTPDescription{
					Media: "audio",
					Sources: []jingle.Source{
						{SSRC: 111, Owner: &jingle.SSRCInfo{Owner: "peerA"}},
					},
				},
				Transport: &jingle.ICEUDPTransport{Ufrag: "ufrag1", Pwd: "pwd1"},
			},
			{
				Creator: "initiator",
				Name:    "video",
				Description: &jingle.RTPDescription{
					Media: "video",
					Sources: []jingle.Source{
						{SSRC: 222, Owner: &jingle.SSRCInfo{Owner: "peerA"}},
						{SSRC: 223, Owner: &jingle.SSRCInfo{Owner: "peerA"}},
					},
					SSRCGroups: []jingle.SSRCGroup{
						{Semantics: "FID", Sources: []jingle.SSRCGroupSource{{SSRC: 222}, {SSRC: 223}}},
					},
				},
				Transport: &jingle.ICEUDPTransport{Ufrag: "ufrag1", Pwd: "pwd1"},
			},
		},
	}
}

func newTestSession(t *testing.T, cfg session.Config, pc *fakePC, transport *fakeTransport) *session.Session {
	t.Helper()
	return session.New(cfg, "sid1", "me@example.com", "peer@example.com/focus", session.RoleResponder, pc, transport, nil, nil, nil)
}

// S1: accept offer moves the session to ACTIVE, sends a session-accept
// mirroring the offer's contents, and records SSRC owners.
func TestAcceptOfferEntersActiveAndSendsSessionAccept(t *testing.T) {
	pc := &fakePC{}
	transport := &fakeTransport{}
	s := newTestSession(t, session.DefaultConfig(), pc, transport)

	require.NoError(t, s.AcceptOffer(sampleOffer()))

	require.Eventually(t, func() bool {
		return s.State() == session.StateActive
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, a := range transport.sentActions() {
			if a == jingle.ActionSessionAccept {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	accept := transport.last()
	require.NotNil(t, accept.Jingle)
	require.Len(t, accept.Jingle.Contents, 2)

	time.Sleep(20 * time.Millisecond)
	for _, a := range transport.sentActions() {
		require.NotEqual(t, jingle.ActionSourceRemove, a)
		require.NotEqual(t, jingle.ActionSourceAdd, a)
	}
}

// S4: re-sending a duplicate source-add must not change the remote
// SDP nor emit an outbound source-add (the duplicate SSRC is skipped).
func TestAddRemoteStreamDuplicateSSRCIsSkipped(t *testing.T) {
	pc := &fakePC{}
	transport := &fakeTransport{}
	s := newTestSession(t, session.DefaultConfig(), pc, transport)

	require.NoError(t, s.AcceptOffer(sampleOffer()))
	require.Eventually(t, func() bool { return s.State() == session.StateActive }, time.Second, 5*time.Millisecond)

	duplicate := []jingle.Content{
		{
			Creator: "initiator",
			Name:    "audio",
			Description: &jingle.RTPDescription{
				Media:   "audio",
				Sources: []jingle.Source{{SSRC: 111}},
			},
		},
	}

	before := len(transport.sentActions())
	require.NoError(t, s.AddRemoteStream(duplicate))

	require.Eventually(t, func() bool {
		return len(transport.sentActions()) >= before
	}, time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	for _, a := range transport.sentActions()[before:] {
		require.NotEqual(t, jingle.ActionSourceAdd, a)
	}
}

// S5: transport-replace runs two renegotiations and finishes with a
// transport-accept.
func TestReplaceTransportSendsTransportAccept(t *testing.T) {
	pc := &fakePC{}
	transport := &fakeTransport{}
	s := newTestSession(t, session.DefaultConfig(), pc, transport)

	require.NoError(t, s.AcceptOffer(sampleOffer()))
	require.Eventually(t, func() bool { return s.State() == session.StateActive }, time.Second, 5*time.Millisecond)

	offer := sampleOffer()
	offer.Action = jingle.ActionTransportReplace
	offer.Contents = append(offer.Contents, jingle.Content{
		Creator:   "initiator",
		Name:      "data",
		Transport: &jingle.ICEUDPTransport{Ufrag: "ufrag2", Pwd: "pwd2"},
	})

	require.NoError(t, s.ReplaceTransport(offer))

	require.Eventually(t, func() bool {
		for _, a := range transport.sentActions() {
			if a == jingle.ActionTransportAccept {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

// S6: if the transport never responds, the session-accept callback
// surfaces a timeout and the host receives SESSION_ACCEPT_TIMEOUT.
func TestAcceptOfferTimeoutEmitsSessionAcceptTimeout(t *testing.T) {
	pc := &fakePC{}
	transport := &fakeTransport{hold: true}

	cfg := session.DefaultConfig()
	cfg.IQTimeout = 10 * time.Millisecond

	var mu sync.Mutex
	var gotEvent session.Event

	events := func(n session.Notification) {
		mu.Lock()
		defer mu.Unlock()
		gotEvent = n.Event
	}

	s := session.New(cfg, "sid1", "me@example.com", "peer@example.com/focus", session.RoleResponder, pc, transport, nil, events, nil)

	require.NoError(t, s.AcceptOffer(sampleOffer()))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotEvent == session.EventSessionAcceptTimeout
	}, time.Second, 5*time.Millisecond)
}

// Property 8: Close is idempotent.
func TestCloseIsIdempotent(t *testing.T) {
	pc := &fakePC{}
	transport := &fakeTransport{}
	s := newTestSession(t, session.DefaultConfig(), pc, transport)

	s.Close(nil)
	s.Close(nil)

	require.Equal(t, session.StateEnded, s.State())
	require.True(t, pc.closed)
}
