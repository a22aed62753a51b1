package session

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/stanzaerr"
)

var stanzaIDSeq uint64

func nextStanzaID() string {
	return "sc" + stanzaIDSuffix(atomic.AddUint64(&stanzaIDSeq, 1))
}

func stanzaIDSuffix(n uint64) string {
	const digits = "0123456789"
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n%10]
		n /= 10
	}
	return string(buf[i:])
}

// sendJingle builds and transmits an IQ carrying a <jingle action="…">
// with the given contents, invoking onError (if non-nil) on a stanza
// error or timeout via the Error Adapter (C7).
func (s *Session) sendJingle(action string, contents []jingle.Content, onError func(error)) {
	iq := &jingle.IQ{
		From: s.Me,
		To:   s.PeerJID,
		ID:   nextStanzaID(),
		Type: "set",
		Jingle: &jingle.Jingle{
			Action: action,
			SID:    s.SID,
		},
	}
	if action == jingle.ActionSessionInitiate || s.Role == RoleInitiator {
		iq.Jingle.Initiator = s.Me
	} else {
		iq.Jingle.Responder = s.Me
	}
	iq.Jingle.Contents = contents

	s.transport.SendIQ(iq, s.iqTimeout(), nil, func(err error) {
		if onError != nil {
			onError(err)
		}
	})
}

func (s *Session) iqTimeout() time.Duration {
	if s.config.IQTimeout > 0 {
		return s.config.IQTimeout
	}
	return 10 * time.Second
}

// sendSessionAccept renders the current local description as Jingle
// under action=session-accept. A timeout is elevated to a host event
// (spec.md §4.6 outbound operations).
func (s *Session) sendSessionAccept() {
	builder := jingleBuilderFor(s.localSnap, string(s.Role), s.emitOptions())
	s.sendJingle(jingle.ActionSessionAccept, builder.Contents(), func(err error) {
		s.logger.WithError(err).Warn("session-accept failed or timed out")
		if errors.Is(err, stanzaerr.ErrTimeout) {
			s.emit(Notification{Event: EventSessionAcceptTimeout, Err: err})
		}
	})
}

// sendTransportAccept renders only the transport sections (no
// descriptions) of the current local description.
func (s *Session) sendTransportAccept() {
	builder := jingleTransportBuilderFor(s.localSnap, string(s.Role), s.emitOptions())
	s.sendJingle(jingle.ActionTransportAccept, builder.Contents(), nil)
}

// sendTransportReject sends an empty action stanza refusing a
// transport-replace.
func (s *Session) sendTransportReject() {
	s.sendJingle(jingle.ActionTransportReject, nil, nil)
}

// Terminate ends the session locally: marks ENDED and sends
// session-terminate with reason/text, best-effort (failures do not
// resurrect the session).
func (s *Session) Terminate(reason, text string) {
	s.setState(StateEnded)

	iq := &jingle.IQ{
		From: s.Me,
		To:   s.PeerJID,
		ID:   nextStanzaID(),
		Type: "set",
		Jingle: &jingle.Jingle{
			Action: jingle.ActionSessionTerminate,
			SID:    s.SID,
			Reason: &jingle.Reason{Condition: reason, Text: text},
		},
	}

	s.transport.SendIQ(iq, s.iqTimeout(), nil, func(err error) {
		s.logger.WithError(err).Debug("session-terminate failed or timed out (best-effort)")
	})
}

