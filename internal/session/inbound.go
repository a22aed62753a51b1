package session

import (
	"fmt"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/modqueue"
)

// AcceptOffer handles an inbound session-initiate: it records SSRC
// owners off the offer's sources and converts the offer to SDP, then
// enqueues a task that renegotiates and on success moves the session to
// ACTIVE and transmits session-accept (spec.md §4.6 / scenario S1).
// Unlike source-add/source-remove, this never calls notifyMySSRCUpdate:
// there is no prior local description to diff against, so comparing
// against the zero-value Snapshot would report every one of the
// responder's own brand-new sources as removed.
func (s *Session) AcceptOffer(offer *jingle.Jingle) error {
	if offer == nil {
		return fmt.Errorf("session-initiate carries no jingle payload")
	}

	s.recordSSRCOwners(offer.Contents)
	remote := jingle.FromJingle(offer)

	return s.queue.Submit(modqueue.Task{
		Work: func(done func(error)) {
			_, _, err := s.renegotiate(&remote)
			if err != nil {
				s.onJingleFatalError(err)
				done(err)
				return
			}

			s.setState(StateActive)
			s.sendSessionAccept()
			done(nil)
		},
	})
}

// ReplaceTransport handles an inbound transport-replace: two
// back-to-back renegotiations, first against the offer stripped of
// its data content (forcing SCTP teardown), then against the full
// offer (rebuilding SCTP), followed by a transport-accept carrying
// only transport elements (spec.md §4.6 / scenario S5).
func (s *Session) ReplaceTransport(offer *jingle.Jingle) error {
	if offer == nil {
		return fmt.Errorf("transport-replace carries no jingle payload")
	}

	s.emit(Notification{Event: EventICERestarting})

	full := jingle.FromJingle(offer)
	stripped := jingle.FromJingle(stripDataContent(offer))

	return s.queue.Submit(modqueue.Task{
		Work: func(done func(error)) {
			if _, _, err := s.renegotiate(&stripped); err != nil {
				s.onJingleFatalError(err)
				done(err)
				return
			}

			_, _, err := s.renegotiate(&full)
			if err != nil {
				s.onJingleFatalError(err)
				done(err)
				return
			}

			s.sendTransportAccept()
			done(nil)
		},
	})
}

// RejectTransport refuses an inbound transport-replace: the host calls
// this instead of ReplaceTransport when it decides not to accept the
// new transport (e.g. policy forbids an ICE restart at this point),
// sending transport-reject without touching the peer connection.
func (s *Session) RejectTransport() {
	s.sendTransportReject()
}

// stripDataContent returns a copy of j with its content[name="data"]
// element removed, per the transport-replace protocol's first
// renegotiation pass.
func stripDataContent(j *jingle.Jingle) *jingle.Jingle {
	contents := make([]jingle.Content, 0, len(j.Contents))
	for _, c := range j.Contents {
		if c.Name == "data" {
			continue
		}
		contents = append(contents, c)
	}

	copyOf := *j
	copyOf.Contents = contents
	return &copyOf
}

// AddRemoteStream handles an inbound source-add: if the local
// description isn't ready yet it retries (bounded dirty-wait), then
// records SSRC owners and enqueues a task that appends the new
// sources into the remote SDP, renegotiates, and notifies of any
// resulting local SSRC changes (spec.md §4.6 / scenarios S3, S4).
func (s *Session) AddRemoteStream(contents []jingle.Content) error {
	if s.State() == StatePending {
		if !s.waitForLocalDescription() {
			return fmt.Errorf("source-add: local description not ready after retrying")
		}
	}

	s.recordSSRCOwners(contents)

	return s.queue.Submit(modqueue.Task{
		Work: func(done func(error)) {
			s.mu.Lock()
			base := s.remoteSnap
			s.mu.Unlock()

			newRemote := s.appendSources(base, contents)

			oldLocal, newLocal, err := s.renegotiate(&newRemote)
			if err != nil {
				s.onJingleFatalError(err)
				done(err)
				return
			}

			s.notifyMySSRCUpdate(oldLocal, newLocal)
			done(nil)
		},
	})
}

// RemoveRemoteStream handles an inbound source-remove: symmetric to
// AddRemoteStream, stripping the named sources/groups from the
// remote SDP media sections before renegotiating.
func (s *Session) RemoveRemoteStream(contents []jingle.Content) error {
	s.recordSSRCOwners(contents)

	return s.queue.Submit(modqueue.Task{
		Work: func(done func(error)) {
			s.mu.Lock()
			base := s.remoteSnap
			s.mu.Unlock()

			newRemote := s.removeSources(base, contents)

			oldLocal, newLocal, err := s.renegotiate(&newRemote)
			if err != nil {
				s.onJingleFatalError(err)
				done(err)
				return
			}

			s.notifyMySSRCUpdate(oldLocal, newLocal)
			done(nil)
		},
	})
}

// onRemoteTerminate handles an inbound session-terminate: the session
// moves to ENDED and releases the peer connection. room is left to the
// caller (the owning conference detaches the SSRC table itself via
// Close), mirroring the teacher's dead onCallEnded reference
// (spec.md §9 design note, mirrored as-is).
func (s *Session) onRemoteTerminate() {
	s.logger.WithField("ssrcs", s.ssrcTable.SSRCs()).Debug("releasing known ssrcs on remote terminate")

	s.setState(StateEnded)
	if err := s.pc.Close(); err != nil {
		s.logger.WithError(err).Warn("failed to close peer connection on remote terminate")
	}
}
