package session

import (
	"context"
	"fmt"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/telemetry"
)

// renegotiate runs the eight-step offer/answer cycle spec.md §4.6
// describes: set the (possibly overridden) remote description,
// create an answer, apply it locally, tracking ufrag changes at each
// comparison point and failing the cycle if the peer connection closed
// in the meantime. It returns the local description as it was before
// and after the cycle, so the caller can diff SSRCs. Must run inside a
// modqueue task — renegotiate itself does not enqueue.
func (s *Session) renegotiate(remoteOverride *sdp.Snapshot) (oldLocal, newLocal sdp.Snapshot, err error) {
	tel := telemetry.New(context.Background(), "renegotiation")
	defer tel.End()

	s.mu.Lock()
	offer := s.remoteSnap
	s.mu.Unlock()
	if remoteOverride != nil {
		offer = *remoteOverride
	}

	if ufrag, ok := sdp.FindLine(offer.Raw(), "a=ice-ufrag:", ""); ok && ufrag != s.remoteUfrag {
		s.remoteUfrag = ufrag
		s.emit(Notification{Event: EventRemoteUfragChanged, Detail: ufrag})
	}

	tel.AddEvent("setRemoteDescription")
	if err := s.pc.SetRemoteDescription(offer, "offer"); err != nil {
		tel.Fail(err)
		return sdp.Snapshot{}, sdp.Snapshot{}, fmt.Errorf("setRemoteDescription: %w", err)
	}

	tel.AddEvent("createAnswer")
	answer, err := s.pc.CreateAnswer()
	if err != nil {
		tel.Fail(err)
		return sdp.Snapshot{}, sdp.Snapshot{}, fmt.Errorf("createAnswer: %w", err)
	}

	if ufrag, ok := sdp.FindLine(answer.Raw(), "a=ice-ufrag:", ""); ok && ufrag != s.localUfrag {
		s.localUfrag = ufrag
		s.emit(Notification{Event: EventLocalUfragChanged, Detail: ufrag})
	}

	if s.pc.IsClosed() {
		err := fmt.Errorf("renegotiate: peer connection closed")
		tel.Fail(err)
		return sdp.Snapshot{}, sdp.Snapshot{}, err
	}

	tel.AddEvent("setLocalDescription")
	if err := s.pc.SetLocalDescription(answer, "answer"); err != nil {
		tel.Fail(err)
		return sdp.Snapshot{}, sdp.Snapshot{}, fmt.Errorf("setLocalDescription: %w", err)
	}

	s.mu.Lock()
	oldLocal = s.localSnap
	s.remoteSnap = offer
	s.localSnap = answer
	s.mu.Unlock()

	return oldLocal, answer, nil
}

// onJingleFatalError handles a renegotiation that cannot be recovered
// from (spec.md §7): it surfaces CONFERENCE_SETUP_FAILED and
// JINGLE_FATAL_ERROR to the host.
func (s *Session) onJingleFatalError(err error) {
	s.logger.WithError(err).Error("fatal renegotiation failure")
	s.emit(Notification{Event: EventConferenceSetupFailed, Err: err})
	s.emit(Notification{Event: EventJingleFatalError, Err: err})
}
