// Package stanzaerr adapts XMPP IQ error responses (and timeouts) into
// a uniform error record (the Error Adapter, C7 in spec.md §4.7):
// { code, reason, source, session }. It follows the teacher's
// sentinel-error style from pkg/peer.ErrCantCreatePeerConnection et
// al.: a small set of named errors callers can test with errors.Is,
// with the condition/text preserved on the concrete *Error for
// logging.
package stanzaerr

import (
	"errors"
	"fmt"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
)

// Sentinel reasons a caller can match with errors.Is. An unrecognized
// stanza-error condition still produces an *Error, wrapping ErrUnknown
// instead.
var (
	ErrTimeout               = errors.New("timeout")
	ErrBadRequest            = errors.New("bad-request")
	ErrConflict              = errors.New("conflict")
	ErrFeatureNotImplemented = errors.New("feature-not-implemented")
	ErrItemNotFound          = errors.New("item-not-found")
	ErrNotAcceptable         = errors.New("not-acceptable")
	ErrNotAllowed            = errors.New("not-allowed")
	ErrServiceUnavailable    = errors.New("service-unavailable")
	ErrUnknown               = errors.New("unknown stanza error")
)

var reasonSentinels = map[string]error{
	"bad-request":             ErrBadRequest,
	"conflict":                ErrConflict,
	"feature-not-implemented": ErrFeatureNotImplemented,
	"item-not-found":          ErrItemNotFound,
	"not-acceptable":          ErrNotAcceptable,
	"not-allowed":             ErrNotAllowed,
	"service-unavailable":     ErrServiceUnavailable,
}

// Error is the uniform error record spec.md §4.7 names: Code is the
// <error code="…"> attribute (empty if absent), Reason is "timeout" or
// the tag name of the first child of <error>, Source is the serialized
// request stanza that triggered the failure, and Session identifies
// the session the request belonged to.
type Error struct {
	Code    string
	Reason  string
	Source  string
	Session string

	sentinel error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stanza error %q (code %s)", e.Reason, e.Code)
	}
	return fmt.Sprintf("stanza error %q", e.Reason)
}

// Unwrap lets errors.Is(err, stanzaerr.ErrConflict)/errors.Is(err,
// stanzaerr.ErrTimeout) match.
func (e *Error) Unwrap() error {
	return e.sentinel
}

// FromResponse builds the error record for one outbound IQ.
//
// response == nil means the request's timeout elapsed with no reply:
// Reason is "timeout". Otherwise, if response carries a stanza
// <error/>, Reason is its condition (the first child's tag name) and
// Code its code attribute. If response is a plain result (no error),
// FromResponse returns nil — the call succeeded.
func FromResponse(requestSource, sessionID string, response *jingle.IQ) *Error {
	if response == nil {
		return &Error{
			Reason:   "timeout",
			Source:   requestSource,
			Session:  sessionID,
			sentinel: ErrTimeout,
		}
	}

	if response.Type != "error" || response.Error == nil {
		return nil
	}

	sentinel, ok := reasonSentinels[response.Error.Condition]
	if !ok {
		sentinel = ErrUnknown
	}

	return &Error{
		Code:     response.Error.Code,
		Reason:   response.Error.Condition,
		Source:   requestSource,
		Session:  sessionID,
		sentinel: sentinel,
	}
}
