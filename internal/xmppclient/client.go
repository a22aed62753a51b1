// Package xmppclient is a minimal XMPP IQ stanza transport: the
// reference implementation of the signalling-transport capability the
// session core depends on. It plays the same role the teacher's
// pkg/signaling.MatrixSignaling/MatrixForConference play for Matrix
// to-device messages, adapted from Matrix's fire-and-forget
// send-to-device shape to XMPP's correlated request/response IQ shape
// (every outbound IQ eventually gets a result, an error, or times out).
package xmppclient

import (
	"encoding/xml"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/stanzaerr"
	"github.com/sirupsen/logrus"
)

// Sender is the narrow capability the session core actually depends
// on: send one IQ, get notified of the matching result/error/timeout.
// Mirrors the teacher's MatrixSignaling interface — the session talks
// to this interface, never to *Client directly.
type Sender interface {
	SendIQ(iq *jingle.IQ, timeout time.Duration, onResult func(*jingle.IQ), onError func(error))
}

type pendingIQ struct {
	onResult func(*jingle.IQ)
	onError  func(error)
	timer    *time.Timer
	raw      string
}

// Client writes IQ stanzas to an underlying connection and correlates
// inbound result/error IQs back to the pending request by stanza ID.
type Client struct {
	conn    io.Writer
	logger  *logrus.Entry
	idSeq   uint64
	mu      sync.Mutex
	pending map[string]*pendingIQ
}

// New wraps conn (a live XMPP stream writer) as a Client.
func New(conn io.Writer, logger *logrus.Entry) *Client {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]*pendingIQ),
	}
}

// SendIQ assigns iq an ID if it doesn't have one, writes it to the
// connection, and arranges for exactly one of onResult/onError to be
// called: onResult when a matching result IQ arrives, onError
// (wrapping stanzaerr.ErrTimeout) if timeout elapses first with no
// matching reply.
func (c *Client) SendIQ(iq *jingle.IQ, timeout time.Duration, onResult func(*jingle.IQ), onError func(error)) {
	if iq.ID == "" {
		iq.ID = c.nextID()
	}

	raw, err := xml.Marshal(iq)
	if err != nil {
		c.logger.WithError(err).Error("failed to marshal outbound IQ")
		if onError != nil {
			onError(fmt.Errorf("marshal outbound IQ: %w", err))
		}
		return
	}

	entry := &pendingIQ{onResult: onResult, onError: onError, raw: string(raw)}
	entry.timer = time.AfterFunc(timeout, func() { c.expire(iq.ID) })

	c.mu.Lock()
	c.pending[iq.ID] = entry
	c.mu.Unlock()

	if _, err := c.conn.Write(raw); err != nil {
		c.logger.WithFields(logrus.Fields{"id": iq.ID}).WithError(err).Error("failed to write IQ")
		c.takePending(iq.ID) // stop the timer; the caller's onError fires below.
		if onError != nil {
			onError(fmt.Errorf("write outbound IQ: %w", err))
		}
	}
}

// Deliver feeds an inbound IQ (already parsed from the stream) to the
// client. If it correlates with a pending SendIQ by ID and carries a
// result/error type, the matching callback fires and true is returned.
// Otherwise Deliver is a no-op returning false — the caller should
// route the IQ to session.Session.HandleIQ as an unsolicited request.
func (c *Client) Deliver(iq *jingle.IQ) bool {
	if iq.Type != "result" && iq.Type != "error" {
		return false
	}

	entry := c.takePending(iq.ID)
	if entry == nil {
		return false
	}

	if iq.Type == "error" {
		if entry.onError != nil {
			if se := stanzaerr.FromResponse(entry.raw, iq.ID, iq); se != nil {
				entry.onError(se)
			} else {
				entry.onError(fmt.Errorf("malformed stanza error for IQ %s", iq.ID))
			}
		}
	} else if entry.onResult != nil {
		entry.onResult(iq)
	}

	return true
}

func (c *Client) expire(id string) {
	entry := c.takePending(id)
	if entry == nil {
		return
	}
	if entry.onError != nil {
		entry.onError(stanzaerr.FromResponse(entry.raw, id, nil))
	}
}

func (c *Client) takePending(id string) *pendingIQ {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	entry.timer.Stop()
	return entry
}

func (c *Client) nextID() string {
	n := atomic.AddUint64(&c.idSeq, 1)
	return fmt.Sprintf("sc%d", n)
}
