package xmppclient_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/stanzaerr"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/xmppclient"
	"github.com/stretchr/testify/require"
)

func TestSendIQDeliversResult(t *testing.T) {
	var buf bytes.Buffer
	c := xmppclient.New(&buf, nil)

	var gotResult *jingle.IQ
	c.SendIQ(&jingle.IQ{Type: "set", ID: "req1"}, time.Second,
		func(iq *jingle.IQ) { gotResult = iq },
		func(error) { t.Fatal("onError should not fire") },
	)
	require.NotEmpty(t, buf.String())

	delivered := c.Deliver(&jingle.IQ{Type: "result", ID: "req1"})
	require.True(t, delivered)
	require.NotNil(t, gotResult)
}

func TestSendIQTimesOut(t *testing.T) {
	var buf bytes.Buffer
	c := xmppclient.New(&buf, nil)

	done := make(chan error, 1)
	c.SendIQ(&jingle.IQ{Type: "set", ID: "req2"}, 10*time.Millisecond,
		func(*jingle.IQ) { t.Fatal("onResult should not fire") },
		func(err error) { done <- err },
	)

	select {
	case err := <-done:
		require.ErrorIs(t, err, stanzaerr.ErrTimeout)
	case <-time.After(time.Second):
		t.Fatal("timeout callback never fired")
	}
}

func TestDeliverIgnoresUnsolicitedIQ(t *testing.T) {
	var buf bytes.Buffer
	c := xmppclient.New(&buf, nil)

	delivered := c.Deliver(&jingle.IQ{Type: "set", ID: "unrelated"})
	require.False(t, delivered)
}

func TestSendIQAssignsIDWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	c := xmppclient.New(&buf, nil)

	iq := &jingle.IQ{Type: "set"}
	c.SendIQ(iq, time.Second, func(*jingle.IQ) {}, func(error) {})
	require.NotEmpty(t, iq.ID)
}
