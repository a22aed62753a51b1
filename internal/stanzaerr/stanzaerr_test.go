package stanzaerr_test

import (
	"errors"
	"testing"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/stanzaerr"
	"github.com/stretchr/testify/require"
)

func TestFromResponseTimeout(t *testing.T) {
	err := stanzaerr.FromResponse("<iq .../>", "sess1", nil)
	require.NotNil(t, err)
	require.ErrorIs(t, err, stanzaerr.ErrTimeout)
	require.Equal(t, "timeout", err.Reason)
	require.Equal(t, "sess1", err.Session)
}

func TestFromResponsePlainResult(t *testing.T) {
	err := stanzaerr.FromResponse("<iq .../>", "sess1", &jingle.IQ{Type: "result"})
	require.Nil(t, err)
}

func TestFromResponseKnownCondition(t *testing.T) {
	iq := &jingle.IQ{
		Type:  "error",
		Error: &jingle.StanzaError{Condition: "conflict", Code: "409"},
	}
	err := stanzaerr.FromResponse("<iq .../>", "sess1", iq)
	require.NotNil(t, err)
	require.ErrorIs(t, err, stanzaerr.ErrConflict)

	var se *stanzaerr.Error
	require.True(t, errors.As(err, &se))
	require.Equal(t, "409", se.Code)
	require.Equal(t, "conflict", se.Reason)
}

func TestFromResponseUnknownCondition(t *testing.T) {
	iq := &jingle.IQ{
		Type:  "error",
		Error: &jingle.StanzaError{Condition: "resource-constraint"},
	}
	err := stanzaerr.FromResponse("<iq .../>", "sess1", iq)
	require.ErrorIs(t, err, stanzaerr.ErrUnknown)
}
