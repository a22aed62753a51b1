package jingle_test

import (
	"testing"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/stretchr/testify/require"
)

func sampleOffer() *jingle.Jingle {
	return &jingle.Jingle{
		Action:    jingle.ActionSessionInitiate,
		Initiator: "focus@conference.example/focus",
		SID:       "abc123",
		Contents: []jingle.Content{
			{
				Creator: "initiator",
				Name:    "audio",
				Senders: "both",
				Description: &jingle.RTPDescription{
					Media: "audio",
					PayloadTypes: []jingle.PayloadType{
						{ID: 111, Name: "opus", Clockrate: 48000, Channels: 2},
					},
					Sources: []jingle.Source{
						{SSRC: 111, Parameters: []jingle.SourceParameter{{Name: "cname", Value: "stream1"}}},
					},
				},
				Transport: &jingle.ICEUDPTransport{
					Ufrag: "abcd",
					Pwd:   "ppppppppppppppppppppppp",
					Fingerprint: &jingle.Fingerprint{
						Hash: "sha-256", Setup: "actpass", Value: "AA:BB:CC", Required: true,
					},
					Candidates: []jingle.Candidate{
						{Foundation: "1", Component: 1, Protocol: "udp", Priority: 2130706431, IP: "10.0.0.1", Port: 9, Type: "host"},
						{Foundation: "2", Component: 1, Protocol: "tcp", Priority: 2105524479, IP: "10.0.0.1", Port: 9, Type: "host"},
					},
				},
			},
			{
				Creator: "initiator",
				Name:    "video",
				Senders: "both",
				Description: &jingle.RTPDescription{
					Media: "video",
					PayloadTypes: []jingle.PayloadType{
						{ID: 100, Name: "VP8", Clockrate: 90000},
					},
					Sources: []jingle.Source{
						{SSRC: 222, Parameters: []jingle.SourceParameter{{Name: "cname", Value: "stream1"}}},
						{SSRC: 223, Parameters: []jingle.SourceParameter{{Name: "cname", Value: "stream1"}}},
					},
					SSRCGroups: []jingle.SSRCGroup{
						{Semantics: "FID", Sources: []jingle.SSRCGroupSource{{SSRC: 222}, {SSRC: 223}}},
					},
				},
				Transport: &jingle.ICEUDPTransport{Ufrag: "abcd", Pwd: "ppppppppppppppppppppppp"},
			},
		},
	}
}

func TestFromJingleToJingleRoundTrip(t *testing.T) {
	offer := sampleOffer()
	snap := jingle.FromJingle(offer)
	require.Len(t, snap.Media, 2)
	require.Contains(t, snap.Media[0], "a=ssrc:111 cname:stream1")
	require.Contains(t, snap.Media[1], "a=ssrc-group:FID 222 223")

	builder := jingle.ToJingle(snap, "initiator", jingle.EmitOptions{})
	contents := builder.Contents()
	require.Len(t, contents, 2)

	byName := map[string]jingle.Content{}
	for _, c := range contents {
		byName[c.Name] = c
	}

	audio := byName["audio"]
	require.Equal(t, "both", audio.Senders)
	require.Len(t, audio.Description.PayloadTypes, 1)
	require.Equal(t, "opus", audio.Description.PayloadTypes[0].Name)
	require.Equal(t, 48000, audio.Description.PayloadTypes[0].Clockrate)
	require.Equal(t, uint32(111), audio.Description.Sources[0].SSRC)
	require.Equal(t, "abcd", audio.Transport.Ufrag)
	require.Len(t, audio.Transport.Candidates, 2)

	video := byName["video"]
	require.Len(t, video.Description.SSRCGroups, 1)
	require.Equal(t, "FID", video.Description.SSRCGroups[0].Semantics)
}

func TestToJingleFiltersTCPCandidates(t *testing.T) {
	offer := sampleOffer()
	snap := jingle.FromJingle(offer)

	builder := jingle.ToJingle(snap, "initiator", jingle.EmitOptions{RemoveTCPCandidates: true})
	contents := builder.Contents()

	var audio jingle.Content
	for _, c := range contents {
		if c.Name == "audio" {
			audio = c
		}
	}

	for _, cand := range audio.Transport.Candidates {
		require.NotEqual(t, "tcp", cand.Protocol)
		require.NotEqual(t, "ssltcp", cand.Protocol)
	}
}

func TestToJingleFailICERewritesIP(t *testing.T) {
	offer := sampleOffer()
	snap := jingle.FromJingle(offer)

	builder := jingle.ToJingle(snap, "initiator", jingle.EmitOptions{FailICE: true})
	for _, c := range builder.Contents() {
		if c.Transport == nil {
			continue
		}
		for _, cand := range c.Transport.Candidates {
			require.Equal(t, "1.1.1.1", cand.IP)
		}
	}
}

func TestTransportToJingleOmitsDescription(t *testing.T) {
	offer := sampleOffer()
	snap := jingle.FromJingle(offer)

	builder := jingle.TransportToJingle(snap, "responder", jingle.EmitOptions{})
	for _, c := range builder.Contents() {
		require.Nil(t, c.Description)
		require.NotNil(t, c.Transport)
	}
}
