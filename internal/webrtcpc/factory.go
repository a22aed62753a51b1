// Package webrtcpc is the reference pion/webrtc-backed implementation
// of the session core's PeerConnection capability, mirroring the
// teacher's pkg/webrtc_ext (factory + config) and pkg/peer (the
// wrapper + its callback wiring) adapted from the teacher's
// conference-scoped multi-peer SFU shape to this module's
// one-peer-connection-per-session shape.
package webrtcpc

import (
	"fmt"

	"github.com/pion/webrtc/v3"
)

// Factory constructs peer connections pre-configured the same way for
// every session in the process (codec set, ICE network-type filters,
// NAT rewriting), exactly as the teacher's PeerConnectionFactory wraps
// a single *webrtc.API built once at startup.
type Factory struct {
	api    *webrtc.API
	config Config
}

// NewFactory builds the pion API (media engine + setting engine) once,
// from config.
func NewFactory(config Config) (*Factory, error) {
	mediaEngine, err := newMediaEngine(config.PreferH264)
	if err != nil {
		return nil, fmt.Errorf("failed to build media engine: %w", err)
	}

	settingEngine, err := newSettingEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build setting engine: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithSettingEngine(settingEngine),
	)

	return &Factory{api: api, config: config}, nil
}

// NewPeerConnection creates a fresh pion peer connection and wraps it
// as the session.PeerConnection capability.
func (f *Factory) NewPeerConnection() (*PeerConnection, error) {
	pc, err := f.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	return &PeerConnection{pc: pc}, nil
}

func newMediaEngine(preferH264 bool) (*webrtc.MediaEngine, error) {
	m := &webrtc.MediaEngine{}

	if !preferH264 {
		if err := m.RegisterDefaultCodecs(); err != nil {
			return nil, err
		}
		return m, nil
	}

	// PreferH264 registers video codecs with H264 first instead of
	// calling RegisterDefaultCodecs (which lists VP8 first), so
	// endpoints that negotiate by listed order settle on H264.
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2,
		},
		PayloadType: 111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}

	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType: webrtc.MimeTypeH264, ClockRate: 90000,
			SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f",
		},
		PayloadType: 102,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, err
	}

	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		PayloadType:        96,
	}, webrtc.RTPCodecTypeVideo); err != nil {
		return nil, err
	}

	return m, nil
}

func newSettingEngine(config Config) (webrtc.SettingEngine, error) {
	s := webrtc.SettingEngine{}

	var networkTypes []webrtc.NetworkType
	if !config.ICEUDPDisable {
		networkTypes = append(networkTypes, webrtc.NetworkTypeUDP4, webrtc.NetworkTypeUDP6)
	}
	if !config.ICETCPDisable {
		networkTypes = append(networkTypes, webrtc.NetworkTypeTCP4, webrtc.NetworkTypeTCP6)
	}
	s.SetNetworkTypes(networkTypes)

	if config.PublicIP != "" {
		s.SetNAT1To1IPs([]string{config.PublicIP}, webrtc.ICECandidateTypeHost)
	}

	return s, nil
}
