package webrtcpc

// Config configures the pion-backed peer-connection factory, following
// the shape of the teacher's webrtc_ext.Config (simulcast toggle,
// public IP for NAT rewriting) extended with the ICE transport
// filters and codec preference spec.md §6's configuration record
// names.
type Config struct {
	// EnableSimulcast registers the RTP stream ID extension so
	// simulcast layers can be told apart.
	EnableSimulcast bool `yaml:"simulcast"`
	// PublicIP is advertised via 1:1 NAT rewriting when set.
	PublicIP string `yaml:"ip"`

	ICEUDPDisable bool `yaml:"-"`
	ICETCPDisable bool `yaml:"-"`
	PreferH264    bool `yaml:"-"`
	DisableRTX    bool `yaml:"-"`
}
