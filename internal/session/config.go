package session

import "time"

// Config holds the tunables spec.md §6 names for the session core:
// ICE transport filtering, the FailICE test hook, drip-batching,
// codec preference, and the IQ/retry timeouts. Defaults match the
// spec's documented defaults (10s IQ timeout, 20ms drip flush, 200ms
// source-ready retry).
type Config struct {
	WebrtcIceUDPDisable bool `yaml:"-"`
	WebrtcIceTCPDisable bool `yaml:"-"`
	FailICE             bool `yaml:"-"`
	UseDrip             bool `yaml:"-"`

	DisableSimulcast bool `yaml:"-"`
	DisableRTX       bool `yaml:"-"`
	PreferH264       bool `yaml:"-"`

	IQTimeout        time.Duration `yaml:"-"`
	DripFlush        time.Duration `yaml:"-"`
	SourceReadyRetry time.Duration `yaml:"-"`

	SourceReadyMaxAttempts int `yaml:"-"`
}

// DefaultConfig returns the spec-documented defaults; callers
// unmarshal YAML over a copy of this to apply overrides.
func DefaultConfig() Config {
	return Config{
		IQTimeout:              10 * time.Second,
		DripFlush:              20 * time.Millisecond,
		SourceReadyRetry:       200 * time.Millisecond,
		SourceReadyMaxAttempts: 10,
	}
}

// yamlConfig mirrors Config but with the three duration fields
// expressed as the plain millisecond integers spec.md §6's
// configuration record uses on the wire (iqTimeoutMs, dripFlushMs,
// sourceReadyRetryMs) — yaml.v3 would otherwise unmarshal a bare
// integer into a time.Duration as nanoseconds, not milliseconds.
type yamlConfig struct {
	WebrtcIceUDPDisable bool `yaml:"webrtcIceUdpDisable"`
	WebrtcIceTCPDisable bool `yaml:"webrtcIceTcpDisable"`
	FailICE             bool `yaml:"failICE"`
	UseDrip             bool `yaml:"useDrip"`

	DisableSimulcast bool `yaml:"disableSimulcast"`
	DisableRTX       bool `yaml:"disableRtx"`
	PreferH264       bool `yaml:"preferH264"`

	IQTimeoutMs        int `yaml:"iqTimeoutMs"`
	DripFlushMs        int `yaml:"dripFlushMs"`
	SourceReadyRetryMs int `yaml:"sourceReadyRetryMs"`

	SourceReadyMaxAttempts int `yaml:"sourceReadyMaxAttempts"`
}

// UnmarshalYAML decodes the millisecond-integer wire shape into Config,
// starting from DefaultConfig so that an omitted field keeps its
// documented default rather than zeroing out.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	defaults := DefaultConfig()
	y := yamlConfig{
		IQTimeoutMs:            int(defaults.IQTimeout / time.Millisecond),
		DripFlushMs:            int(defaults.DripFlush / time.Millisecond),
		SourceReadyRetryMs:     int(defaults.SourceReadyRetry / time.Millisecond),
		SourceReadyMaxAttempts: defaults.SourceReadyMaxAttempts,
	}

	if err := unmarshal(&y); err != nil {
		return err
	}

	*c = Config{
		WebrtcIceUDPDisable:    y.WebrtcIceUDPDisable,
		WebrtcIceTCPDisable:    y.WebrtcIceTCPDisable,
		FailICE:                y.FailICE,
		UseDrip:                y.UseDrip,
		DisableSimulcast:       y.DisableSimulcast,
		DisableRTX:             y.DisableRTX,
		PreferH264:             y.PreferH264,
		IQTimeout:              time.Duration(y.IQTimeoutMs) * time.Millisecond,
		DripFlush:              time.Duration(y.DripFlushMs) * time.Millisecond,
		SourceReadyRetry:       time.Duration(y.SourceReadyRetryMs) * time.Millisecond,
		SourceReadyMaxAttempts: y.SourceReadyMaxAttempts,
	}

	return nil
}
