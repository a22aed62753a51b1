// Package config loads the top-level process configuration, adapted
// from pkg/config/config.go: the same LoadConfig/LoadConfigFromEnv/
// LoadConfigFromPath/LoadConfigFromString chain and CONFIG env var
// override, but assembling session/webrtcpc/xmppclient/telemetry
// config instead of matrix/conference config.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/session"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/telemetry"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/webrtcpc"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/xmppclient"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration: the XMPP connection to
// signal over, the WebRTC peer-connection factory settings, the
// session core's own tunables, and telemetry export, plus the log
// level — the same grouping shape as the teacher's top-level
// config.Config{Matrix, Conference, LogLevel}.
type Config struct {
	XMPP      xmppclient.Config `yaml:"xmpp"`
	WebRTC    webrtcpc.Config   `yaml:"webrtc"`
	Session   session.Config    `yaml:"session"`
	Telemetry telemetry.Config  `yaml:"telemetry"`
	LogLevel  string            `yaml:"log"`
}

// ErrNoConfigEnvVar is returned by LoadFromEnv when CONFIG isn't set.
var ErrNoConfigEnvVar = errors.New("environment variable not set or invalid")

// Load tries CONFIG first, falling back to reading path.
func Load(path string) (*Config, error) {
	config, err := LoadFromEnv()
	if err != nil {
		if !errors.Is(err, ErrNoConfigEnvVar) {
			return nil, err
		}
		return LoadFromPath(path)
	}
	return config, nil
}

// LoadFromEnv loads YAML from the CONFIG environment variable.
func LoadFromEnv() (*Config, error) {
	configEnv := os.Getenv("CONFIG")
	if configEnv == "" {
		return nil, ErrNoConfigEnvVar
	}
	return LoadFromString(configEnv)
}

// LoadFromPath reads and parses the YAML file at path.
func LoadFromPath(path string) (*Config, error) {
	logrus.WithField("path", path).Info("loading config")

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return LoadFromString(string(file))
}

// LoadFromString parses configString as YAML and validates the
// fields a running session core cannot do without.
func LoadFromString(configString string) (*Config, error) {
	logrus.Info("loading config from string")

	config := Config{Session: session.DefaultConfig()}
	if err := yaml.Unmarshal([]byte(configString), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML file: %w", err)
	}

	if config.XMPP.JID == "" || config.XMPP.Host == "" {
		return nil, errors.New("invalid config: xmpp.jid and xmpp.host are required")
	}

	return &config, nil
}
