// Command jingle-session-demo wires the session core's pieces
// together the way an embedding XMPP/Jingle focus component would:
// load configuration, stand up telemetry, build a peer-connection
// factory, and construct one Session per inbound session-initiate.
// The real XMPP stream (reading/writing stanzas off a live
// connection) is supplied by the embedder — out of scope for this
// core per spec.md §1 — so this demo wires internal/xmppclient over
// stdout as a stand-in connection to show the shape of the wiring.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/config"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/session"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/telemetry"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/webrtcpc"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/xmppclient"
	"github.com/sirupsen/logrus"
)

func main() {
	configFilePath := flag.String("config", "config.yaml", "configuration file path")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})

	cfg, err := config.Load(*configFilePath)
	if err != nil {
		logrus.WithError(err).Fatal("could not load config")
		return
	}

	switch cfg.LogLevel {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	tracerProvider, err := telemetry.Setup(cfg.Telemetry)
	if err != nil {
		logrus.WithError(err).Fatal("could not set up telemetry")
		return
	}

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logrus.WithError(err).Warn("failed to shut down tracer provider")
		}
		os.Exit(0)
	}()

	factory, err := webrtcpc.NewFactory(cfg.WebRTC)
	if err != nil {
		logrus.WithError(err).Fatal("could not build peer connection factory")
		return
	}

	transport := xmppclient.New(os.Stdout, logrus.NewEntry(logrus.StandardLogger()))

	logrus.WithField("jid", cfg.XMPP.JID).Info("jingle session core ready, awaiting session-initiate")
	newFocusSession(cfg, factory, transport)
}

// newFocusSession demonstrates the per-call wiring a real focus
// component performs on receiving a session-initiate: build a peer
// connection from the factory, construct a Session bound to it and to
// the shared signalling transport, and hand inbound Jingle IQs to
// Session.HandleIQ as they arrive off the XMPP stream.
func newFocusSession(cfg *config.Config, factory *webrtcpc.Factory, transport *xmppclient.Client) *session.Session {
	pc, err := factory.NewPeerConnection()
	if err != nil {
		logrus.WithError(err).Error("could not build peer connection for new session")
		return nil
	}

	return session.New(
		cfg.Session,
		"", cfg.XMPP.JID, "",
		session.RoleResponder,
		pc,
		transport,
		nil,
		nil,
		logrus.NewEntry(logrus.StandardLogger()),
	)
}
