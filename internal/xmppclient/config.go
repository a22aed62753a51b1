package xmppclient

// Config names the connection the session signals over: a bare-bones
// XMPP component/client connection, following the shape of the
// teacher's signaling.Config (host/credentials for the one transport
// the session is wired to), adapted from Matrix homeserver
// credentials to XMPP ones.
type Config struct {
	Host     string `yaml:"host"`
	JID      string `yaml:"jid"`
	Password string `yaml:"password"`
}
