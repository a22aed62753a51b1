// Package sdp implements the line-level SDP model used by the Jingle
// session core: splitting a raw SDP body into a session-level block and
// an ordered sequence of per-media-section blocks, and exposing the
// line-level queries and mutations the rest of the core needs.
//
// This package deliberately does not implement full SDP grammar
// parsing; for grammar-level validation it delegates to
// github.com/pion/sdp/v3 (see Validate).
package sdp

import (
	"fmt"
	"strings"

	psdp "github.com/pion/sdp/v3"
)

// Snapshot is an immutable-by-convention value object holding a parsed
// SDP body. Session is the text before the first "m=" line; Media holds
// one entry per media section, each a complete fragment ending in
// "\r\n". Raw() is always derivable from Session and Media, so it is
// never stored redundantly.
type Snapshot struct {
	Session string
	Media   []string
}

// Raw renders the snapshot back into a single SDP body.
func (s Snapshot) Raw() string {
	var b strings.Builder
	b.WriteString(s.Session)
	for _, m := range s.Media {
		b.WriteString(m)
	}
	return b.String()
}

// Parse splits a raw SDP string into its session preamble and ordered
// media sections. Line endings are normalized to "\r\n" regardless of
// what was supplied, matching what a real offer/answer over the wire
// would contain.
func Parse(raw string) Snapshot {
	lines := splitLines(raw)

	var session strings.Builder
	var media []string
	var current *strings.Builder

	for _, line := range lines {
		if strings.HasPrefix(line, "m=") {
			if current != nil {
				media = append(media, current.String())
			}
			current = &strings.Builder{}
		}

		target := current
		if target == nil {
			target = &session
		}
		target.WriteString(line)
		target.WriteString("\r\n")
	}

	if current != nil {
		media = append(media, current.String())
	}

	return Snapshot{Session: session.String(), Media: media}
}

func splitLines(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")

	// Drop a single trailing empty element produced by a trailing newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// Validate runs the raw body through github.com/pion/sdp/v3's grammar
// parser. This is the "SDP utility" spec.md's non-goals refer to: the
// line-based Snapshot model above never needs to understand SDP
// grammar beyond line prefixes, but callers that want confidence that
// a synthesized body is well-formed can call Validate before handing it
// to a peer connection.
func Validate(raw string) error {
	var parsed psdp.SessionDescription
	if err := parsed.Unmarshal([]byte(raw)); err != nil {
		return fmt.Errorf("invalid SDP body: %w", err)
	}
	return nil
}

// FindLine returns the first line in block starting with prefix. If no
// such line exists in block and sessionFallback is non-empty, it is
// searched as well.
func FindLine(block, prefix, sessionFallback string) (string, bool) {
	if line, ok := findLineIn(block, prefix); ok {
		return line, true
	}
	if sessionFallback != "" {
		return findLineIn(sessionFallback, prefix)
	}
	return "", false
}

func findLineIn(block, prefix string) (string, bool) {
	for _, line := range splitLines(block) {
		if strings.HasPrefix(line, prefix) {
			return line, true
		}
	}
	return "", false
}

// FindLines returns every line in block starting with prefix, in
// order of appearance.
func FindLines(block, prefix string) []string {
	var out []string
	for _, line := range splitLines(block) {
		if strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return out
}

// ContainsSSRC reports whether any media section of the snapshot
// contains an "a=ssrc:<ssrc> " attribute line for the given ssrc.
func (s Snapshot) ContainsSSRC(ssrc uint32) bool {
	withParam := fmt.Sprintf("a=ssrc:%d ", ssrc)
	bare := fmt.Sprintf("a=ssrc:%d\r\n", ssrc)
	for _, m := range s.Media {
		if strings.Contains(m, withParam) || strings.Contains(m, bare) {
			return true
		}
	}
	return false
}

// RemoveTCPCandidates strips every "a=candidate:" line whose transport
// token is "tcp" or "ssltcp" from every media section.
func (s Snapshot) RemoveTCPCandidates() Snapshot {
	return s.filterCandidates(func(protocol string) bool {
		return protocol != "tcp" && protocol != "ssltcp"
	})
}

// RemoveUDPCandidates strips every "a=candidate:" line whose transport
// token is "udp" from every media section.
func (s Snapshot) RemoveUDPCandidates() Snapshot {
	return s.filterCandidates(func(protocol string) bool {
		return protocol != "udp"
	})
}

func (s Snapshot) filterCandidates(keep func(protocol string) bool) Snapshot {
	out := Snapshot{Session: s.Session, Media: make([]string, len(s.Media))}

	for i, m := range s.Media {
		var kept strings.Builder
		for _, line := range splitLines(m) {
			if strings.HasPrefix(line, "a=candidate:") {
				if protocol, ok := CandidateProtocol(line); ok && !keep(protocol) {
					continue
				}
			}
			kept.WriteString(line)
			kept.WriteString("\r\n")
		}
		out.Media[i] = kept.String()
	}

	return out
}

// CandidateProtocol extracts the transport token (udp/tcp/ssltcp/...)
// from an "a=candidate:" line. Candidate lines are space-separated:
// foundation component transport priority ip port typ type ...
func CandidateProtocol(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", false
	}
	return strings.ToLower(fields[2]), true
}

// FailICERewrite rewrites the IP address token of a candidate line to
// 1.1.1.1, used when the session's FailICE flag is set so that emitted
// Jingle never carries a reachable address.
func FailICERewrite(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return line
	}
	fields[4] = "1.1.1.1"
	return strings.Join(fields, " ")
}
