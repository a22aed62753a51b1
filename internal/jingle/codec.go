package jingle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// EmitOptions mirrors the SDP model's candidate-filtering flags (see
// internal/sdp), consulted while rendering Jingle transport elements:
// when RemoveTCPCandidates/RemoveUDPCandidates is set, matching
// candidates are dropped from the emitted transport; when FailICE is
// set, every emitted candidate IP is rewritten to 1.1.1.1.
type EmitOptions struct {
	RemoveTCPCandidates bool
	RemoveUDPCandidates bool
	FailICE             bool
}

// sendersToDirection and directionToSenders implement the bidirectional
// mapping between Jingle's <content senders="..."/> attribute and SDP's
// a=sendrecv/sendonly/recvonly/inactive direction line.
var sendersToDirection = map[string]string{
	"both":      "sendrecv",
	"initiator": "sendonly",
	"responder": "recvonly",
	"none":      "inactive",
}

var directionToSenders = map[string]string{
	"sendrecv": "both",
	"sendonly": "initiator",
	"recvonly": "responder",
	"inactive": "none",
}

// FromJingle converts a complete Jingle element (as received in a
// session-initiate, transport-replace, or synthesized from
// source-add/-remove content) into an SDP snapshot, in content/content
// document order.
func FromJingle(j *Jingle) sdp.Snapshot {
	var session strings.Builder
	session.WriteString("v=0\r\n")
	session.WriteString("o=- 0 0 IN IP4 0.0.0.0\r\n")
	session.WriteString("s=-\r\n")
	session.WriteString("t=0 0\r\n")

	if len(j.Contents) > 0 {
		mids := make([]string, 0, len(j.Contents))
		for _, c := range j.Contents {
			mids = append(mids, c.Name)
		}
		session.WriteString("a=group:BUNDLE " + strings.Join(mids, " ") + "\r\n")
	}

	media := make([]string, 0, len(j.Contents))
	for _, c := range j.Contents {
		media = append(media, contentToMediaBlock(c))
	}

	return sdp.Snapshot{Session: session.String(), Media: media}
}

func contentToMediaBlock(c Content) string {
	var b strings.Builder

	mediaKind := c.Name
	var payloadIDs []string
	if c.Description != nil {
		if c.Description.Media != "" {
			mediaKind = c.Description.Media
		}
		for _, pt := range c.Description.PayloadTypes {
			payloadIDs = append(payloadIDs, strconv.Itoa(pt.ID))
		}
	}

	proto := "UDP/TLS/RTP/SAVPF"
	if mediaKind == "application" {
		proto = "UDP/DTLS/SCTP"
		if len(payloadIDs) == 0 {
			payloadIDs = []string{"webrtc-datachannel"}
		}
	}

	fmt.Fprintf(&b, "m=%s 9 %s %s\r\n", mediaKind, proto, strings.Join(payloadIDs, " "))
	b.WriteString("c=IN IP4 0.0.0.0\r\n")
	fmt.Fprintf(&b, "a=mid:%s\r\n", c.Name)

	direction := "sendrecv"
	if c.Senders != "" {
		if mapped, ok := sendersToDirection[c.Senders]; ok {
			direction = mapped
		}
	}
	fmt.Fprintf(&b, "a=%s\r\n", direction)

	if c.Transport != nil {
		writeTransportLines(&b, c.Transport)
	}

	if c.Description != nil {
		for _, pt := range c.Description.PayloadTypes {
			writePayloadTypeLines(&b, pt)
		}
		for _, src := range c.Description.Sources {
			writeSourceLines(&b, src)
		}
		for _, grp := range c.Description.SSRCGroups {
			writeSSRCGroupLine(&b, grp)
		}
	}

	return b.String()
}

func writeTransportLines(b *strings.Builder, t *ICEUDPTransport) {
	if t.Ufrag != "" {
		fmt.Fprintf(b, "a=ice-ufrag:%s\r\n", t.Ufrag)
	}
	if t.Pwd != "" {
		fmt.Fprintf(b, "a=ice-pwd:%s\r\n", t.Pwd)
	}
	if t.Fingerprint != nil {
		fmt.Fprintf(b, "a=fingerprint:%s %s\r\n", t.Fingerprint.Hash, t.Fingerprint.Value)
		if t.Fingerprint.Setup != "" {
			fmt.Fprintf(b, "a=setup:%s\r\n", t.Fingerprint.Setup)
		}
	}
	for _, cand := range t.Candidates {
		fmt.Fprintf(b, "a=candidate:%s\r\n", renderCandidateFields(cand))
	}
}

// RenderCandidate renders a Candidate back to the bare
// "candidate:..." string a peer connection's AddICECandidate expects
// (the inverse of ParseCandidate).
func RenderCandidate(c Candidate) string {
	return "candidate:" + renderCandidateFields(c)
}

func renderCandidateFields(c Candidate) string {
	fields := []string{
		c.Foundation,
		strconv.Itoa(c.Component),
		c.Protocol,
		strconv.FormatUint(uint64(c.Priority), 10),
		c.IP,
		strconv.Itoa(c.Port),
		"typ", c.Type,
	}
	if c.RelAddr != "" {
		fields = append(fields, "raddr", c.RelAddr, "rport", strconv.Itoa(c.RelPort))
	}
	fields = append(fields, "generation", strconv.Itoa(c.Generation))
	return strings.Join(fields, " ")
}

func writePayloadTypeLines(b *strings.Builder, pt PayloadType) {
	name := pt.Name
	if pt.Clockrate > 0 {
		name = fmt.Sprintf("%s/%d", name, pt.Clockrate)
		if pt.Channels > 1 {
			name = fmt.Sprintf("%s/%d", name, pt.Channels)
		}
	}
	fmt.Fprintf(b, "a=rtpmap:%d %s\r\n", pt.ID, name)

	if len(pt.Parameters) > 0 {
		params := make([]string, 0, len(pt.Parameters))
		for _, p := range pt.Parameters {
			if p.Value != "" {
				params = append(params, fmt.Sprintf("%s=%s", p.Name, p.Value))
			} else {
				params = append(params, p.Name)
			}
		}
		fmt.Fprintf(b, "a=fmtp:%d %s\r\n", pt.ID, strings.Join(params, ";"))
	}

	for _, fb := range pt.RTCPFeedback {
		if fb.Subtype != "" {
			fmt.Fprintf(b, "a=rtcp-fb:%d %s %s\r\n", pt.ID, fb.Type, fb.Subtype)
		} else {
			fmt.Fprintf(b, "a=rtcp-fb:%d %s\r\n", pt.ID, fb.Type)
		}
	}
}

func writeSourceLines(b *strings.Builder, src Source) {
	if len(src.Parameters) == 0 {
		fmt.Fprintf(b, "a=ssrc:%d\r\n", src.SSRC)
		return
	}
	for _, p := range src.Parameters {
		if p.Value != "" {
			fmt.Fprintf(b, "a=ssrc:%d %s:%s\r\n", src.SSRC, p.Name, p.Value)
		} else {
			fmt.Fprintf(b, "a=ssrc:%d %s\r\n", src.SSRC, p.Name)
		}
	}
}

func writeSSRCGroupLine(b *strings.Builder, g SSRCGroup) {
	ssrcs := make([]string, 0, len(g.Sources))
	for _, s := range g.Sources {
		ssrcs = append(ssrcs, strconv.FormatUint(uint64(s.SSRC), 10))
	}
	fmt.Fprintf(b, "a=ssrc-group:%s %s\r\n", g.Semantics, strings.Join(ssrcs, " "))
}

// ToJingle converts an SDP snapshot into the content/description/source
// elements of a Jingle stanza, content creator set to ourRole ("initiator"
// or "responder"). Candidates are filtered and IPs rewritten according
// to opts, mirroring the SDP model's FailICE/removeTcp/removeUdp flags.
func ToJingle(snap sdp.Snapshot, ourRole string, opts EmitOptions) *Builder {
	b := NewBuilder()

	for _, media := range snap.Media {
		name, mediaKind := mediaIdentity(media)
		desc := b.description(name, ourRole, mediaKind)
		desc.PayloadTypes = parsePayloadTypes(media)
		desc.Sources = parseSources(media)
		desc.SSRCGroups = parseSSRCGroups(media)

		if direction, ok := findDirection(media); ok {
			b.Content(name, ourRole).Senders = directionToSenders[direction]
		}

		populateTransport(b.transport(name, ourRole), media, opts)
	}

	return b
}

// TransportToJingle is the transport-only counterpart of ToJingle, used
// for transport-accept: it emits <content><transport> without any
// <description>, for every media section of the given snapshot.
func TransportToJingle(snap sdp.Snapshot, ourRole string, opts EmitOptions) *Builder {
	b := NewBuilder()

	for _, media := range snap.Media {
		name, _ := mediaIdentity(media)
		b.Content(name, ourRole)
		populateTransport(b.transport(name, ourRole), media, opts)
	}

	return b
}

// MediaIdentity returns the mid (falling back to media kind) and media
// kind of a single media-section block, exported for use by
// internal/differ when it needs to name the <content> a source/group
// diff belongs to.
func MediaIdentity(media string) (mid, kind string) {
	return mediaIdentity(media)
}

// ParseSources exposes the SDP a=ssrc: parsing used by ToJingle, for
// internal/differ's set-membership computation.
func ParseSources(media string) []Source {
	return parseSources(media)
}

// ParseSSRCGroups exposes the SDP a=ssrc-group: parsing used by
// ToJingle, for internal/differ's set-membership computation.
func ParseSSRCGroups(media string) []SSRCGroup {
	return parseSSRCGroups(media)
}

func mediaIdentity(media string) (mid, kind string) {
	if line, ok := sdp.FindLine(media, "m=", ""); ok {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			kind = strings.TrimPrefix(fields[0], "m=")
		}
	}

	mid = kind
	if line, ok := sdp.FindLine(media, "a=mid:", ""); ok {
		mid = strings.TrimPrefix(line, "a=mid:")
	}

	return mid, kind
}

func findDirection(media string) (string, bool) {
	for _, direction := range []string{"sendrecv", "sendonly", "recvonly", "inactive"} {
		if _, ok := sdp.FindLine(media, "a="+direction, ""); ok {
			return direction, true
		}
	}
	return "", false
}

func populateTransport(t *ICEUDPTransport, media string, opts EmitOptions) {
	if line, ok := sdp.FindLine(media, "a=ice-ufrag:", ""); ok {
		t.Ufrag = strings.TrimPrefix(line, "a=ice-ufrag:")
	}
	if line, ok := sdp.FindLine(media, "a=ice-pwd:", ""); ok {
		t.Pwd = strings.TrimPrefix(line, "a=ice-pwd:")
	}
	if line, ok := sdp.FindLine(media, "a=fingerprint:", ""); ok {
		fields := strings.SplitN(strings.TrimPrefix(line, "a=fingerprint:"), " ", 2)
		fp := &Fingerprint{Required: true}
		if len(fields) == 2 {
			fp.Hash, fp.Value = fields[0], fields[1]
		}
		if setupLine, ok := sdp.FindLine(media, "a=setup:", ""); ok {
			fp.Setup = strings.TrimPrefix(setupLine, "a=setup:")
		}
		t.Fingerprint = fp
	}

	for _, line := range sdp.FindLines(media, "a=candidate:") {
		protocol, ok := sdp.CandidateProtocol(line)
		if !ok {
			continue
		}
		if opts.RemoveTCPCandidates && (protocol == "tcp" || protocol == "ssltcp") {
			continue
		}
		if opts.RemoveUDPCandidates && protocol == "udp" {
			continue
		}
		if opts.FailICE {
			line = sdp.FailICERewrite(line)
		}
		if cand, ok := parseCandidateLine(line); ok {
			t.Candidates = append(t.Candidates, cand)
		}
	}
}

func parseCandidateLine(line string) (Candidate, bool) {
	return parseCandidateFields(strings.TrimPrefix(line, "a=candidate:"))
}

// ParseCandidate parses a bare ICE candidate string as reported by a
// peer connection's OnICECandidate callback (e.g.
// "candidate:1 1 udp 2122260223 10.0.0.1 54400 typ host
// generation 0"), rather than a full "a=candidate:" SDP line.
func ParseCandidate(raw string) (Candidate, bool) {
	return parseCandidateFields(strings.TrimPrefix(raw, "candidate:"))
}

func parseCandidateFields(s string) (Candidate, bool) {
	fields := strings.Fields(s)
	if len(fields) < 6 {
		return Candidate{}, false
	}

	component, _ := strconv.Atoi(fields[1])
	priority, _ := strconv.ParseUint(fields[3], 10, 32)
	port, _ := strconv.Atoi(fields[5])

	cand := Candidate{
		Foundation: fields[0],
		Component:  component,
		Protocol:   fields[2],
		Priority:   uint32(priority),
		IP:         fields[4],
		Port:       port,
	}

	for i := 6; i+1 < len(fields); i += 2 {
		switch fields[i] {
		case "typ":
			cand.Type = fields[i+1]
		case "raddr":
			cand.RelAddr = fields[i+1]
		case "rport":
			cand.RelPort, _ = strconv.Atoi(fields[i+1])
		case "generation":
			cand.Generation, _ = strconv.Atoi(fields[i+1])
		}
	}

	return cand, true
}

func parsePayloadTypes(media string) []PayloadType {
	var out []PayloadType
	byID := make(map[int]*PayloadType)

	for _, line := range sdp.FindLines(media, "a=rtpmap:") {
		fields := strings.SplitN(strings.TrimPrefix(line, "a=rtpmap:"), " ", 2)
		if len(fields) != 2 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		pt := PayloadType{ID: id}
		nameFields := strings.Split(fields[1], "/")
		if len(nameFields) > 0 {
			pt.Name = nameFields[0]
		}
		if len(nameFields) > 1 {
			pt.Clockrate, _ = strconv.Atoi(nameFields[1])
		}
		if len(nameFields) > 2 {
			pt.Channels, _ = strconv.Atoi(nameFields[2])
		}

		out = append(out, pt)
		byID[id] = &out[len(out)-1]
	}

	for _, line := range sdp.FindLines(media, "a=fmtp:") {
		fields := strings.SplitN(strings.TrimPrefix(line, "a=fmtp:"), " ", 2)
		if len(fields) != 2 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		pt, ok := byID[id]
		if !ok {
			continue
		}
		for _, kv := range strings.Split(fields[1], ";") {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			parts := strings.SplitN(kv, "=", 2)
			param := Parameter{Name: parts[0]}
			if len(parts) == 2 {
				param.Value = parts[1]
			}
			pt.Parameters = append(pt.Parameters, param)
		}
	}

	for _, line := range sdp.FindLines(media, "a=rtcp-fb:") {
		fields := strings.Fields(strings.TrimPrefix(line, "a=rtcp-fb:"))
		if len(fields) < 2 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		pt, ok := byID[id]
		if !ok {
			continue
		}
		fb := RTCPFeedback{Type: fields[1]}
		if len(fields) > 2 {
			fb.Subtype = fields[2]
		}
		pt.RTCPFeedback = append(pt.RTCPFeedback, fb)
	}

	return out
}

func parseSources(media string) []Source {
	order := make([]uint32, 0)
	bySSRC := make(map[uint32]*Source)

	for _, line := range sdp.FindLines(media, "a=ssrc:") {
		fields := strings.SplitN(strings.TrimPrefix(line, "a=ssrc:"), " ", 2)
		if len(fields) == 0 {
			continue
		}
		ssrc64, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			continue
		}
		ssrc := uint32(ssrc64)

		src, ok := bySSRC[ssrc]
		if !ok {
			newSrc := Source{SSRC: ssrc}
			order = append(order, ssrc)
			bySSRC[ssrc] = &newSrc
			src = &newSrc
		}

		if len(fields) == 2 && fields[1] != "" {
			name, value, _ := strings.Cut(fields[1], ":")
			src.Parameters = append(src.Parameters, SourceParameter{Name: name, Value: value})
		}
	}

	out := make([]Source, 0, len(order))
	for _, ssrc := range order {
		out = append(out, *bySSRC[ssrc])
	}
	return out
}

func parseSSRCGroups(media string) []SSRCGroup {
	var out []SSRCGroup
	for _, line := range sdp.FindLines(media, "a=ssrc-group:") {
		fields := strings.Fields(strings.TrimPrefix(line, "a=ssrc-group:"))
		if len(fields) < 2 {
			continue
		}
		group := SSRCGroup{Semantics: fields[0]}
		for _, s := range fields[1:] {
			ssrc64, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				continue
			}
			group.Sources = append(group.Sources, SSRCGroupSource{SSRC: uint32(ssrc64)})
		}
		out = append(out, group)
	}
	return out
}
