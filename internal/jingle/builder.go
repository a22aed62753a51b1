package jingle

import (
	"strings"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// Builder accumulates per-content-name Jingle content elements so that
// the codec (ToJingle/TransportToJingle) and the differ (see
// internal/differ) can each append to the same in-progress payload
// before it's wrapped in a Jingle envelope and sent. Order of first
// appearance is preserved, matching the requirement that content order
// track the SDP media-section order.
type Builder struct {
	order    []string
	byName   map[string]*Content
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: make(map[string]*Content)}
}

// Content returns the content being built for the given name, creating
// it (with the given creator role) if this is the first reference.
func (b *Builder) Content(name, creator string) *Content {
	if existing, ok := b.byName[name]; ok {
		return existing
	}

	content := &Content{Creator: creator, Name: name}
	b.byName[name] = content
	b.order = append(b.order, name)
	return content
}

// Contents returns the accumulated contents in order of first
// reference.
func (b *Builder) Contents() []Content {
	out := make([]Content, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.byName[name])
	}
	return out
}

// Empty reports whether nothing has been added to the builder yet.
func (b *Builder) Empty() bool {
	return len(b.order) == 0
}

// description returns (creating if necessary) the RTPDescription for a
// named content, so callers can append sources/ssrc-groups/payloads
// without worrying about nil dereferences.
func (b *Builder) description(name, creator, media string) *RTPDescription {
	content := b.Content(name, creator)
	if content.Description == nil {
		content.Description = &RTPDescription{Media: media}
	}
	return content.Description
}

// transport returns (creating if necessary) the ICEUDPTransport for a
// named content.
func (b *Builder) transport(name, creator string) *ICEUDPTransport {
	content := b.Content(name, creator)
	if content.Transport == nil {
		content.Transport = &ICEUDPTransport{}
	}
	return content.Transport
}

// AddSource appends a source to the named content's description,
// creating the content/description as needed.
func (b *Builder) AddSource(name, creator, media string, source Source) {
	desc := b.description(name, creator, media)
	desc.Sources = append(desc.Sources, source)
}

// AddSSRCGroup appends an ssrc-group to the named content's
// description, creating the content/description as needed.
func (b *Builder) AddSSRCGroup(name, creator, media string, group SSRCGroup) {
	desc := b.description(name, creator, media)
	desc.SSRCGroups = append(desc.SSRCGroups, group)
}

// PopulateTransportFingerprint copies ufrag/pwd/fingerprint (but no
// candidates) from the given local SDP media section into the named
// content's transport, for the transport-info drip flush where
// candidates are supplied individually via AddCandidate.
func (b *Builder) PopulateTransportFingerprint(name, creator, media string) {
	transport := b.transport(name, creator)

	if line, ok := sdp.FindLine(media, "a=ice-ufrag:", ""); ok {
		transport.Ufrag = strings.TrimPrefix(line, "a=ice-ufrag:")
	}
	if line, ok := sdp.FindLine(media, "a=ice-pwd:", ""); ok {
		transport.Pwd = strings.TrimPrefix(line, "a=ice-pwd:")
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
		transport.Fingerprint = fp
	}
}

// AddCandidate appends a single ICE candidate to the named content's
// transport, creating the content/transport as needed.
func (b *Builder) AddCandidate(name, creator string, c Candidate) {
	transport := b.transport(name, creator)
	transport.Candidates = append(transport.Candidates, c)
}
