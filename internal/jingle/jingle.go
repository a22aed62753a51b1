// Package jingle models the Jingle (XEP-0166) XML content/transport/
// description/source/ssrc-group elements this session core translates
// SDP to and from, and the small set of wire-level types needed to send
// and receive Jingle IQs. Namespaces match the Jingle XEPs bit-exact:
// urn:xmpp:jingle:1, urn:xmpp:jingle:apps:rtp:1,
// urn:xmpp:jingle:apps:rtp:ssma:0, urn:xmpp:jingle:apps:dtls:0,
// urn:xmpp:jingle:transports:ice-udp:1, and the Jitsi-specific
// http://jitsi.org/jitmeet extension for ssrc ownership.
package jingle

import "encoding/xml"

// Namespaces used by this package, bit-exact with the XEPs they model.
const (
	NSJingle        = "urn:xmpp:jingle:1"
	NSJingleRTP     = "urn:xmpp:jingle:apps:rtp:1"
	NSJingleSSMA    = "urn:xmpp:jingle:apps:rtp:ssma:0"
	NSJingleDTLS    = "urn:xmpp:jingle:apps:dtls:0"
	NSJingleICEUDP  = "urn:xmpp:jingle:transports:ice-udp:1"
	NSJitMeet       = "http://jitsi.org/jitmeet"
	NSJingleRTCPFB  = "urn:xmpp:jingle:apps:rtp:rtcp-fb:0"
)

// Jingle actions, as named in spec.md §6.
const (
	ActionSessionInitiate  = "session-initiate"
	ActionSessionAccept    = "session-accept"
	ActionSessionTerminate = "session-terminate"
	ActionTransportInfo    = "transport-info"
	ActionTransportReplace = "transport-replace"
	ActionTransportAccept  = "transport-accept"
	ActionTransportReject  = "transport-reject"
	ActionSourceAdd        = "source-add"
	ActionSourceRemove     = "source-remove"
)

// IQ is the minimal stanza envelope this core needs: an id, a
// direction-agnostic from/to pair, a type (set/result/error) and either
// a Jingle payload or a stanza error.
type IQ struct {
	XMLName xml.Name     `xml:"iq"`
	From    string       `xml:"from,attr,omitempty"`
	To      string       `xml:"to,attr,omitempty"`
	ID      string       `xml:"id,attr"`
	Type    string       `xml:"type,attr"`
	Jingle  *Jingle      `xml:"urn:xmpp:jingle:1 jingle,omitempty"`
	Error   *StanzaError `xml:"error,omitempty"`
}

// StanzaError is the <error/> child of a failed IQ. Condition holds the
// tag name of the first child of <error> (e.g. "item-not-found"), which
// is what internal/stanzaerr's error adapter surfaces as Reason.
type StanzaError struct {
	XMLName   xml.Name `xml:"error"`
	Code      string   `xml:"code,attr,omitempty"`
	Type      string   `xml:"type,attr,omitempty"`
	Condition string   `xml:"-"`
}

// MarshalXML encodes the error's condition as its first child element,
// the way RFC 6120 stanza errors are structured on the wire.
func (e StanzaError) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	start.Attr = nil
	if e.Code != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "code"}, Value: e.Code})
	}
	if e.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: e.Type})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Condition != "" {
		condStart := xml.StartElement{Name: xml.Name{Space: "urn:ietf:params:xml:ns:xmpp-stanzas", Local: e.Condition}}
		if err := enc.EncodeToken(condStart); err != nil {
			return err
		}
		if err := enc.EncodeToken(condStart.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// UnmarshalXML recovers Condition from the first child element of
// <error>, ignoring its namespace (implementations disagree on whether
// it's the xmpp-stanzas namespace or left unqualified).
func (e *StanzaError) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "code":
			e.Code = attr.Value
		case "type":
			e.Type = attr.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if e.Condition == "" {
				e.Condition = t.Name.Local
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// Jingle is the <jingle xmlns="urn:xmpp:jingle:1" .../> top-level element.
type Jingle struct {
	XMLName   xml.Name  `xml:"urn:xmpp:jingle:1 jingle"`
	Action    string    `xml:"action,attr"`
	Initiator string    `xml:"initiator,attr,omitempty"`
	Responder string    `xml:"responder,attr,omitempty"`
	SID       string    `xml:"sid,attr"`
	Contents  []Content `xml:"content"`
	Reason    *Reason   `xml:"reason,omitempty"`
}

// Content is a <content/> element, pairing a description (codecs,
// sources) with a transport (ICE/DTLS) for one media section.
type Content struct {
	XMLName     xml.Name         `xml:"content"`
	Creator     string           `xml:"creator,attr"`
	Name        string           `xml:"name,attr"`
	Senders     string           `xml:"senders,attr,omitempty"`
	Description *RTPDescription  `xml:"urn:xmpp:jingle:apps:rtp:1 description,omitempty"`
	Transport   *ICEUDPTransport `xml:"urn:xmpp:jingle:transports:ice-udp:1 transport,omitempty"`
}

// RTPDescription is the XEP-0167 <description/> element.
type RTPDescription struct {
	XMLName      xml.Name      `xml:"urn:xmpp:jingle:apps:rtp:1 description"`
	Media        string        `xml:"media,attr"`
	PayloadTypes []PayloadType `xml:"payload-type,omitempty"`
	Sources      []Source      `xml:"urn:xmpp:jingle:apps:rtp:ssma:0 source,omitempty"`
	SSRCGroups   []SSRCGroup   `xml:"urn:xmpp:jingle:apps:rtp:ssma:0 ssrc-group,omitempty"`
}

// PayloadType is one <payload-type/> codec entry.
type PayloadType struct {
	XMLName      xml.Name       `xml:"payload-type"`
	ID           int            `xml:"id,attr"`
	Name         string         `xml:"name,attr,omitempty"`
	Clockrate    int            `xml:"clockrate,attr,omitempty"`
	Channels     int            `xml:"channels,attr,omitempty"`
	Parameters   []Parameter    `xml:"parameter,omitempty"`
	RTCPFeedback []RTCPFeedback `xml:"urn:xmpp:jingle:apps:rtp:rtcp-fb:0 rtcp-fb,omitempty"`
}

// Parameter is a codec fmtp parameter.
type Parameter struct {
	XMLName xml.Name `xml:"parameter"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr,omitempty"`
}

// RTCPFeedback is one a=rtcp-fb line's Jingle representation.
type RTCPFeedback struct {
	XMLName xml.Name `xml:"urn:xmpp:jingle:apps:rtp:rtcp-fb:0 rtcp-fb"`
	Type    string   `xml:"type,attr"`
	Subtype string   `xml:"subtype,attr,omitempty"`
}

// Source is a single <source ssrc=".../> with its a=ssrc parameters,
// plus the Jitsi-specific ssrc-info[owner] extension that carries the
// owning conference participant's resource.
type Source struct {
	XMLName    xml.Name          `xml:"urn:xmpp:jingle:apps:rtp:ssma:0 source"`
	SSRC       uint32            `xml:"ssrc,attr"`
	Parameters []SourceParameter `xml:"parameter,omitempty"`
	Owner      *SSRCInfo         `xml:"http://jitsi.org/jitmeet ssrc-info,omitempty"`
}

// SourceParameter is one a=ssrc:<id> <name>[:<value>] line rendered as
// a Jingle <parameter/>.
type SourceParameter struct {
	XMLName xml.Name `xml:"parameter"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr,omitempty"`
}

// SSRCInfo carries the owning resource of a source, per the
// http://jitsi.org/jitmeet ssrc-info[owner] convention that
// internal/ssrctable reads via readSsrcInfo.
type SSRCInfo struct {
	XMLName xml.Name `xml:"http://jitsi.org/jitmeet ssrc-info"`
	Owner   string   `xml:"owner,attr"`
}

// SSRCGroup is an a=ssrc-group:<semantics> <ssrcs...> grouping (e.g.
// FID for RTX, SIM for simulcast).
type SSRCGroup struct {
	XMLName   xml.Name          `xml:"urn:xmpp:jingle:apps:rtp:ssma:0 ssrc-group"`
	Semantics string            `xml:"semantics,attr"`
	Sources   []SSRCGroupSource `xml:"source"`
}

// SSRCGroupSource is one member of an SSRCGroup.
type SSRCGroupSource struct {
	XMLName xml.Name `xml:"source"`
	SSRC    uint32   `xml:"ssrc,attr"`
}

// ICEUDPTransport is the XEP-0176 ICE-UDP transport, carrying the DTLS
// fingerprint (XEP-0320) and candidates.
type ICEUDPTransport struct {
	XMLName     xml.Name      `xml:"urn:xmpp:jingle:transports:ice-udp:1 transport"`
	Ufrag       string        `xml:"ufrag,attr,omitempty"`
	Pwd         string        `xml:"pwd,attr,omitempty"`
	Fingerprint *Fingerprint  `xml:"urn:xmpp:jingle:apps:dtls:0 fingerprint,omitempty"`
	Candidates  []Candidate   `xml:"candidate,omitempty"`
}

// Fingerprint is the XEP-0320 DTLS-SRTP fingerprint.
type Fingerprint struct {
	XMLName  xml.Name `xml:"urn:xmpp:jingle:apps:dtls:0 fingerprint"`
	Hash     string   `xml:"hash,attr"`
	Setup    string   `xml:"setup,attr,omitempty"`
	Required bool     `xml:"required,attr,omitempty"`
	Value    string   `xml:",chardata"`
}

// Candidate is one ICE candidate.
type Candidate struct {
	XMLName    xml.Name `xml:"candidate"`
	Component  int      `xml:"component,attr"`
	Foundation string   `xml:"foundation,attr"`
	Generation int      `xml:"generation,attr"`
	ID         string   `xml:"id,attr"`
	IP         string   `xml:"ip,attr"`
	Network    int      `xml:"network,attr,omitempty"`
	Port       int      `xml:"port,attr"`
	Priority   uint32   `xml:"priority,attr"`
	Protocol   string   `xml:"protocol,attr"`
	Type       string   `xml:"type,attr"`
	RelAddr    string   `xml:"rel-addr,attr,omitempty"`
	RelPort    int      `xml:"rel-port,attr,omitempty"`
}

// Reason is the <reason/> child of session-terminate (and, optionally,
// transport-reject).
type Reason struct {
	XMLName   xml.Name `xml:"reason"`
	Condition string   `xml:"-"`
	Text      string   `xml:"text,omitempty"`
}

// MarshalXML encodes Condition as the reason's child element
// (<success/>, <decline/>, <failed-transport/>, ...).
func (r Reason) MarshalXML(enc *xml.Encoder, start xml.StartElement) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if r.Condition != "" {
		condStart := xml.StartElement{Name: xml.Name{Local: r.Condition}}
		if err := enc.EncodeToken(condStart); err != nil {
			return err
		}
		if err := enc.EncodeToken(condStart.End()); err != nil {
			return err
		}
	}
	if r.Text != "" {
		textStart := xml.StartElement{Name: xml.Name{Local: "text"}}
		if err := enc.EncodeElement(r.Text, textStart); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// UnmarshalXML recovers Condition from the first non-"text" child.
func (r *Reason) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "text" {
				if err := dec.DecodeElement(&r.Text, &t); err != nil {
					return err
				}
				continue
			}
			if r.Condition == "" {
				r.Condition = t.Name.Local
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}
