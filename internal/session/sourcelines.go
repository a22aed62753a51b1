package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/jingle"
	"github.com/jitsi-contrib/jingle-sessioncore/internal/sdp"
)

// mediaIndexByName finds the media section whose a=mid matches name.
func mediaIndexByName(media []string, name string) int {
	for i, block := range media {
		mid, _ := jingle.MediaIdentity(block)
		if mid == name {
			return i
		}
	}
	return -1
}

// appendSources implements the source-add line-append spec.md §4.6
// describes: for each content, find its matching media section (by
// mid) and append a=ssrc/a=ssrc-group lines for sources not already
// present. An already-present ssrc is a warned-and-skipped duplicate
// (spec.md §7 "source-add for an already-present SSRC").
func (s *Session) appendSources(snap sdp.Snapshot, contents []jingle.Content) sdp.Snapshot {
	media := append([]string(nil), snap.Media...)

	for _, content := range contents {
		if content.Description == nil {
			continue
		}

		idx := mediaIndexByName(media, content.Name)
		if idx == -1 {
			s.logger.WithField("content", content.Name).Warn("source-add for unknown content name")
			continue
		}

		var lines strings.Builder
		single := sdp.Snapshot{Session: snap.Session, Media: []string{media[idx]}}

		for _, src := range content.Description.Sources {
			if single.ContainsSSRC(src.SSRC) {
				s.logger.WithField("ssrc", src.SSRC).Warn("existing SSRC, skipping duplicate source-add")
				continue
			}
			for _, p := range src.Parameters {
				if p.Value != "" {
					fmt.Fprintf(&lines, "a=ssrc:%d %s:%s\r\n", src.SSRC, p.Name, p.Value)
				} else {
					fmt.Fprintf(&lines, "a=ssrc:%d %s\r\n", src.SSRC, p.Name)
				}
			}
		}

		for _, grp := range content.Description.SSRCGroups {
			ids := make([]string, len(grp.Sources))
			for i, gs := range grp.Sources {
				ids[i] = strconv.FormatUint(uint64(gs.SSRC), 10)
			}
			fmt.Fprintf(&lines, "a=ssrc-group:%s %s\r\n", grp.Semantics, strings.Join(ids, " "))
		}

		media[idx] += lines.String()
	}

	return sdp.Snapshot{Session: snap.Session, Media: media}
}

// removeSources implements the symmetric source-remove: for each
// content, strip a=ssrc:<id> lines belonging to the listed sources and
// a=ssrc-group lines belonging to the listed groups from the matching
// media section.
func (s *Session) removeSources(snap sdp.Snapshot, contents []jingle.Content) sdp.Snapshot {
	media := append([]string(nil), snap.Media...)

	for _, content := range contents {
		if content.Description == nil {
			continue
		}

		idx := mediaIndexByName(media, content.Name)
		if idx == -1 {
			s.logger.WithField("content", content.Name).Warn("source-remove for unknown content name")
			continue
		}

		drop := make(map[uint32]struct{}, len(content.Description.Sources))
		for _, src := range content.Description.Sources {
			drop[src.SSRC] = struct{}{}
		}

		dropGroups := make(map[string]struct{}, len(content.Description.SSRCGroups))
		for _, grp := range content.Description.SSRCGroups {
			dropGroups[grp.Semantics] = struct{}{}
		}

		media[idx] = filterMediaLines(media[idx], drop, dropGroups)
	}

	return sdp.Snapshot{Session: snap.Session, Media: media}
}

func filterMediaLines(block string, dropSSRC map[uint32]struct{}, dropGroupSemantics map[string]struct{}) string {
	lines := strings.Split(block, "\r\n")
	var kept strings.Builder

	for _, line := range lines {
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "a=ssrc:") {
			fields := strings.SplitN(strings.TrimPrefix(line, "a=ssrc:"), " ", 2)
			if ssrc, err := strconv.ParseUint(fields[0], 10, 32); err == nil {
				if _, drop := dropSSRC[uint32(ssrc)]; drop {
					continue
				}
			}
		}

		if strings.HasPrefix(line, "a=ssrc-group:") {
			fields := strings.SplitN(strings.TrimPrefix(line, "a=ssrc-group:"), " ", 2)
			if _, drop := dropGroupSemantics[fields[0]]; drop {
				continue
			}
		}

		kept.WriteString(line)
		kept.WriteString("\r\n")
	}

	return kept.String()
}
