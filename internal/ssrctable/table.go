// Package ssrctable holds the mapping from SSRC to owning conference
// participant (the "Signalling Layer", C4 in spec.md). It is a thin,
// mutex-guarded table rather than a concurrent map because the table is
// small and its invariant (an ssrc has at most one owner; later writes
// overwrite) is easier to reason about behind a single lock, following
// the small-mutex-guarded-table style of the teacher's
// pkg/conference/participant.Tracker.
package ssrctable

import (
	"sync"

	"golang.org/x/exp/maps"
)

// AttachDetacher is the narrow view of a conference room that the
// session attaches/detaches the table to at init/close time. Kept as
// an interface because the conference itself is out of scope for this
// core (see spec.md §1) — only this capability is named.
type AttachDetacher interface {
	AttachSSRCTable(table *Table)
	DetachSSRCTable(table *Table)
}

// Table maps SSRC identifiers to the resource (conference participant)
// that owns them.
type Table struct {
	mu    sync.Mutex
	owner map[uint32]string
}

// New returns an empty Table.
func New() *Table {
	return &Table{owner: make(map[uint32]string)}
}

// SetSSRCOwner records (or overwrites) the owner of an ssrc.
func (t *Table) SetSSRCOwner(ssrc uint32, ownerResource string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owner[ssrc] = ownerResource
}

// GetSSRCOwner returns the owner of an ssrc, if known.
func (t *Table) GetSSRCOwner(ssrc uint32) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.owner[ssrc]
	return owner, ok
}

// Attach registers this table with the enclosing conference room, if
// one was supplied; a nil room is valid (e.g. in unit tests that
// exercise the session core without a real conference).
func (t *Table) Attach(room AttachDetacher) {
	if room != nil {
		room.AttachSSRCTable(t)
	}
}

// Detach unregisters this table from the enclosing conference room.
func (t *Table) Detach(room AttachDetacher) {
	if room != nil {
		room.DetachSSRCTable(t)
	}
}

// SSRCs returns every ssrc currently known to the table, in no
// particular order, the way the teacher's conference.go gathers a
// departing participant's published tracks with maps.Values before
// tearing them down.
func (t *Table) SSRCs() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Keys(t.owner)
}
