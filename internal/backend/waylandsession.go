package backend

import (
	"errors"
	"log/slog"
)

// errDeviceFinished is the protocol-violation error for a data-control
// device being destroyed mid-session.
var errDeviceFinished = errors.New("data control device was destroyed by the compositor")

// pastePhase is the explicit progression of one Wayland paste session.
// Events may interleave (offers for both the clipboard and the primary
// selection arrive on the same device), so the phase is advanced only by
// the selection event matching the requested selection kind.
type pastePhase int

const (
	phaseCollecting pastePhase = iota // accumulating offers and their types
	phaseResolved                     // the active offer is known
	phaseEmpty                        // clipboard is empty; finish with no output
	phaseFailed                       // protocol violation; err is set
)

// offerRecord accumulates the type names advertised for one server offer.
type offerRecord struct {
	types []string
}

// pasteSession is the transient state of one paste invocation. Offers for
// the clipboard and the primary selection are kept fully isolated: each
// accumulates its own record, and only the selection event for the
// requested kind resolves the session.
type pasteSession struct {
	wantPrimary bool
	phase       pastePhase
	offers      map[uintptr]*offerRecord
	active      uintptr
	err         error
}

func newPasteSession(wantPrimary bool) *pasteSession {
	return &pasteSession{
		wantPrimary: wantPrimary,
		offers:      make(map[uintptr]*offerRecord),
	}
}

// addOffer registers a new offer announced by the compositor.
func (s *pasteSession) addOffer(id uintptr) {
	if _, ok := s.offers[id]; ok {
		slog.Debug("duplicate offer announced", "offer", id)
		return
	}
	s.offers[id] = &offerRecord{}
}

// addType appends one advertised type to an offer's record. Compositors may
// report the same type twice; duplicates are dropped.
func (s *pasteSession) addType(id uintptr, mime string) {
	rec, ok := s.offers[id]
	if !ok {
		slog.Debug("type for unknown offer", "offer", id, "type", mime)
		return
	}
	for _, t := range rec.types {
		if t == mime {
			return
		}
	}
	rec.types = append(rec.types, mime)
}

// resolveSelection handles a selection-changed event. primary says which
// selection kind the event is for; events for the other kind are ignored
// outright. A zero offer id means the clipboard is empty.
func (s *pasteSession) resolveSelection(id uintptr, primary bool) {
	if primary != s.wantPrimary || s.phase != phaseCollecting {
		return
	}
	if id == 0 {
		s.phase = phaseEmpty
		return
	}
	if _, ok := s.offers[id]; !ok {
		s.phase = phaseFailed
		s.err = errors.New("selection names an offer that was never announced")
		return
	}
	s.active = id
	s.phase = phaseResolved
}

// finish handles the device's finished event, which is a protocol failure
// in any phase that is still waiting on the compositor.
func (s *pasteSession) finish() {
	if s.phase == phaseCollecting {
		s.phase = phaseFailed
		s.err = errDeviceFinished
	}
}

// settled reports whether the dispatch loop can stop.
func (s *pasteSession) settled() bool {
	return s.phase != phaseCollecting
}

// activeTypes returns the advertised types of the resolved offer.
func (s *pasteSession) activeTypes() []string {
	rec, ok := s.offers[s.active]
	if !ok {
		return nil
	}
	return rec.types
}
