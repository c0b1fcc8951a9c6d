package backend

import (
	"errors"
	"testing"
)

func TestPasteSessionResolve(t *testing.T) {
	s := newPasteSession(false)
	s.addOffer(1)
	s.addType(1, "text/plain")
	s.addType(1, "text/html")
	s.addType(1, "text/plain") // compositors may repeat types

	if s.settled() {
		t.Fatal("session settled before a selection event")
	}
	s.resolveSelection(1, false)

	if s.phase != phaseResolved {
		t.Fatalf("phase = %d, want phaseResolved", s.phase)
	}
	types := s.activeTypes()
	if len(types) != 2 || types[0] != "text/plain" || types[1] != "text/html" {
		t.Errorf("activeTypes() = %v", types)
	}
}

func TestPasteSessionSelectionKindIsolation(t *testing.T) {
	// A clipboard paste must ignore primary-selection events entirely,
	// and vice versa; offers themselves are shared on the device.
	s := newPasteSession(false)
	s.addOffer(1)
	s.addType(1, "image/png")
	s.addOffer(2)
	s.addType(2, "text/plain")

	s.resolveSelection(1, true) // primary event, wrong kind
	if s.settled() {
		t.Fatal("primary selection event resolved a clipboard session")
	}

	s.resolveSelection(2, false)
	if s.phase != phaseResolved || s.active != 2 {
		t.Fatalf("phase = %d, active = %d", s.phase, s.active)
	}
	if types := s.activeTypes(); len(types) != 1 || types[0] != "text/plain" {
		t.Errorf("activeTypes() = %v", types)
	}
}

func TestPasteSessionEmptySelection(t *testing.T) {
	s := newPasteSession(true)
	s.resolveSelection(0, true)

	if s.phase != phaseEmpty {
		t.Fatalf("phase = %d, want phaseEmpty", s.phase)
	}
	if !s.settled() || s.err != nil {
		t.Errorf("settled = %v, err = %v", s.settled(), s.err)
	}
}

func TestPasteSessionUnknownOffer(t *testing.T) {
	s := newPasteSession(false)
	s.resolveSelection(7, false)

	if s.phase != phaseFailed || s.err == nil {
		t.Fatalf("phase = %d, err = %v, want failure", s.phase, s.err)
	}
}

func TestPasteSessionTypeForUnknownOffer(t *testing.T) {
	s := newPasteSession(false)
	s.addType(9, "text/plain") // must not panic or create the offer
	if _, ok := s.offers[9]; ok {
		t.Error("stray type event created an offer record")
	}
}

func TestPasteSessionFinished(t *testing.T) {
	s := newPasteSession(false)
	s.finish()
	if s.phase != phaseFailed || !errors.Is(s.err, errDeviceFinished) {
		t.Fatalf("phase = %d, err = %v", s.phase, s.err)
	}

	// Once resolved, a finished event is not a failure.
	s = newPasteSession(false)
	s.addOffer(1)
	s.resolveSelection(1, false)
	s.finish()
	if s.phase != phaseResolved || s.err != nil {
		t.Errorf("phase = %d, err = %v after resolve", s.phase, s.err)
	}
}

func TestPasteSessionLateEventsIgnored(t *testing.T) {
	s := newPasteSession(false)
	s.addOffer(1)
	s.resolveSelection(0, false)
	if s.phase != phaseEmpty {
		t.Fatalf("phase = %d, want phaseEmpty", s.phase)
	}

	// Selection events after settling must not reopen the session.
	s.resolveSelection(1, false)
	if s.phase != phaseEmpty {
		t.Errorf("phase = %d, late selection event changed a settled session", s.phase)
	}
}
