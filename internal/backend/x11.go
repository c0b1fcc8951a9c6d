//go:build linux

package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"go.klb.dev/richclip/internal/mimetype"
	"go.klb.dev/richclip/internal/protocol"
)

// x11Backend speaks the ICCCM selection protocol over an xgb connection.
//
// Copy direction: own the selection and answer SelectionRequest events until
// a SelectionClear says another client took over. Content larger than the
// chunk threshold is sent with the INCR sub-protocol, driven by the peer
// deleting the transfer property after consuming each chunk. Paste
// direction: fetch TARGETS, negotiate one, convert the selection again and
// read the result either directly or through an INCR receive loop.
type x11Backend struct{}

func (*x11Backend) Name() string { return "x11" }

// propName is the property on our window used for all selection transfers.
const propName = "RICHCLIP_DATA"

type x11Atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	incr      xproto.Atom
	prop      xproto.Atom
}

type x11Conn struct {
	conn  *xgb.Conn
	win   xproto.Window
	atoms x11Atoms

	// maximum X request size in bytes
	maxRequest int
}

func connectX11() (*x11Conn, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("allocate window id: %w", err)
	}
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, win, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{screen.WhitePixel, xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create window: %w", err)
	}

	c := &x11Conn{
		conn:       conn,
		win:        win,
		maxRequest: int(setup.MaximumRequestLength) * 4,
	}
	if c.atoms.clipboard, err = c.internAtom("CLIPBOARD"); err != nil {
		conn.Close()
		return nil, err
	}
	if c.atoms.targets, err = c.internAtom("TARGETS"); err != nil {
		conn.Close()
		return nil, err
	}
	if c.atoms.incr, err = c.internAtom("INCR"); err != nil {
		conn.Close()
		return nil, err
	}
	if c.atoms.prop, err = c.internAtom(propName); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *x11Conn) internAtom(name string) (xproto.Atom, error) {
	r, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %q: %w", name, err)
	}
	return r.Atom, nil
}

func (c *x11Conn) atomName(a xproto.Atom) (string, error) {
	r, err := xproto.GetAtomName(c.conn, a).Reply()
	if err != nil {
		return "", fmt.Errorf("name of atom %d: %w", a, err)
	}
	return string(r.Name), nil
}

func (c *x11Conn) selection(usePrimary bool) xproto.Atom {
	if usePrimary {
		return xproto.AtomPrimary
	}
	return c.atoms.clipboard
}

// notify tells the requestor its conversion finished. property is AtomNone
// when the conversion was refused.
func (c *x11Conn) notify(req xproto.SelectionRequestEvent, property xproto.Atom) {
	ev := xproto.SelectionNotifyEvent{
		Time:      req.Time,
		Requestor: req.Requestor,
		Selection: req.Selection,
		Target:    req.Target,
		Property:  property,
	}
	xproto.SendEvent(c.conn, false, req.Requestor, 0, string(ev.Bytes()))
}

// incrSender is the per-peer cursor of one outgoing INCR transfer.
type incrSender struct {
	requestor xproto.Window
	target    xproto.Atom
	property  xproto.Atom
	cursor    *transferCursor
}

func (x *x11Backend) Copy(cfg CopyConfig) error {
	c, err := connectX11()
	if err != nil {
		return err
	}
	defer c.conn.Close()

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = c.maxRequest / 4
	}

	sel := c.selection(cfg.UsePrimary)
	xproto.SetSelectionOwner(c.conn, c.win, sel, xproto.TimeCurrentTime)
	owner, err := xproto.GetSelectionOwner(c.conn, sel).Reply()
	if err != nil {
		return fmt.Errorf("confirm selection ownership: %w", err)
	}
	if owner.Owner != c.win {
		return errors.New("failed to acquire selection ownership")
	}
	slog.Debug("selection owned", "selection", sel, "types", cfg.Source.Types())

	// In-flight INCR transfers, keyed by peer window. Only touched from
	// this event loop.
	senders := make(map[xproto.Window]*incrSender)

	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return errors.New("x11 connection closed")
		}
		if xerr != nil {
			slog.Debug("x11 error event", "err", xerr)
			continue
		}

		switch ev := ev.(type) {
		case xproto.SelectionRequestEvent:
			if err := c.answerRequest(cfg, ev, chunkSize, senders); err != nil {
				return err
			}
		case xproto.PropertyNotifyEvent:
			if ev.State != xproto.PropertyDelete {
				continue
			}
			s, ok := senders[ev.Window]
			if !ok || s.property != ev.Atom {
				continue
			}
			chunk := s.cursor.next()
			xproto.ChangeProperty(c.conn, xproto.PropModeReplace, s.requestor,
				s.property, s.target, 8, uint32(len(chunk)), chunk)
			if s.cursor.done {
				slog.Debug("incr transfer finished", "requestor", s.requestor)
				delete(senders, ev.Window)
			}
		case xproto.SelectionClearEvent:
			if ev.Selection == sel {
				// Another client took the selection; normal end of life.
				slog.Debug("selection ownership lost")
				return nil
			}
		}
	}
}

// answerRequest serves one SelectionRequest: a TARGETS listing, a direct
// content write, or the start of an INCR transfer.
func (c *x11Conn) answerRequest(cfg CopyConfig, req xproto.SelectionRequestEvent, chunkSize int, senders map[xproto.Window]*incrSender) error {
	prop := req.Property
	if prop == xproto.AtomNone {
		// Obsolete clients leave the property unset; ICCCM says to use
		// the target atom in that case.
		prop = req.Target
	}

	if req.Target == c.atoms.targets {
		types := cfg.Source.Types()
		atoms := make([]xproto.Atom, 0, len(types)+1)
		atoms = append(atoms, c.atoms.targets)
		for _, t := range types {
			a, err := c.internAtom(t)
			if err != nil {
				return err
			}
			atoms = append(atoms, a)
		}
		buf := encodeAtoms(atoms)
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, req.Requestor,
			prop, xproto.AtomAtom, 32, uint32(len(atoms)), buf)
		c.notify(req, prop)
		return nil
	}

	content, ok := c.lookupContent(cfg.Source, req.Target)
	if !ok {
		// Unknown target: reply with an empty buffer, keep serving.
		slog.Debug("unmatched target requested", "target", req.Target)
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, req.Requestor,
			prop, req.Target, 8, 0, nil)
		c.notify(req, prop)
		return nil
	}

	if len(content) < chunkSize {
		xproto.ChangeProperty(c.conn, xproto.PropModeReplace, req.Requestor,
			prop, req.Target, 8, uint32(len(content)), content)
		c.notify(req, prop)
		return nil
	}

	// Content too large for one request: announce INCR and stream chunks
	// as the peer deletes the property.
	slog.Debug("starting incr transfer", "requestor", req.Requestor, "size", len(content))
	xproto.ChangeWindowAttributes(c.conn, req.Requestor,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange})
	var size [4]byte
	xgb.Put32(size[:], uint32(len(content)))
	xproto.ChangeProperty(c.conn, xproto.PropModeReplace, req.Requestor,
		prop, c.atoms.incr, 32, 1, size[:])
	senders[req.Requestor] = &incrSender{
		requestor: req.Requestor,
		target:    req.Target,
		property:  prop,
		cursor:    newTransferCursor(content, chunkSize),
	}
	c.notify(req, prop)
	return nil
}

// lookupContent resolves a requested target atom to a payload via the
// negotiator, using the atom's name as the preferred type.
func (c *x11Conn) lookupContent(src protocol.SourceData, target xproto.Atom) ([]byte, bool) {
	name, err := c.atomName(target)
	if err != nil {
		slog.Debug("unnameable target atom", "atom", target, "err", err)
		return nil, false
	}
	t, err := mimetype.Decide(name, src.Types())
	if err != nil {
		return nil, false
	}
	return src.ContentByType(t)
}

func (x *x11Backend) Paste(cfg PasteConfig) error {
	c, err := connectX11()
	if err != nil {
		return err
	}
	defer c.conn.Close()

	sel := c.selection(cfg.UsePrimary)

	// First pass: ask for TARGETS to learn the offered types.
	xproto.ConvertSelection(c.conn, c.win, sel, c.atoms.targets, c.atoms.prop, xproto.TimeCurrentTime)

	collectingTargets := true
	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return errors.New("x11 connection closed")
		}
		if xerr != nil {
			slog.Debug("x11 error event", "err", xerr)
			continue
		}

		notify, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok || notify.Selection != sel {
			continue
		}
		if notify.Property == xproto.AtomNone {
			// No owner, or the owner refused the conversion.
			slog.Debug("selection conversion refused, treating as empty")
			return nil
		}

		reply, err := xproto.GetProperty(c.conn, false, c.win, c.atoms.prop,
			xproto.GetPropertyTypeAny, 0, (1<<32-1)/4).Reply()
		if err != nil {
			return fmt.Errorf("read selection property: %w", err)
		}

		if collectingTargets {
			done, err := c.handleTargets(cfg, sel, reply)
			if done || err != nil {
				return err
			}
			collectingTargets = false
			continue
		}

		if reply.Type == c.atoms.incr {
			return c.receiveIncr(cfg, reply)
		}
		if _, err := cfg.Out.Write(reply.Value); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	}
}

// handleTargets consumes the TARGETS reply. It returns done=true when the
// paste is complete (types listed, or clipboard empty); otherwise it has
// issued the second ConvertSelection for the negotiated target.
func (c *x11Conn) handleTargets(cfg PasteConfig, sel xproto.Atom, reply *xproto.GetPropertyReply) (bool, error) {
	if reply.Type == xproto.AtomNone || reply.ValueLen == 0 {
		// Empty clipboard: success with no output.
		return true, nil
	}
	if reply.Type != xproto.AtomAtom {
		return true, fmt.Errorf("TARGETS reply has unexpected type %d", reply.Type)
	}

	var types []string
	for _, a := range decodeAtoms(reply.Value) {
		name, err := c.atomName(a)
		if err != nil {
			slog.Debug("skipping unnameable target", "atom", a, "err", err)
			continue
		}
		types = append(types, name)
	}

	if cfg.ListTypesOnly {
		for _, t := range types {
			if _, err := fmt.Fprintln(cfg.Out, t); err != nil {
				return true, fmt.Errorf("write output: %w", err)
			}
		}
		return true, nil
	}

	chosen, err := mimetype.Decide(cfg.Preferred, types)
	if err != nil {
		return true, fmt.Errorf("decide paste type: %w", err)
	}
	target, err := c.internAtom(chosen)
	if err != nil {
		return true, err
	}
	slog.Debug("requesting selection content", "type", chosen)
	xproto.ConvertSelection(c.conn, c.win, sel, target, c.atoms.prop, xproto.TimeCurrentTime)
	return false, nil
}

// receiveIncr drains an incoming INCR transfer: delete the property to ask
// for the next chunk, wait for its NewValue notification, read it, repeat
// until the owner writes a zero-length chunk.
func (c *x11Conn) receiveIncr(cfg PasteConfig, start *xproto.GetPropertyReply) error {
	if len(start.Value) >= 4 {
		slog.Debug("incr receive starting", "sizeHint", xgb.Get32(start.Value))
	}
	for {
		if err := xproto.DeletePropertyChecked(c.conn, c.win, c.atoms.prop).Check(); err != nil {
			return fmt.Errorf("acknowledge incr chunk: %w", err)
		}

		for {
			ev, xerr := c.conn.WaitForEvent()
			if ev == nil && xerr == nil {
				return errors.New("x11 connection closed during incr transfer")
			}
			if xerr != nil {
				slog.Debug("x11 error event", "err", xerr)
				continue
			}
			pn, ok := ev.(xproto.PropertyNotifyEvent)
			if ok && pn.State == xproto.PropertyNewValue && pn.Window == c.win && pn.Atom == c.atoms.prop {
				break
			}
		}

		reply, err := xproto.GetProperty(c.conn, false, c.win, c.atoms.prop,
			xproto.GetPropertyTypeAny, 0, (1<<32-1)/4).Reply()
		if err != nil {
			return fmt.Errorf("read incr chunk: %w", err)
		}
		if len(reply.Value) == 0 {
			return nil
		}
		if _, err := cfg.Out.Write(reply.Value); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}

// encodeAtoms packs atoms as the 32-bit array layout of an ATOM property.
func encodeAtoms(atoms []xproto.Atom) []byte {
	buf := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		xgb.Put32(buf[4*i:], uint32(a))
	}
	return buf
}

// decodeAtoms is the inverse of encodeAtoms; trailing partial words are
// ignored.
func decodeAtoms(buf []byte) []xproto.Atom {
	atoms := make([]xproto.Atom, 0, len(buf)/4)
	for i := 0; i+4 <= len(buf); i += 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(buf[i:])))
	}
	return atoms
}
