//go:build linux

package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"unsafe"

	"github.com/ebitengine/purego"

	"go.klb.dev/richclip/internal/mimetype"
	"go.klb.dev/richclip/internal/protocol"
)

// waylandBackend speaks zwlr_data_control_unstable_v1. Both directions run
// a single-threaded blocking dispatch loop; all listener callbacks fire on
// the dispatching goroutine, so the session state needs no locking.
type waylandBackend struct{}

func (*waylandBackend) Name() string { return "wayland" }

type waylandClient struct {
	display  uintptr
	registry uintptr
	seat     uintptr
	manager  uintptr
}

// Callback state for the current operation. One operation per process
// invocation, and libwayland dispatches on the calling goroutine only, so
// plain globals are safe here.
var (
	wlClient     *waylandClient
	wlCopyState  *copySession
	wlPasteState *pasteSession
)

// Listener tables handed to wl_proxy_add_listener. Built once: NewCallback
// slots are a finite resource.
var (
	wlRegistryListener struct{ global, globalRemove uintptr }
	wlDeviceListener   struct{ dataOffer, selection, finished, primarySelection uintptr }
	wlSourceListener   struct{ send, cancelled uintptr }
	wlOfferListener    struct{ offer uintptr }
)

func initWaylandCallbacks() {
	wlRegistryListener.global = purego.NewCallback(onRegistryGlobal)
	wlRegistryListener.globalRemove = purego.NewCallback(onRegistryGlobalRemove)
	wlDeviceListener.dataOffer = purego.NewCallback(onDeviceDataOffer)
	wlDeviceListener.selection = purego.NewCallback(onDeviceSelection)
	wlDeviceListener.finished = purego.NewCallback(onDeviceFinished)
	wlDeviceListener.primarySelection = purego.NewCallback(onDevicePrimarySelection)
	wlSourceListener.send = purego.NewCallback(onSourceSend)
	wlSourceListener.cancelled = purego.NewCallback(onSourceCancelled)
	wlOfferListener.offer = purego.NewCallback(onOfferType)
}

func onRegistryGlobal(data, registry uintptr, name uint32, iface *byte, version uint32) {
	cl := wlClient
	if cl == nil {
		return
	}
	switch goString(iface) {
	case "wl_seat":
		if cl.seat != 0 {
			// Multi-seat configurations are out of scope; first seat wins.
			slog.Debug("additional wl_seat ignored", "name", name)
			return
		}
		cl.seat = registryBind(registry, name, wlSeatInterface, "wl_seat", min(version, 2))
	case "zwlr_data_control_manager_v1":
		cl.manager = registryBind(registry, name, ifaceAddr(&ifaceDataControlManager),
			"zwlr_data_control_manager_v1", min(version, 2))
	}
}

func onRegistryGlobalRemove(data, registry uintptr, name uint32) {}

func connectWayland() (*waylandClient, error) {
	if err := loadWayland(); err != nil {
		return nil, err
	}

	display := wlDisplayConnect(nil)
	if display == 0 {
		return nil, errors.New("connect to wayland display failed")
	}
	cl := &waylandClient{display: display}
	wlClient = cl

	cl.registry = wlProxyMarshalConstructor(display, opDisplayGetRegistry, wlRegistryInterface, 0)
	if cl.registry == 0 {
		cl.close()
		return nil, errors.New("wl_display.get_registry failed")
	}
	wlProxyAddListener(cl.registry, uintptr(unsafe.Pointer(&wlRegistryListener)), 0)
	wlDisplayRoundtrip(display)

	if cl.seat == 0 {
		cl.close()
		return nil, errors.New("no wl_seat advertised by the compositor")
	}
	if cl.manager == 0 {
		cl.close()
		return nil, errors.New("no zwlr_data_control_manager_v1 global; compositor lacks the wlr-data-control protocol")
	}
	return cl, nil
}

func (cl *waylandClient) close() {
	wlDisplayDisconnect(cl.display)
	wlClient = nil
}

func (cl *waylandClient) dataDevice() (uintptr, error) {
	device := wlProxyMarshalConstructor(cl.manager, opManagerGetDataDevice,
		ifaceAddr(&ifaceDataControlDevice), 0, cl.seat)
	if device == 0 {
		return 0, errors.New("get_data_device failed")
	}
	return device, nil
}

// copySession holds the payload served to send events until the compositor
// cancels the source.
type copySession struct {
	src       protocol.SourceData
	cancelled bool
}

func onSourceSend(data, source uintptr, mime *byte, fd int32) {
	s := wlCopyState
	f := os.NewFile(uintptr(fd), "wl-send-pipe")
	defer f.Close()
	if s == nil {
		return
	}
	name := goString(mime)
	content, ok := s.src.ContentByType(name)
	if !ok {
		// The compositor should only echo types we offered; answer an
		// unknown one with zero bytes rather than failing the session.
		slog.Debug("send for unoffered type", "type", name)
		return
	}
	slog.Debug("serving send event", "type", name, "size", len(content))
	if _, err := f.Write(content); err != nil {
		slog.Debug("send write failed", "type", name, "err", err)
	}
}

func onSourceCancelled(data, source uintptr) {
	if s := wlCopyState; s != nil {
		s.cancelled = true
	}
}

func (w *waylandBackend) Copy(cfg CopyConfig) error {
	cl, err := connectWayland()
	if err != nil {
		return err
	}
	defer cl.close()

	source := wlProxyMarshalConstructor(cl.manager, opManagerCreateDataSource,
		ifaceAddr(&ifaceDataControlSource), 0)
	if source == 0 {
		return errors.New("create_data_source failed")
	}
	wlProxyAddListener(source, uintptr(unsafe.Pointer(&wlSourceListener)), 0)

	for _, t := range cfg.Source.Types() {
		wlProxyMarshal(source, opSourceOffer, uintptr(unsafe.Pointer(cstr(t))))
	}

	device, err := cl.dataDevice()
	if err != nil {
		return err
	}
	if cfg.UsePrimary {
		wlProxyMarshal(device, opDeviceSetPrimarySelection, source)
	} else {
		wlProxyMarshal(device, opDeviceSetSelection, source)
	}

	state := &copySession{src: cfg.Source}
	wlCopyState = state
	defer func() { wlCopyState = nil }()

	wlDisplayFlush(cl.display)
	for !state.cancelled {
		if wlDisplayDispatch(cl.display) < 0 {
			return errors.New("wayland connection broke while serving the selection")
		}
	}
	// Another client took the selection; normal end of life.
	slog.Debug("data source cancelled")
	return nil
}

func onDeviceDataOffer(data, device, offer uintptr) {
	s := wlPasteState
	if s == nil || offer == 0 {
		return
	}
	s.addOffer(offer)
	wlProxyAddListener(offer, uintptr(unsafe.Pointer(&wlOfferListener)), 0)
}

func onOfferType(data, offer uintptr, mime *byte) {
	if s := wlPasteState; s != nil {
		s.addType(offer, goString(mime))
	}
}

func onDeviceSelection(data, device, offer uintptr) {
	if s := wlPasteState; s != nil {
		s.resolveSelection(offer, false)
	}
}

func onDevicePrimarySelection(data, device, offer uintptr) {
	if s := wlPasteState; s != nil {
		s.resolveSelection(offer, true)
	}
}

func onDeviceFinished(data, device uintptr) {
	if s := wlPasteState; s != nil {
		s.finish()
	}
}

func (w *waylandBackend) Paste(cfg PasteConfig) error {
	cl, err := connectWayland()
	if err != nil {
		return err
	}
	defer cl.close()

	session := newPasteSession(cfg.UsePrimary)
	wlPasteState = session
	defer func() { wlPasteState = nil }()

	device, err := cl.dataDevice()
	if err != nil {
		return err
	}
	wlProxyAddListener(device, uintptr(unsafe.Pointer(&wlDeviceListener)), 0)

	wlDisplayFlush(cl.display)
	for !session.settled() {
		if wlDisplayDispatch(cl.display) < 0 {
			return errors.New("wayland connection broke while collecting offers")
		}
	}

	switch session.phase {
	case phaseFailed:
		return session.err
	case phaseEmpty:
		slog.Debug("clipboard is empty")
		return nil
	}

	types := session.activeTypes()
	if cfg.ListTypesOnly {
		for _, t := range types {
			if _, err := fmt.Fprintln(cfg.Out, t); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		return nil
	}

	chosen, err := mimetype.Decide(cfg.Preferred, types)
	if err != nil {
		return fmt.Errorf("decide paste type: %w", err)
	}
	slog.Debug("receiving offer content", "type", chosen)

	// The owner writes into a pipe of our making; stdout itself cannot be
	// handed over, its read side may vanish before all data is written.
	r, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}
	defer r.Close()

	wlProxyMarshal(session.active, opOfferReceive,
		uintptr(unsafe.Pointer(cstr(chosen))), pw.Fd())
	wlDisplayFlush(cl.display)
	// The fd is duplicated into the request during marshalling; our copy
	// must go away or the read below never sees EOF.
	pw.Close()
	wlDisplayRoundtrip(cl.display)

	if _, err := io.Copy(cfg.Out, r); err != nil {
		return fmt.Errorf("read offer content: %w", err)
	}

	wlProxyMarshal(session.active, opOfferDestroy)
	wlProxyDestroy(session.active)
	wlDisplayFlush(cl.display)
	return nil
}
