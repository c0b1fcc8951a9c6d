//go:build linux

package backend

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// libwayland-client is loaded at runtime through purego, so no cgo is
// needed and X11-only hosts never touch it. Proxies are driven with the
// low-level wl_proxy API. The wlr-data-control interface tables are not
// shipped by the library, so they are built here the same way
// wayland-scanner would emit them in C.

var (
	wlDisplayConnect                   func(name *byte) uintptr
	wlDisplayDisconnect                func(display uintptr)
	wlDisplayRoundtrip                 func(display uintptr) int32
	wlDisplayDispatch                  func(display uintptr) int32
	wlDisplayFlush                     func(display uintptr) int32
	wlProxyAddListener                 func(proxy uintptr, implementation uintptr, data uintptr) int32
	wlProxyDestroy                     func(proxy uintptr)
	wlProxyMarshal                     func(proxy uintptr, opcode uint32, args ...uintptr)
	wlProxyMarshalConstructor          func(proxy uintptr, opcode uint32, iface uintptr, args ...uintptr) uintptr
	wlProxyMarshalConstructorVersioned func(proxy uintptr, opcode uint32, iface uintptr, version uint32, args ...uintptr) uintptr
)

// Interface descriptors exported by libwayland-client itself.
var (
	wlRegistryInterface uintptr
	wlSeatInterface     uintptr
)

// Request opcodes.
const (
	opDisplayGetRegistry = 1
	opRegistryBind       = 0

	opManagerCreateDataSource = 0
	opManagerGetDataDevice    = 1

	opDeviceSetSelection        = 0
	opDeviceDestroy             = 1
	opDeviceSetPrimarySelection = 2

	opSourceOffer   = 0
	opSourceDestroy = 1

	opOfferReceive = 0
	opOfferDestroy = 1
)

// wlMessage mirrors struct wl_message.
type wlMessage struct {
	name      *byte
	signature *byte
	types     **wlIface
}

// wlIface mirrors struct wl_interface.
type wlIface struct {
	name        *byte
	version     int32
	methodCount int32
	methods     *wlMessage
	eventCount  int32
	events      *wlMessage
}

// Hand-built interface tables for zwlr_data_control_unstable_v1.
var (
	ifaceDataControlManager wlIface
	ifaceDataControlDevice  wlIface
	ifaceDataControlSource  wlIface
	ifaceDataControlOffer   wlIface

	// Backing message arrays; package-level so the C side never outlives
	// them.
	managerMethods []wlMessage
	deviceMethods  []wlMessage
	deviceEvents   []wlMessage
	sourceMethods  []wlMessage
	sourceEvents   []wlMessage
	offerMethods   []wlMessage
	offerEvents    []wlMessage

	// Per-message type arrays (entries are nil for non-object args).
	wlTypeArrays [][]*wlIface
)

var (
	wlLoadOnce sync.Once
	wlLoadErr  error
)

func cstr(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func goString(p *byte) string {
	if p == nil {
		return ""
	}
	var out []byte
	for i := 0; ; i++ {
		c := *(*byte)(unsafe.Add(unsafe.Pointer(p), i))
		if c == 0 {
			break
		}
		out = append(out, c)
	}
	return string(out)
}

func ifaceAddr(i *wlIface) uintptr {
	return uintptr(unsafe.Pointer(i))
}

// typeArray pins a per-message type list and returns its first element.
func typeArray(types ...*wlIface) **wlIface {
	arr := make([]*wlIface, len(types))
	copy(arr, types)
	wlTypeArrays = append(wlTypeArrays, arr)
	return &arr[0]
}

func message(name, signature string, types **wlIface) wlMessage {
	return wlMessage{name: cstr(name), signature: cstr(signature), types: types}
}

func fillIface(i *wlIface, name string, version int32, methods, events []wlMessage) {
	i.name = cstr(name)
	i.version = version
	i.methodCount = int32(len(methods))
	if len(methods) > 0 {
		i.methods = &methods[0]
	}
	i.eventCount = int32(len(events))
	if len(events) > 0 {
		i.events = &events[0]
	}
}

// loadWayland dlopens libwayland-client, resolves the proxy API, and builds
// the data-control interface tables. Safe to call repeatedly.
func loadWayland() error {
	wlLoadOnce.Do(func() {
		lib, err := purego.Dlopen("libwayland-client.so.0", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			lib, err = purego.Dlopen("libwayland-client.so", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err != nil {
				wlLoadErr = fmt.Errorf("load libwayland-client: %w", err)
				return
			}
		}

		purego.RegisterLibFunc(&wlDisplayConnect, lib, "wl_display_connect")
		purego.RegisterLibFunc(&wlDisplayDisconnect, lib, "wl_display_disconnect")
		purego.RegisterLibFunc(&wlDisplayRoundtrip, lib, "wl_display_roundtrip")
		purego.RegisterLibFunc(&wlDisplayDispatch, lib, "wl_display_dispatch")
		purego.RegisterLibFunc(&wlDisplayFlush, lib, "wl_display_flush")
		purego.RegisterLibFunc(&wlProxyAddListener, lib, "wl_proxy_add_listener")
		purego.RegisterLibFunc(&wlProxyDestroy, lib, "wl_proxy_destroy")
		purego.RegisterLibFunc(&wlProxyMarshal, lib, "wl_proxy_marshal")
		purego.RegisterLibFunc(&wlProxyMarshalConstructor, lib, "wl_proxy_marshal_constructor")
		purego.RegisterLibFunc(&wlProxyMarshalConstructorVersioned, lib, "wl_proxy_marshal_constructor_versioned")

		if wlRegistryInterface, err = purego.Dlsym(lib, "wl_registry_interface"); err != nil {
			wlLoadErr = fmt.Errorf("resolve wl_registry_interface: %w", err)
			return
		}
		if wlSeatInterface, err = purego.Dlsym(lib, "wl_seat_interface"); err != nil {
			wlLoadErr = fmt.Errorf("resolve wl_seat_interface: %w", err)
			return
		}

		buildDataControlInterfaces()
		initWaylandCallbacks()
	})
	return wlLoadErr
}

func buildDataControlInterfaces() {
	// wl_seat_interface lives in the loaded library, outside the Go heap.
	seatIface := (*wlIface)(unsafe.Pointer(wlSeatInterface))

	managerMethods = []wlMessage{
		message("create_data_source", "n", typeArray(&ifaceDataControlSource)),
		message("get_data_device", "no", typeArray(&ifaceDataControlDevice, seatIface)),
		message("destroy", "", nil),
	}
	fillIface(&ifaceDataControlManager, "zwlr_data_control_manager_v1", 2, managerMethods, nil)

	deviceMethods = []wlMessage{
		message("set_selection", "?o", typeArray(&ifaceDataControlSource)),
		message("destroy", "", nil),
		message("set_primary_selection", "2?o", typeArray(&ifaceDataControlSource)),
	}
	deviceEvents = []wlMessage{
		message("data_offer", "n", typeArray(&ifaceDataControlOffer)),
		message("selection", "?o", typeArray(&ifaceDataControlOffer)),
		message("finished", "", nil),
		message("primary_selection", "2?o", typeArray(&ifaceDataControlOffer)),
	}
	fillIface(&ifaceDataControlDevice, "zwlr_data_control_device_v1", 2, deviceMethods, deviceEvents)

	sourceMethods = []wlMessage{
		message("offer", "s", typeArray(nil)),
		message("destroy", "", nil),
	}
	sourceEvents = []wlMessage{
		message("send", "sh", typeArray(nil, nil)),
		message("cancelled", "", nil),
	}
	fillIface(&ifaceDataControlSource, "zwlr_data_control_source_v1", 1, sourceMethods, sourceEvents)

	offerMethods = []wlMessage{
		message("receive", "sh", typeArray(nil, nil)),
		message("destroy", "", nil),
	}
	offerEvents = []wlMessage{
		message("offer", "s", typeArray(nil)),
	}
	fillIface(&ifaceDataControlOffer, "zwlr_data_control_offer_v1", 1, offerMethods, offerEvents)
}

// registryBind issues wl_registry.bind for one advertised global.
func registryBind(registry uintptr, name uint32, iface uintptr, ifaceName string, version uint32) uintptr {
	return wlProxyMarshalConstructorVersioned(registry, opRegistryBind,
		iface, version,
		uintptr(name), uintptr(unsafe.Pointer(cstr(ifaceName))), uintptr(version), 0)
}
