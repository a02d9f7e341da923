// Package seat aggregates input devices into one logical seat and routes
// pointer focus to the surface under the cursor. Keyboard events are not
// routed here: they go straight to the protocol layer's keyboard-focus
// object, which already tracks that state.
package seat

import (
	"slices"
	"time"

	"github.com/kioskwm/kiosk/desktop"
	"github.com/sirupsen/logrus"
)

// DeviceType classifies an input device the backend reported.
type DeviceType int

const (
	DeviceKeyboard DeviceType = iota
	DevicePointer
	DeviceTouch
	DeviceSwitch
	DeviceTabletTool
	DeviceTabletPad
)

func (t DeviceType) String() string {
	switch t {
	case DeviceKeyboard:
		return "keyboard"
	case DevicePointer:
		return "pointer"
	case DeviceTouch:
		return "touch"
	case DeviceSwitch:
		return "switch"
	case DeviceTabletTool:
		return "tablet tool"
	case DeviceTabletPad:
		return "tablet pad"
	}
	return "unknown"
}

// A Device is one attached input device. Devices compare equal exactly when
// they refer to the same physical device.
type Device interface {
	Name() string
	Type() DeviceType
}

// Capabilities is the wl_seat capability bitmask advertised to clients.
type Capabilities uint32

const (
	CapPointer Capabilities = 1 << iota
	CapKeyboard
)

// A Notifier is the protocol layer's side of the seat: focus and capability
// changes flow out through it.
type Notifier interface {
	PointerEnter(s desktop.SurfaceHandle, sx, sy float64)
	PointerMotion(t time.Time, sx, sy float64)
	PointerClearFocus()
	SetCapabilities(caps Capabilities)
}

// Seat is the compositor's single logical input source.
type Seat struct {
	desktop  *desktop.Desktop
	notifier Notifier
	cursor   *Cursor

	keyboards []Device
	pointers  []Device
	caps      Capabilities
}

func New(d *desktop.Desktop, n Notifier) *Seat {
	return &Seat{
		desktop:  d,
		notifier: n,
		cursor:   new(Cursor),
	}
}

func (s *Seat) Cursor() *Cursor {
	return s.cursor
}

func (s *Seat) Capabilities() Capabilities {
	return s.caps
}

// AddDevice attaches a device of a supported class. Unsupported classes are
// logged and ignored. Capability flags are recomputed either way.
func (s *Seat) AddDevice(dev Device) {
	switch dev.Type() {
	case DeviceKeyboard:
		s.keyboards = append(s.keyboards, dev)
	case DevicePointer:
		s.pointers = append(s.pointers, dev)
	default:
		logrus.WithField("device", dev.Name()).Debugf("%v input is not implemented", dev.Type())
	}
	s.updateCapabilities()
}

// RemoveDevice detaches a device. Removing a device that was never attached
// is a no-op apart from the capability recompute.
func (s *Seat) RemoveDevice(dev Device) {
	switch dev.Type() {
	case DeviceKeyboard:
		s.keyboards = removeDevice(s.keyboards, dev)
	case DevicePointer:
		s.pointers = removeDevice(s.pointers, dev)
	}
	s.updateCapabilities()
}

func removeDevice(devices []Device, dev Device) []Device {
	i := slices.Index(devices, dev)
	if i < 0 {
		return devices
	}
	return slices.Delete(devices, i, i+1)
}

func (s *Seat) updateCapabilities() {
	var caps Capabilities
	if len(s.pointers) > 0 {
		caps |= CapPointer
	}
	if len(s.keyboards) > 0 {
		caps |= CapKeyboard
	}
	s.caps = caps
	s.notifier.SetCapabilities(caps)
}

// PointerMotion routes a pointer position to the surface under it. When the
// focused surface changes, the protocol enter (with its implied leave) is
// sent without a motion event in the same tick. A zero time marks synthetic
// motion, for example after a layout change, where only focus may update.
func (s *Seat) PointerMotion(t time.Time, lx, ly float64) {
	s.cursor.x, s.cursor.y = lx, ly

	var (
		surface desktop.SurfaceHandle
		sx, sy  float64
		ok      bool
	)
	if out := s.desktop.OutputAt(lx, ly); out != nil {
		surface, sx, sy, ok = out.SurfaceAt(lx, ly)
	}

	if !ok {
		s.cursor.focus = nil
		s.notifier.PointerClearFocus()
		return
	}

	changed := s.cursor.focus != surface
	s.cursor.focus = surface
	s.notifier.PointerEnter(surface, sx, sy)
	if !changed && !t.IsZero() {
		s.notifier.PointerMotion(t, sx, sy)
	}
}

// Destroy releases cursor and device state at shutdown.
func (s *Seat) Destroy() {
	s.cursor.focus = nil
	s.keyboards = nil
	s.pointers = nil
	s.caps = 0
}
