package main

import (
	"os"
	"time"

	"deedles.dev/wlr"
	"deedles.dev/wlr/xkb"
	"github.com/kioskwm/kiosk/desktop"
	"github.com/kioskwm/kiosk/seat"
)

// inputDevice adapts a wlr.InputDevice to seat.Device. It is a value type so
// that add and remove see the same identity.
type inputDevice struct {
	dev wlr.InputDevice
}

func (d inputDevice) Name() string {
	return d.dev.Name()
}

func (d inputDevice) Type() seat.DeviceType {
	switch d.dev.Type() {
	case wlr.InputDeviceTypeKeyboard:
		return seat.DeviceKeyboard
	case wlr.InputDeviceTypePointer:
		return seat.DevicePointer
	case wlr.InputDeviceTypeTouch:
		return seat.DeviceTouch
	case wlr.InputDeviceTypeSwitch:
		return seat.DeviceSwitch
	case wlr.InputDeviceTypeTabletTool:
		return seat.DeviceTabletTool
	default:
		return seat.DeviceTabletPad
	}
}

type keyboard struct {
	device wlr.Keyboard

	onModifiers wlr.Listener
	onKey       wlr.Listener
	onDestroy   wlr.Listener
}

func (server *Server) onNewInput(device wlr.InputDevice) {
	switch device.Type() {
	case wlr.InputDeviceTypeKeyboard:
		server.addKeyboard(device)
	case wlr.InputDeviceTypePointer:
		server.addPointer(device)
	}

	dev := inputDevice{dev: device}
	server.seat.AddDevice(dev)
	device.OnDestroy(func(device wlr.InputDevice) {
		server.seat.RemoveDevice(dev)
	})
}

func (server *Server) addKeyboard(device wlr.InputDevice) {
	kb := &keyboard{device: device.Keyboard()}

	rules := xkb.RuleNames{
		Rules:   os.Getenv("XKB_DEFAULT_RULES"),
		Model:   os.Getenv("XKB_DEFAULT_MODEL"),
		Layout:  os.Getenv("XKB_DEFAULT_LAYOUT"),
		Variant: os.Getenv("XKB_DEFAULT_VARIANT"),
		Options: os.Getenv("XKB_DEFAULT_OPTIONS"),
	}

	ctx := xkb.NewContext(xkb.ContextNoFlags)
	defer ctx.Unref()
	keymap := xkb.NewKeymapFromNames(ctx, &rules, xkb.KeymapCompileNoFlags)
	defer keymap.Unref()

	kb.device.SetKeymap(keymap)
	kb.device.SetRepeatInfo(25, 600)

	kb.onModifiers = kb.device.OnModifiers(func(k wlr.Keyboard) {
		server.wlrSeat.SetKeyboard(kb.device)
		server.wlrSeat.KeyboardNotifyModifiers(kb.device.Modifiers())
	})
	kb.onKey = kb.device.OnKey(func(k wlr.Keyboard, t time.Time, code uint32, update bool, state wlr.KeyState) {
		server.wlrSeat.SetKeyboard(kb.device)
		server.wlrSeat.KeyboardNotifyKey(t, code, state)
	})
	kb.onDestroy = device.OnDestroy(func(device wlr.InputDevice) {
		kb.onModifiers.Destroy()
		kb.onKey.Destroy()
		kb.onDestroy.Destroy()
		for i, other := range server.keyboards {
			if other == kb {
				server.keyboards = append(server.keyboards[:i], server.keyboards[i+1:]...)
				break
			}
		}
	})

	server.wlrSeat.SetKeyboard(kb.device)
	server.keyboards = append(server.keyboards, kb)
}

func (server *Server) addPointer(device wlr.InputDevice) {
	server.cursor.AttachInputDevice(device)
	server.setCursor("left_ptr")
}

func (server *Server) setCursor(name string) {
	server.cursorMgr.SetCursorImage(name, server.cursor)
}

func (server *Server) onCursorMotion(dev wlr.Pointer, t time.Time, dx, dy float64) {
	server.cursor.Move(dev.Base(), dx, dy)
	server.routePointer(t)
}

func (server *Server) onCursorMotionAbsolute(dev wlr.Pointer, t time.Time, x, y float64) {
	server.cursor.WarpAbsolute(dev.Base(), x, y)
	server.routePointer(t)
}

func (server *Server) routePointer(t time.Time) {
	server.seat.PointerMotion(t, server.cursor.X(), server.cursor.Y())
}

// refreshPointerFocus re-routes the pointer after something other than
// motion changed what is underneath it. The zero time updates focus without
// synthesizing a motion event.
func (server *Server) refreshPointerFocus() {
	server.seat.PointerMotion(time.Time{}, server.cursor.X(), server.cursor.Y())
}

func (server *Server) onCursorButton(dev wlr.Pointer, t time.Time, b wlr.CursorButton, state wlr.ButtonState) {
	server.wlrSeat.PointerNotifyButton(t, b, state)
}

func (server *Server) onCursorAxis(dev wlr.Pointer, t time.Time, source wlr.AxisSource, orient wlr.AxisOrientation, delta float64, deltaDiscrete int32) {
	server.wlrSeat.PointerNotifyAxis(t, orient, delta, deltaDiscrete, source)
}

func (server *Server) onCursorFrame() {
	server.wlrSeat.PointerNotifyFrame()
}

func (server *Server) onRequestCursor(client wlr.SeatClient, surface wlr.Surface, serial uint32, hotspotX, hotspotY int32) {
	focused := server.wlrSeat.PointerState().FocusedClient()
	if focused == client {
		server.cursor.SetSurface(surface, hotspotX, hotspotY)
	}
}

// seatNotifier carries the core seat's focus and capability changes out to
// the wlr seat.
type seatNotifier Server

func (n *seatNotifier) server() *Server {
	return (*Server)(n)
}

func (n *seatNotifier) PointerEnter(s desktop.SurfaceHandle, sx, sy float64) {
	n.server().wlrSeat.PointerNotifyEnter(s.(surfaceHandle).s, sx, sy)
}

func (n *seatNotifier) PointerMotion(t time.Time, sx, sy float64) {
	n.server().wlrSeat.PointerNotifyMotion(t, sx, sy)
}

func (n *seatNotifier) PointerClearFocus() {
	n.server().wlrSeat.PointerNotifyClearFocus()
}

func (n *seatNotifier) SetCapabilities(caps seat.Capabilities) {
	var c wlr.SeatCapability
	if caps&seat.CapPointer != 0 {
		c |= wlr.SeatCapabilityPointer
	}
	if caps&seat.CapKeyboard != 0 {
		c |= wlr.SeatCapabilityKeyboard
	}
	n.server().wlrSeat.SetCapabilities(c)
}
