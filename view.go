package main

import (
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/desktop"
	"github.com/sirupsen/logrus"
)

// surfaceHandle adapts a wlr.Surface to desktop.SurfaceHandle. It is a value
// type so that two handles for the same surface compare equal.
type surfaceHandle struct {
	s wlr.Surface
}

func (sh surfaceHandle) EnterOutput(o desktop.OutputHandle) {
	sh.s.SendEnter(o.(*output).wout)
}

// toplevel glues one XDG top-level surface to its desktop view.
type toplevel struct {
	server  *Server
	view    *desktop.ToplevelView
	surface wlr.XDGSurface

	onMap     wlr.Listener
	onUnmap   wlr.Listener
	onCommit  wlr.Listener
	onDestroy wlr.Listener
}

func (tl *toplevel) Surface() desktop.SurfaceHandle {
	return surfaceHandle{s: tl.surface.Surface()}
}

func (tl *toplevel) Geometry() geom.Rect[float64] {
	g := geom.FromImageRect(tl.surface.GetGeometry())
	base := tl.view.Output().Handle().Geometry()
	return geom.RConv[float64](g).Add(base.Min)
}

func (server *Server) onNewXDGSurface(surface wlr.XDGSurface) {
	if surface.Role() != wlr.XDGSurfaceRoleTopLevel {
		return
	}

	tl := &toplevel{server: server, surface: surface}
	view, err := server.desktop.AddToplevel(tl)
	if err != nil {
		logrus.WithError(err).Errorln("new top-level surface dropped")
		return
	}
	tl.view = view

	tl.onMap = surface.OnMap(func(surface wlr.XDGSurface) {
		tl.configureFullscreen()
		view.Map()
		server.refreshPointerFocus()
		server.focusKeyboard(tl)
	})
	tl.onUnmap = surface.OnUnmap(func(surface wlr.XDGSurface) {
		view.Unmap()
		server.refreshPointerFocus()
	})
	tl.onCommit = surface.Surface().OnCommit(func(s wlr.Surface) {
		view.UpdateGeometry(tl.Geometry())
	})
	tl.onDestroy = surface.OnDestroy(func(surface wlr.XDGSurface) {
		tl.onMap.Destroy()
		tl.onUnmap.Destroy()
		tl.onCommit.Destroy()
		tl.onDestroy.Destroy()
		view.Destroy()
	})
}

// configureFullscreen sizes the client to fill its output. The kiosk shows
// exactly one application surface, full screen, for the session's duration.
func (tl *toplevel) configureFullscreen() {
	box := tl.view.Output().Handle().Geometry()
	tl.surface.Toplevel().SetSize(int32(box.Dx()), int32(box.Dy()))
	tl.surface.Toplevel().SetActivated(true)
}

// focusKeyboard hands keyboard focus to the application surface. Keyboard
// focus state itself lives in the wlr seat.
func (server *Server) focusKeyboard(tl *toplevel) {
	keyboard := server.wlrSeat.GetKeyboard()
	if !keyboard.Valid() {
		return
	}
	server.wlrSeat.KeyboardNotifyEnter(tl.surface.Surface(), keyboard.Keycodes(), keyboard.Modifiers())
}
