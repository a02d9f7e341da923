package main

import (
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/desktop"
	"github.com/sirupsen/logrus"
)

// layerSurface glues one wlr layer surface to its desktop.LayerSurface.
type layerSurface struct {
	server  *Server
	ls      *desktop.LayerSurface
	bound   *output
	surface wlr.LayerSurfaceV1

	onMap     wlr.Listener
	onUnmap   wlr.Listener
	onCommit  wlr.Listener
	onDestroy wlr.Listener
}

func (l *layerSurface) Surface() desktop.SurfaceHandle {
	return surfaceHandle{s: l.surface.Surface()}
}

func (l *layerSurface) Namespace() string {
	return l.surface.Namespace()
}

func (l *layerSurface) Layer() desktop.Layer {
	return desktop.Layer(l.surface.Current().Layer())
}

func (l *layerSurface) Geometry() geom.Rect[float64] {
	out := l.bound
	if l.ls != nil {
		core := l.ls.Output()
		if core == nil {
			return geom.Rect[float64]{}
		}
		out = core.Handle().(*output)
	}
	if out == nil {
		return geom.Rect[float64]{}
	}
	return arrangeLayerSurface(out.Geometry(), l.surface.Current())
}

func (l *layerSurface) Close() {
	l.surface.Close()
}

func (server *Server) onNewLayerSurface(surface wlr.LayerSurfaceV1) {
	current := surface.Current()
	logrus.WithFields(logrus.Fields{
		"namespace": surface.Namespace(),
		"layer":     desktop.Layer(current.Layer()),
		"size":      geom.Pt(current.DesiredWidth(), current.DesiredHeight()),
	}).Debugln("new layer shell surface")

	// A surface that names no output gets the kiosk's only one.
	var bound *output
	if surface.Output().Valid() {
		bound = server.outputFor(surface.Output())
	} else if len(server.outputs) > 0 {
		bound = server.outputs[0]
		surface.SetOutput(bound.wout)
	}

	l := &layerSurface{server: server, surface: surface, bound: bound}
	var coreOut *desktop.Output
	if bound != nil {
		coreOut = bound.out
	}
	ls, err := server.desktop.AddLayerSurface(l, coreOut)
	if err != nil {
		logrus.WithError(err).WithField("namespace", surface.Namespace()).
			Errorln("new layer surface dropped")
		return
	}
	l.ls = ls

	l.onMap = surface.OnMap(func(surface wlr.LayerSurfaceV1) {
		ls.Map()
	})
	l.onUnmap = surface.OnUnmap(func(surface wlr.LayerSurfaceV1) {
		ls.Unmap()
	})
	l.onCommit = surface.Surface().OnCommit(func(s wlr.Surface) {
		ls.Commit()
	})
	l.onDestroy = surface.OnDestroy(func(surface wlr.LayerSurfaceV1) {
		l.onMap.Destroy()
		l.onUnmap.Destroy()
		l.onCommit.Destroy()
		l.onDestroy.Destroy()
		ls.Destroy()
	})

	g := l.Geometry()
	surface.Configure(uint32(g.Dx()), uint32(g.Dy()))
}

func (server *Server) outputFor(wout wlr.Output) *output {
	for _, o := range server.outputs {
		if o.wout == wout {
			return o
		}
	}
	return nil
}

// arrangeLayerSurface computes a layer surface's box within the output from
// its committed anchors, desired size, and margins.
func arrangeLayerSurface(full geom.Rect[float64], state wlr.LayerSurfaceV1State) geom.Rect[float64] {
	anchor := state.Anchor()
	w := float64(state.DesiredWidth())
	h := float64(state.DesiredHeight())

	const (
		horiz = wlr.LayerSurfaceV1AnchorLeft | wlr.LayerSurfaceV1AnchorRight
		vert  = wlr.LayerSurfaceV1AnchorTop | wlr.LayerSurfaceV1AnchorBottom
	)

	// A zero desired size stretches between the matching anchors.
	if w == 0 && anchor&horiz == horiz {
		w = full.Dx()
	}
	if h == 0 && anchor&vert == vert {
		h = full.Dy()
	}

	var x float64
	switch {
	case anchor&horiz == horiz:
		x = full.Min.X + (full.Dx()-w)/2
	case anchor&wlr.LayerSurfaceV1AnchorLeft != 0:
		x = full.Min.X + float64(state.MarginLeft())
	case anchor&wlr.LayerSurfaceV1AnchorRight != 0:
		x = full.Max.X - w - float64(state.MarginRight())
	default:
		x = full.Min.X + (full.Dx()-w)/2
	}

	var y float64
	switch {
	case anchor&vert == vert:
		y = full.Min.Y + (full.Dy()-h)/2
	case anchor&wlr.LayerSurfaceV1AnchorTop != 0:
		y = full.Min.Y + float64(state.MarginTop())
	case anchor&wlr.LayerSurfaceV1AnchorBottom != 0:
		y = full.Max.Y - h - float64(state.MarginBottom())
	default:
		y = full.Min.Y + (full.Dy()-h)/2
	}

	return geom.Rt(x, y, x+w, y+h)
}
