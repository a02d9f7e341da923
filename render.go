package main

import (
	"image"
	"image/color"
	"time"

	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/desktop"
)

// colorBackground fills the parts of the output no surface covers.
var colorBackground = color.NRGBA{A: 0xFF}

func (server *Server) onFrame(o *output) {
	_, err := o.wout.AttachRender()
	if err != nil {
		wlr.Log(wlr.Error, "output attach render: %v", err)
		return
	}
	defer o.wout.Commit()

	// Everything accumulated since the last frame is repainted by this
	// frame. A failed attach above keeps the records for the next one.
	o.out.Damage().Take()

	server.renderer.Begin(o.wout, o.wout.Width(), o.wout.Height())
	defer server.renderer.End()

	server.renderer.Clear(colorBackground)
	server.renderLayer(o, desktop.LayerBackground)
	server.renderLayer(o, desktop.LayerBottom)
	server.renderViews(o)
	server.renderLayer(o, desktop.LayerTop)
	server.renderLayer(o, desktop.LayerOverlay)
	o.wout.RenderSoftwareCursors(image.ZR)
}

func (server *Server) renderLayer(o *output, layer desktop.Layer) {
	for _, ls := range o.out.Layer(layer) {
		if !ls.Mapped() {
			continue
		}

		l := ls.Handle().(*layerSurface)
		origin := geom.PConv[int](ls.Geometry().Min)
		l.surface.Surface().ForEachSurface(func(s wlr.Surface, x, y int) {
			server.renderSurface(o, s, origin.Add(geom.Pt(x, y)))
		})
	}
}

func (server *Server) renderViews(o *output) {
	for _, view := range server.desktop.Views() {
		if !view.Mapped() || view.Output() != o.out {
			continue
		}

		server.renderView(o, view)
	}
}

func (server *Server) renderView(o *output, view desktop.View) {
	tl := view.Handle().(*toplevel)

	// The view's geometry tracks the client's window geometry, which may be
	// inset from the surface root. Walk coordinates are surface-root relative.
	inset := geom.FromImageRect(tl.surface.GetGeometry()).Min
	origin := geom.PConv[int](view.Geometry().Min).Sub(inset)
	tl.surface.ForEachSurface(func(s wlr.Surface, x, y int) {
		server.renderSurface(o, s, origin.Add(geom.Pt(x, y)))
	})
}

func (server *Server) renderSurface(o *output, s wlr.Surface, p geom.Point[int]) {
	texture := s.GetTexture()
	if !texture.Valid() {
		return
	}

	r := surfaceBounds(s).Add(p)
	tr := s.Current().Transform().Invert()
	m := wlr.ProjectBoxMatrix(r.ImageRect(), tr, 0, o.wout.TransformMatrix())

	server.renderer.RenderTextureWithMatrix(texture, m, 1)
	s.SendFrameDone(time.Now())
}

func surfaceBounds(s wlr.Surface) geom.Rect[int] {
	c := s.Current()
	return geom.Rt(0, 0, c.Width(), c.Height())
}
