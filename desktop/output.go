package desktop

import (
	"slices"

	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

// A Layer is one of the four ordered stacking layers a layer surface can
// request.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay

	NumLayers
)

func (l Layer) Valid() bool {
	return l >= LayerBackground && l < NumLayers
}

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	}
	return "invalid"
}

// An Output is one display sink, its four ordered layer-surface lists, and
// its damage accumulator.
type Output struct {
	desktop  *Desktop
	handle   OutputHandle
	layers   [NumLayers][]*LayerSurface
	damage   Region
	detached bool
}

// AddOutput registers a new output with the desktop. The glue is expected to
// have added the backend output to the layout already, so that the handle's
// geometry is valid.
func (d *Desktop) AddOutput(h OutputHandle) *Output {
	out := &Output{desktop: d, handle: h}
	d.outputs = append(d.outputs, out)
	logrus.WithField("output", h.Name()).Debugln("output attached")
	return out
}

func (o *Output) Handle() OutputHandle {
	return o.handle
}

// Layer returns the layer surfaces on one of the four stacking layers, in
// insertion order.
func (o *Output) Layer(l Layer) []*LayerSurface {
	return o.layers[l]
}

// Damage returns the output's damage accumulator.
func (o *Output) Damage() *Region {
	return &o.damage
}

// DamageBox accumulates damage for the next frame. The whole flag marks the
// box as a full-surface region rather than client-reported buffer damage.
// It must be called whenever the geometry, stacking order, or visibility of
// any surface on this output changes.
func (o *Output) DamageBox(b geom.Rect[float64], whole bool) {
	o.damage.Add(b, whole)
}

// SurfaceAt hit-tests the point in back-to-front order and returns the
// surface under it along with surface-local coordinates. Layer surfaces
// occupy z-order and damage but are not pointer-focus targets, so only the
// mapped application view is a candidate. The match is against the view's
// bounding box.
func (o *Output) SurfaceAt(lx, ly float64) (s SurfaceHandle, sx, sy float64, ok bool) {
	p := geom.Pt(lx, ly)
	for i := len(o.desktop.views) - 1; i >= 0; i-- {
		view := o.desktop.views[i]
		if view.Output() != o || !view.Mapped() {
			continue
		}
		g := view.Geometry()
		if p.In(g) {
			return view.Surface(), lx - g.Min.X, ly - g.Min.Y, true
		}
	}
	return nil, 0, 0, false
}

// Detach handles the backend destroying the output. Every layer surface
// still bound to it is force-closed while the output is still registered,
// and the output is then removed from the desktop. Calling Detach again is a
// no-op.
func (o *Output) Detach() {
	if o.detached {
		return
	}
	o.detached = true

	for _, list := range &o.layers {
		for _, ls := range slices.Clone(list) {
			ls.outputDestroyed()
		}
	}

	d := o.desktop
	i := slices.Index(d.outputs, o)
	if i >= 0 {
		d.outputs = slices.Delete(d.outputs, i, i+1)
	}

	logrus.WithField("output", o.handle.Name()).Debugln("output detached")
}

// Detached reports whether the backend output is gone.
func (o *Output) Detached() bool {
	return o.detached
}
