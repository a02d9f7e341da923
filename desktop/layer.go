package desktop

import (
	"slices"

	"deedles.dev/ximage/geom"
	"github.com/sirupsen/logrus"
)

// A LayerSurface is one anchored overlay surface bound to an output's
// stacking layer. It participates in damage and z-order but never in input
// focus.
type LayerSurface struct {
	desktop *Desktop
	handle  LayerSurfaceHandle

	// output is nil only after the output the surface was bound to has
	// vanished; the surface is force-closed at that point rather than left
	// dangling.
	output *Output

	layer     Layer
	geo       geom.Rect[float64]
	mapped    bool
	destroyed bool
}

// AddLayerSurface registers a new layer surface on out. A nil out binds the
// surface to the first output; if there is no output at all, the surface is
// closed immediately and nothing is registered.
func (d *Desktop) AddLayerSurface(h LayerSurfaceHandle, out *Output) (*LayerSurface, error) {
	if out == nil {
		if len(d.outputs) == 0 {
			h.Close()
			return nil, ErrNoOutput
		}
		out = d.outputs[0]
	}

	layer := h.Layer()
	if !layer.Valid() {
		layer = LayerBackground
	}

	// Geometry is not read here: the glue only finishes wiring the handle
	// once registration returns, so it is captured at map and commit time.
	ls := &LayerSurface{
		desktop: d,
		handle:  h,
		output:  out,
		layer:   layer,
	}
	out.layers[layer] = append(out.layers[layer], ls)

	logrus.WithFields(logrus.Fields{
		"namespace": h.Namespace(),
		"layer":     layer,
		"output":    out.handle.Name(),
	}).Debugln("new layer surface")
	return ls, nil
}

func (ls *LayerSurface) Handle() LayerSurfaceHandle { return ls.handle }

func (ls *LayerSurface) Output() *Output { return ls.output }

func (ls *LayerSurface) Layer() Layer { return ls.layer }

func (ls *LayerSurface) Geometry() geom.Rect[float64] { return ls.geo }

func (ls *LayerSurface) Mapped() bool { return ls.mapped }

func (ls *LayerSurface) Destroyed() bool { return ls.destroyed }

// Map handles the surface becoming visible: whole-surface damage plus the
// entered-output notification the client needs for scale selection.
func (ls *LayerSurface) Map() {
	if ls.destroyed || ls.output == nil {
		return
	}
	ls.mapped = true
	ls.geo = ls.handle.Geometry()
	ls.output.DamageBox(ls.geo, true)
	ls.handle.Surface().EnterOutput(ls.output.handle)
}

// Unmap damages the last-known geometry, but only while the surface is still
// bound to a live output.
func (ls *LayerSurface) Unmap() {
	ls.mapped = false
	if ls.output != nil {
		ls.output.DamageBox(ls.geo, true)
	}
}

// Commit reconciles the surface's committed state: a changed layer moves it
// between the output's ordered lists, a changed layer or geometry damages
// both the old and new boxes whole, and an unchanged commit accumulates only
// incremental damage.
func (ls *LayerSurface) Commit() {
	if ls.destroyed || ls.output == nil {
		return
	}

	old := ls.geo
	ls.geo = ls.handle.Geometry()
	geometryChanged := !old.Eq(ls.geo)

	requested := ls.handle.Layer()
	layerChanged := requested.Valid() && requested != ls.layer
	if layerChanged {
		ls.output.removeLayerSurface(ls)
		ls.output.layers[requested] = append(ls.output.layers[requested], ls)
		ls.layer = requested
	}

	switch {
	case layerChanged || geometryChanged:
		ls.output.DamageBox(old, true)
		ls.output.DamageBox(ls.geo, true)
	default:
		ls.output.DamageBox(ls.geo, false)
	}
}

// Destroy handles the protocol object going away. Unmap damage runs first if
// the surface was mapped. Destroying twice is a no-op.
func (ls *LayerSurface) Destroy() {
	if ls.destroyed {
		return
	}
	ls.destroyed = true

	logrus.WithField("namespace", ls.handle.Namespace()).Debugln("layer surface destroyed")

	if ls.mapped {
		ls.Unmap()
	}
	if ls.output != nil {
		ls.output.removeLayerSurface(ls)
		ls.output = nil
	}
}

// outputDestroyed force-closes the surface when its output is going away.
// It runs while the output is still registered, so the surface is never
// observed holding a reference to an unregistered output.
func (ls *LayerSurface) outputDestroyed() {
	if ls.output != nil {
		ls.output.removeLayerSurface(ls)
		ls.output = nil
	}
	ls.handle.Close()
}

func (o *Output) removeLayerSurface(ls *LayerSurface) {
	list := o.layers[ls.layer]
	i := slices.Index(list, ls)
	if i >= 0 {
		o.layers[ls.layer] = slices.Delete(list, i, i+1)
	}
}
