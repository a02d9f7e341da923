// Package desktop owns the compositor's live object graph: outputs, the
// application view, and layer surfaces. It is driven entirely by the wlroots
// glue at the repository root and holds no protocol or rendering state of its
// own; everything it needs from those layers arrives through the handle
// interfaces below.
//
// A Desktop and everything reachable from it belong to the display's event
// loop thread, from Run entry to return. Nothing here locks.
package desktop

import (
	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/internal/util"
)

// An OutputHandle is the backend's object for one display sink.
type OutputHandle interface {
	Name() string

	// Geometry is the output's box in layout coordinates.
	Geometry() geom.Rect[float64]
}

// A SurfaceHandle is the protocol layer's object for one client surface.
// Handles compare equal exactly when they refer to the same surface.
type SurfaceHandle interface {
	// EnterOutput notifies the client that the surface is being shown on
	// the given output, so that it can pick an appropriate scale.
	EnterOutput(o OutputHandle)
}

// A ToplevelHandle is the protocol object backing an application view.
type ToplevelHandle interface {
	Surface() SurfaceHandle
	Geometry() geom.Rect[float64]
}

// A LayerSurfaceHandle is the protocol object backing a layer surface.
type LayerSurfaceHandle interface {
	Surface() SurfaceHandle
	Namespace() string

	// Layer is the z-layer the client most recently committed.
	Layer() Layer

	// Geometry is the surface's computed position and size in layout
	// coordinates.
	Geometry() geom.Rect[float64]

	// Close asks the client to destroy the surface.
	Close()
}

// Desktop is the registry for the compositor's object graph. It is created
// once at startup and passed explicitly to every component that needs it.
type Desktop struct {
	outputs []*Output
	views   []View
}

func New() *Desktop {
	return &Desktop{}
}

// Outputs returns the attached outputs in attach order.
func (d *Desktop) Outputs() []*Output {
	return d.outputs
}

// Views returns the registered views in creation order.
func (d *Desktop) Views() []View {
	return d.views
}

// OutputAt returns the output whose layout box contains the given layout
// coordinates, or nil.
func (d *Desktop) OutputAt(lx, ly float64) *Output {
	out, ok := util.FindFunc(d.outputs, func(o *Output) bool {
		return geom.Pt(lx, ly).In(o.handle.Geometry())
	})
	if !ok {
		return nil
	}
	return out
}
