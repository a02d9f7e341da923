package desktop

import (
	"errors"
	"slices"

	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/internal/events"
	"github.com/sirupsen/logrus"
)

// ViewState is a view's position in the created → mapped ⇄ unmapped →
// destroyed lifecycle.
type ViewState int

const (
	ViewCreated ViewState = iota
	ViewMapped
	ViewUnmapped
	ViewDestroyed
)

func (s ViewState) String() string {
	switch s {
	case ViewCreated:
		return "created"
	case ViewMapped:
		return "mapped"
	case ViewUnmapped:
		return "unmapped"
	case ViewDestroyed:
		return "destroyed"
	}
	return "invalid"
}

// A View is one application surface and its lifecycle. The interface is
// closed over the capability set the rest of the compositor needs; today the
// only implementation is ToplevelView, but Output and the seat operate
// against this interface only.
type View interface {
	Map()
	Unmap()
	Destroy()

	State() ViewState
	Mapped() bool
	Geometry() geom.Rect[float64]
	Surface() SurfaceHandle
	Handle() ToplevelHandle
	Output() *Output

	// OnMap and OnUnmap register lifecycle observers. The returned cancel
	// must be called by the subscriber during its own teardown.
	OnMap(func(View)) (cancel func())
	OnUnmap(func(View)) (cancel func())
}

var ErrNoOutput = errors.New("no output to bind surface to")

// A ToplevelView wraps one top-level application surface. Its lifecycle is
// independent of the backing protocol object: the view exists from the new-
// surface event until the protocol destroy, whether or not it was ever shown.
type ToplevelView struct {
	desktop *Desktop
	handle  ToplevelHandle
	output  *Output
	state   ViewState
	geo     geom.Rect[float64]

	mapped   events.Signal[View]
	unmapped events.Signal[View]
}

// AddToplevel registers a new application view. The view is bound to the
// first output in creation order, the kiosk's single display, before it is
// ever visible. If no output exists the event is dropped and nothing is
// registered.
func (d *Desktop) AddToplevel(h ToplevelHandle) (*ToplevelView, error) {
	if len(d.outputs) == 0 {
		return nil, ErrNoOutput
	}

	v := &ToplevelView{
		desktop: d,
		handle:  h,
		output:  d.outputs[0],
		state:   ViewCreated,
	}
	d.views = append(d.views, v)
	return v, nil
}

func (v *ToplevelView) State() ViewState { return v.state }

func (v *ToplevelView) Mapped() bool { return v.state == ViewMapped }

func (v *ToplevelView) Geometry() geom.Rect[float64] { return v.geo }

func (v *ToplevelView) Surface() SurfaceHandle { return v.handle.Surface() }

func (v *ToplevelView) Handle() ToplevelHandle { return v.handle }

func (v *ToplevelView) Output() *Output { return v.output }

func (v *ToplevelView) OnMap(fn func(View)) func() { return v.mapped.Subscribe(fn) }

func (v *ToplevelView) OnUnmap(fn func(View)) func() { return v.unmapped.Subscribe(fn) }

// Map handles the backing surface becoming visible.
func (v *ToplevelView) Map() {
	if v.state == ViewMapped || v.state == ViewDestroyed {
		return
	}
	v.state = ViewMapped
	v.geo = v.handle.Geometry()
	// The output can be gone by the time the map arrives; the view still
	// maps, it just has no live output to damage or announce itself on.
	if !v.output.Detached() {
		v.output.DamageBox(v.geo, true)
		v.handle.Surface().EnterOutput(v.output.handle)
	}
	v.mapped.Emit(v)
}

// Unmap handles the backing surface being hidden. The view's last geometry
// is damaged so the next frame repaints what was underneath it.
func (v *ToplevelView) Unmap() {
	if v.state != ViewMapped {
		return
	}
	v.state = ViewUnmapped
	if v.output != nil && !v.output.Detached() {
		v.output.DamageBox(v.geo, true)
	}
	v.unmapped.Emit(v)
}

// UpdateGeometry records a new surface geometry, damaging both the old and
// new boxes.
func (v *ToplevelView) UpdateGeometry(g geom.Rect[float64]) {
	if v.state == ViewDestroyed || g.Eq(v.geo) {
		return
	}
	old := v.geo
	v.geo = g
	if v.output != nil && !v.output.Detached() && v.state == ViewMapped {
		v.output.DamageBox(old, true)
		v.output.DamageBox(g, true)
	}
}

// Destroy handles the backing protocol object going away, from any state.
// A mapped view is unmapped first so that damage clearing runs; the output
// back-reference is then invalidated and the view deregistered. Destroying
// twice is a no-op.
func (v *ToplevelView) Destroy() {
	if v.state == ViewDestroyed {
		return
	}
	if v.state == ViewMapped {
		v.Unmap()
	}
	v.state = ViewDestroyed
	v.output = nil

	d := v.desktop
	i := slices.IndexFunc(d.views, func(view View) bool { return view == View(v) })
	if i >= 0 {
		d.views = slices.Delete(d.views, i, i+1)
	}

	logrus.Debugln("view destroyed")
}
