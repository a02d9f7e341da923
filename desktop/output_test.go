package desktop

import (
	"testing"

	"deedles.dev/ximage/geom"
)

func TestFreshOutputIsEmpty(t *testing.T) {
	d := New()
	out := newTestOutput(d, "HEADLESS-1", geom.Rt[float64](0, 0, 1920, 1080))

	for l := LayerBackground; l < NumLayers; l++ {
		if n := len(out.Layer(l)); n != 0 {
			t.Errorf("layer %v has %d surfaces, want 0", l, n)
		}
	}

	for _, p := range [][2]float64{{0, 0}, {960, 540}, {1919, 1079}, {-5, 20}} {
		if _, _, _, ok := out.SurfaceAt(p[0], p[1]); ok {
			t.Errorf("SurfaceAt(%v, %v) found a surface on an empty output", p[0], p[1])
		}
	}
}

func TestOutputAt(t *testing.T) {
	d := New()
	left := newTestOutput(d, "left", geom.Rt[float64](0, 0, 1920, 1080))
	right := newTestOutput(d, "right", geom.Rt[float64](1920, 0, 3840, 1080))

	if got := d.OutputAt(100, 100); got != left {
		t.Errorf("OutputAt(100, 100) = %v, want left output", got)
	}
	if got := d.OutputAt(2000, 100); got != right {
		t.Errorf("OutputAt(2000, 100) = %v, want right output", got)
	}
	if got := d.OutputAt(100, 5000); got != nil {
		t.Errorf("OutputAt(100, 5000) = %v, want nil", got)
	}
}

func TestSurfaceAtMappedView(t *testing.T) {
	d := New()
	out := newTestOutput(d, "out", geom.Rt[float64](0, 0, 1920, 1080))

	h := newFakeToplevel(geom.Rt[float64](100, 200, 900, 800))
	view, err := d.AddToplevel(h)
	if err != nil {
		t.Fatalf("AddToplevel: %v", err)
	}

	if _, _, _, ok := out.SurfaceAt(150, 250); ok {
		t.Fatal("unmapped view matched hit test")
	}

	view.Map()

	s, sx, sy, ok := out.SurfaceAt(150, 250)
	if !ok {
		t.Fatal("mapped view not found by hit test")
	}
	if s != SurfaceHandle(h.surface) {
		t.Errorf("hit test returned wrong surface")
	}
	if sx != 50 || sy != 50 {
		t.Errorf("surface-local coords = (%v, %v), want (50, 50)", sx, sy)
	}

	if _, _, _, ok := out.SurfaceAt(50, 50); ok {
		t.Error("hit test matched outside the view's box")
	}
}

func TestDetachIdempotent(t *testing.T) {
	d := New()
	out := newTestOutput(d, "out", geom.Rt[float64](0, 0, 1920, 1080))

	h := newFakeLayerHandle("bar", LayerTop, geom.Rt[float64](0, 0, 1920, 30))
	ls, err := d.AddLayerSurface(h, nil)
	if err != nil {
		t.Fatalf("AddLayerSurface: %v", err)
	}

	out.Detach()
	out.Detach()

	if len(d.Outputs()) != 0 {
		t.Errorf("output still registered after Detach")
	}
	if !out.Detached() {
		t.Error("Detached() = false after Detach")
	}
	if ls.Output() != nil {
		t.Error("layer surface still references a detached output")
	}
	if h.closed != 1 {
		t.Errorf("layer surface closed %d times, want 1", h.closed)
	}
}

func TestDetachClosesLayersBeforeDeregistering(t *testing.T) {
	d := New()
	out := newTestOutput(d, "out", geom.Rt[float64](0, 0, 1920, 1080))

	h := newFakeLayerHandle("bar", LayerOverlay, geom.Rt[float64](0, 0, 1920, 30))
	closeOrder := make(chan string, 2)
	ls, err := d.AddLayerSurface(h, out)
	if err != nil {
		t.Fatalf("AddLayerSurface: %v", err)
	}

	// Observe the registry at the moment of forced close: the output must
	// still be registered, and the surface must already be unbound.
	probe := &closeProbe{inner: h, fn: func() {
		if len(d.Outputs()) == 1 {
			closeOrder <- "registered"
		} else {
			closeOrder <- "gone"
		}
		if ls.Output() != nil {
			t.Error("layer surface still bound during forced close")
		}
	}}
	ls.handle = probe

	out.Detach()

	select {
	case got := <-closeOrder:
		if got != "registered" {
			t.Error("output left the registry before its layer surfaces were closed")
		}
	default:
		t.Fatal("layer surface was never closed")
	}
}

type closeProbe struct {
	inner LayerSurfaceHandle
	fn    func()
}

func (p *closeProbe) Surface() SurfaceHandle { return p.inner.Surface() }
func (p *closeProbe) Namespace() string { return p.inner.Namespace() }
func (p *closeProbe) Layer() Layer { return p.inner.Layer() }
func (p *closeProbe) Geometry() geom.Rect[float64] { return p.inner.Geometry() }
func (p *closeProbe) Close() {
	p.fn()
	p.inner.Close()
}

func TestDamageAccumulator(t *testing.T) {
	d := New()
	out := newTestOutput(d, "out", geom.Rt[float64](0, 0, 1920, 1080))

	out.DamageBox(geom.Rt[float64](0, 0, 10, 10), true)
	out.DamageBox(geom.Rt[float64](100, 100, 200, 200), false)

	records := out.Damage().Records()
	if len(records) != 2 {
		t.Fatalf("got %d damage records, want 2", len(records))
	}
	if !records[0].Whole || records[1].Whole {
		t.Error("whole flags not preserved")
	}

	want := geom.Rt[float64](0, 0, 200, 200)
	if !out.Damage().Bounds().Eq(want) {
		t.Errorf("Bounds() = %v, want %v", out.Damage().Bounds(), want)
	}

	out.Damage().Take()
	if !out.Damage().Empty() {
		t.Error("damage not empty after Take")
	}
}
