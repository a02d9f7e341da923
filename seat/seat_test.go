package seat

import (
	"testing"
	"time"

	"deedles.dev/ximage/geom"
	"github.com/kioskwm/kiosk/desktop"
)

type fakeDevice struct {
	name string
	typ  DeviceType
}

func (d *fakeDevice) Name() string { return d.name }
func (d *fakeDevice) Type() DeviceType { return d.typ }

type notification struct {
	kind    string // "enter", "motion", "clear", "caps"
	surface desktop.SurfaceHandle
	sx, sy  float64
	caps    Capabilities
}

type fakeNotifier struct {
	sent []notification
}

func (n *fakeNotifier) PointerEnter(s desktop.SurfaceHandle, sx, sy float64) {
	n.sent = append(n.sent, notification{kind: "enter", surface: s, sx: sx, sy: sy})
}

func (n *fakeNotifier) PointerMotion(t time.Time, sx, sy float64) {
	n.sent = append(n.sent, notification{kind: "motion", sx: sx, sy: sy})
}

func (n *fakeNotifier) PointerClearFocus() {
	n.sent = append(n.sent, notification{kind: "clear"})
}

func (n *fakeNotifier) SetCapabilities(caps Capabilities) {
	n.sent = append(n.sent, notification{kind: "caps", caps: caps})
}

func (n *fakeNotifier) take() []notification {
	sent := n.sent
	n.sent = nil
	return sent
}

type fakeOutputHandle struct {
	name string
	box  geom.Rect[float64]
}

func (h *fakeOutputHandle) Name() string { return h.name }
func (h *fakeOutputHandle) Geometry() geom.Rect[float64] { return h.box }

type fakeSurface struct{}

func (*fakeSurface) EnterOutput(desktop.OutputHandle) {}

type fakeToplevel struct {
	surface *fakeSurface
	box     geom.Rect[float64]
}

func (h *fakeToplevel) Surface() desktop.SurfaceHandle { return h.surface }
func (h *fakeToplevel) Geometry() geom.Rect[float64] { return h.box }

func newTestSeat(t *testing.T) (*Seat, *fakeNotifier, *desktop.Desktop) {
	t.Helper()
	d := desktop.New()
	n := new(fakeNotifier)
	return New(d, n), n, d
}

func addMappedView(t *testing.T, d *desktop.Desktop, box geom.Rect[float64]) *fakeToplevel {
	t.Helper()
	h := &fakeToplevel{surface: new(fakeSurface), box: box}
	view, err := d.AddToplevel(h)
	if err != nil {
		t.Fatalf("AddToplevel: %v", err)
	}
	view.Map()
	return h
}

func TestCapabilitiesUnion(t *testing.T) {
	s, n, _ := newTestSeat(t)

	kb := &fakeDevice{name: "kb0", typ: DeviceKeyboard}
	ptr := &fakeDevice{name: "mouse0", typ: DevicePointer}

	s.AddDevice(ptr)
	if s.Capabilities() != CapPointer {
		t.Fatalf("caps = %b, want pointer only", s.Capabilities())
	}

	s.AddDevice(kb)
	if s.Capabilities() != CapPointer|CapKeyboard {
		t.Fatalf("caps = %b, want pointer|keyboard", s.Capabilities())
	}

	s.RemoveDevice(kb)
	if s.Capabilities()&CapKeyboard != 0 {
		t.Error("removing the last keyboard did not clear the keyboard capability")
	}

	// Every add/remove pushes the recomputed flags out, unconditionally.
	var pushes int
	for _, sent := range n.take() {
		if sent.kind == "caps" {
			pushes++
		}
	}
	if pushes != 3 {
		t.Errorf("capabilities pushed %d times, want 3", pushes)
	}
}

func TestUnsupportedDeviceIgnored(t *testing.T) {
	s, _, _ := newTestSeat(t)

	s.AddDevice(&fakeDevice{name: "kb0", typ: DeviceKeyboard})
	s.AddDevice(&fakeDevice{name: "touch0", typ: DeviceTouch})
	s.AddDevice(&fakeDevice{name: "tablet0", typ: DeviceTabletTool})

	if s.Capabilities() != CapKeyboard {
		t.Errorf("caps = %b, want keyboard only", s.Capabilities())
	}
}

func TestFocusMatchesHitTest(t *testing.T) {
	s, _, d := newTestSeat(t)
	out := d.AddOutput(&fakeOutputHandle{name: "out", box: geom.Rt[float64](0, 0, 1920, 1080)})
	addMappedView(t, d, geom.Rt[float64](100, 100, 900, 900))

	points := [][2]float64{{500, 500}, {50, 50}, {899, 899}, {901, 500}, {500, 500}}
	for _, p := range points {
		s.PointerMotion(time.Now(), p[0], p[1])

		want, _, _, ok := out.SurfaceAt(p[0], p[1])
		got := s.Cursor().Focus()
		if !ok && got != nil {
			t.Errorf("at (%v, %v): focus = %v, want nil", p[0], p[1], got)
		}
		if ok && got != want {
			t.Errorf("at (%v, %v): focus does not match SurfaceAt", p[0], p[1])
		}
	}
}

func TestEnterWithoutMotionOnFocusChange(t *testing.T) {
	s, n, d := newTestSeat(t)
	d.AddOutput(&fakeOutputHandle{name: "out", box: geom.Rt[float64](0, 0, 2000, 1000)})
	a := addMappedView(t, d, geom.Rt[float64](0, 0, 500, 500))
	b := addMappedView(t, d, geom.Rt[float64](1000, 0, 1500, 500))

	s.PointerMotion(time.Now(), 100, 100)
	sent := n.take()
	if len(sent) != 1 || sent[0].kind != "enter" || sent[0].surface != desktop.SurfaceHandle(a.surface) {
		t.Fatalf("first motion sent %v, want one enter for A", sent)
	}

	// Moving within A: motion only, no new enter semantics needed.
	s.PointerMotion(time.Now(), 200, 200)
	sent = n.take()
	if len(sent) != 2 || sent[0].kind != "enter" || sent[1].kind != "motion" {
		t.Fatalf("motion within A sent %v, want enter+motion", sent)
	}
	if sent[1].sx != 200 || sent[1].sy != 200 {
		t.Errorf("motion coords = (%v, %v), want surface-local (200, 200)", sent[1].sx, sent[1].sy)
	}

	// Crossing from A to B: enter for B, and no motion in the same tick.
	s.PointerMotion(time.Now(), 1100, 100)
	sent = n.take()
	if len(sent) != 1 || sent[0].kind != "enter" || sent[0].surface != desktop.SurfaceHandle(b.surface) {
		t.Fatalf("crossing to B sent %v, want a single enter for B", sent)
	}
	if sent[0].sx != 100 || sent[0].sy != 100 {
		t.Errorf("enter coords = (%v, %v), want surface-local (100, 100)", sent[0].sx, sent[0].sy)
	}
}

func TestSyntheticMotionUpdatesFocusOnly(t *testing.T) {
	s, n, d := newTestSeat(t)
	d.AddOutput(&fakeOutputHandle{name: "out", box: geom.Rt[float64](0, 0, 1000, 1000)})
	addMappedView(t, d, geom.Rt[float64](0, 0, 500, 500))

	s.PointerMotion(time.Time{}, 100, 100)
	s.PointerMotion(time.Time{}, 120, 120)

	for _, sent := range n.take() {
		if sent.kind == "motion" {
			t.Fatal("synthetic motion produced a time-elapsed motion event")
		}
	}
}

func TestNoSurfaceClearsFocus(t *testing.T) {
	s, n, d := newTestSeat(t)
	d.AddOutput(&fakeOutputHandle{name: "out", box: geom.Rt[float64](0, 0, 1000, 1000)})
	addMappedView(t, d, geom.Rt[float64](0, 0, 500, 500))

	s.PointerMotion(time.Now(), 100, 100)
	n.take()

	s.PointerMotion(time.Now(), 700, 700)
	sent := n.take()
	if len(sent) != 1 || sent[0].kind != "clear" {
		t.Fatalf("leaving the view sent %v, want a single clear", sent)
	}
	if s.Cursor().Focus() != nil {
		t.Error("focus not cleared")
	}

	x, y := s.Cursor().Position()
	if x != 700 || y != 700 {
		t.Errorf("cursor position = (%v, %v), want (700, 700)", x, y)
	}
}
