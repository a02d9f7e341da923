package desktop

import "deedles.dev/ximage/geom"

type fakeOutputHandle struct {
	name string
	box  geom.Rect[float64]
}

func (h *fakeOutputHandle) Name() string { return h.name }
func (h *fakeOutputHandle) Geometry() geom.Rect[float64] { return h.box }

type fakeSurface struct {
	entered []OutputHandle
}

func (s *fakeSurface) EnterOutput(o OutputHandle) {
	s.entered = append(s.entered, o)
}

type fakeToplevel struct {
	surface *fakeSurface
	box     geom.Rect[float64]
}

func newFakeToplevel(box geom.Rect[float64]) *fakeToplevel {
	return &fakeToplevel{surface: new(fakeSurface), box: box}
}

func (h *fakeToplevel) Surface() SurfaceHandle { return h.surface }
func (h *fakeToplevel) Geometry() geom.Rect[float64] { return h.box }

type fakeLayerHandle struct {
	surface   *fakeSurface
	namespace string
	layer     Layer
	box       geom.Rect[float64]
	closed    int
}

func newFakeLayerHandle(namespace string, layer Layer, box geom.Rect[float64]) *fakeLayerHandle {
	return &fakeLayerHandle{surface: new(fakeSurface), namespace: namespace, layer: layer, box: box}
}

func (h *fakeLayerHandle) Surface() SurfaceHandle { return h.surface }
func (h *fakeLayerHandle) Namespace() string { return h.namespace }
func (h *fakeLayerHandle) Layer() Layer { return h.layer }
func (h *fakeLayerHandle) Geometry() geom.Rect[float64] { return h.box }
func (h *fakeLayerHandle) Close() { h.closed++ }

func newTestOutput(d *Desktop, name string, box geom.Rect[float64]) *Output {
	return d.AddOutput(&fakeOutputHandle{name: name, box: box})
}
