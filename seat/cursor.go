package seat

import "github.com/kioskwm/kiosk/desktop"

// Cursor tracks the seat's absolute pointer position and the surface that
// currently holds pointer focus. The focus reference is nil or a surface
// that was mapped at the time of the last routing decision; it is cleared
// whenever routing finds nothing under the pointer.
type Cursor struct {
	x, y  float64
	focus desktop.SurfaceHandle
}

// Position returns the cursor's absolute layout coordinates.
func (c *Cursor) Position() (x, y float64) {
	return c.x, c.y
}

// Focus returns the surface holding pointer focus, or nil.
func (c *Cursor) Focus() desktop.SurfaceHandle {
	return c.focus
}
