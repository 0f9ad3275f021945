package system

import "github.com/milk9111/simcore/physics"

// Camera maps world units to screen pixels. The world point (X, Y) lands on
// the screen point (OriginX, OriginY).
type Camera struct {
	X       float64
	Y       float64
	Scale   float64
	OriginX float64
	OriginY float64
}

func (c Camera) scale() float64 {
	if c.Scale <= 0 {
		return 1
	}
	return c.Scale
}

// ToScreen converts a world position to pixels.
func (c Camera) ToScreen(v physics.Vec) (float64, float64) {
	s := c.scale()
	return (v.X-c.X)*s + c.OriginX, (v.Y-c.Y)*s + c.OriginY
}

// ToWorld converts a pixel position to world units.
func (c Camera) ToWorld(x, y float64) physics.Vec {
	s := c.scale()
	return physics.Vec{X: (x-c.OriginX)/s + c.X, Y: (y-c.OriginY)/s + c.Y}
}
