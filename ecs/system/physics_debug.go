package system

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/physics"
)

// DebugCanvas draws physics debug geometry onto an ebiten image.
type DebugCanvas struct {
	Screen *ebiten.Image
	Camera Camera
}

func (d DebugCanvas) DrawLine(a, b physics.Vec, c color.Color) {
	if d.Screen == nil {
		return
	}
	x1, y1 := d.Camera.ToScreen(a)
	x2, y2 := d.Camera.ToScreen(b)
	ebitenutil.DrawLine(d.Screen, x1, y1, x2, y2, c)
}

// DrawPhysicsDebug renders the body outlines of pw over screen.
func DrawPhysicsDebug(pw *ecs.PhysicsWorld, screen *ebiten.Image, cam Camera) {
	if pw == nil || screen == nil {
		return
	}
	pw.Render(DebugCanvas{Screen: screen, Camera: cam})
}
