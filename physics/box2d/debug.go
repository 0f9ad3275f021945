package box2d

import (
	"image/color"
	"math"

	b2 "github.com/ByteArena/box2d"
	"github.com/milk9111/simcore/physics"
)

const debugCircleSegments = 24

var (
	debugDynamic = color.NRGBA{R: 0x1a, G: 0x99, B: 0x1a, A: 0xe6}
	debugStatic  = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xe6}
)

// DrawDebug renders every fixture outline onto canvas.
func (w *World) DrawDebug(canvas physics.DebugCanvas) {
	if w == nil || canvas == nil {
		return
	}
	for body := range w.bodies {
		c := debugDynamic
		if body.GetType() == b2.B2BodyType.B2_staticBody {
			c = debugStatic
		}
		xf := body.GetTransform()
		for f := body.GetFixtureList(); f != nil; f = f.GetNext() {
			switch shape := f.GetShape().(type) {
			case *b2.B2PolygonShape:
				pts := make([]physics.Vec, shape.M_count)
				for i := 0; i < shape.M_count; i++ {
					v := b2.B2TransformVec2Mul(xf, shape.M_vertices[i])
					pts[i] = physics.Vec{X: v.X, Y: v.Y}
				}
				drawPolygon(canvas, pts, c)
			case *b2.B2CircleShape:
				center := b2.B2TransformVec2Mul(xf, shape.M_p)
				drawCircle(canvas, physics.Vec{X: center.X, Y: center.Y}, shape.M_radius, body.GetAngle(), c)
			}
		}
	}
}

func drawPolygon(canvas physics.DebugCanvas, pts []physics.Vec, c color.Color) {
	for i := range pts {
		canvas.DrawLine(pts[i], pts[(i+1)%len(pts)], c)
	}
}

func drawCircle(canvas physics.DebugCanvas, center physics.Vec, radius, angle float64, c color.Color) {
	if radius <= 0 {
		return
	}
	pts := make([]physics.Vec, debugCircleSegments)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / debugCircleSegments
		pts[i] = physics.Vec{X: center.X + math.Cos(t)*radius, Y: center.Y + math.Sin(t)*radius}
	}
	drawPolygon(canvas, pts, c)
	canvas.DrawLine(center, physics.Vec{X: center.X + math.Cos(angle)*radius, Y: center.Y + math.Sin(angle)*radius}, c)
}
