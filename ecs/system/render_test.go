package system

import (
	"image/color"
	"math"
	"testing"

	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/physics"
)

func near(a, b physics.Vec) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestCameraRoundTrip(t *testing.T) {
	cam := Camera{X: 2, Y: -1, Scale: 24, OriginX: 480, OriginY: 270}
	x, y := cam.ToScreen(physics.Vec{X: 2, Y: -1})
	if x != 480 || y != 270 {
		t.Fatalf("camera target maps to (%v,%v), want origin", x, y)
	}
	p := physics.Vec{X: 7.5, Y: 3.25}
	sx, sy := cam.ToScreen(p)
	if got := cam.ToWorld(sx, sy); !near(got, p) {
		t.Fatalf("round trip = %v, want %v", got, p)
	}
	if x, _ := (Camera{}).ToScreen(physics.Vec{X: 3}); x != 3 {
		t.Fatalf("zero scale should act as 1, got %v", x)
	}
}

func TestOutline(t *testing.T) {
	cases := []struct {
		name  string
		def   physics.BodyDefinition
		pose  ecs.Pose
		count int
		first physics.Vec
	}{
		{
			name:  "box",
			def:   physics.BodyDefinition{Shape: physics.ShapeBox, Width: 2, Height: 4},
			pose:  ecs.Pose{X: 10, Y: 10},
			count: 4,
			first: physics.Vec{X: 9, Y: 8},
		},
		{
			name:  "box_rotated",
			def:   physics.BodyDefinition{Shape: physics.ShapeBox, Width: 2, Height: 2},
			pose:  ecs.Pose{Angle: math.Pi / 2},
			count: 4,
			first: physics.Vec{X: 1, Y: -1},
		},
		{
			name:  "circle",
			def:   physics.BodyDefinition{Shape: physics.ShapeCircle, Radius: 2},
			pose:  ecs.Pose{X: 1},
			count: circleSegments,
			first: physics.Vec{X: 3},
		},
		{
			name:  "polygon",
			def:   physics.BodyDefinition{Shape: physics.ShapePolygon, Points: []physics.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}},
			pose:  ecs.Pose{X: 5, Y: 5},
			count: 3,
			first: physics.Vec{X: 5, Y: 5},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pts := Outline(c.def, c.pose)
			if len(pts) != c.count {
				t.Fatalf("points = %d, want %d", len(pts), c.count)
			}
			if !near(pts[0], c.first) {
				t.Fatalf("first = %v, want %v", pts[0], c.first)
			}
		})
	}
}

func TestRenderSystemColorCache(t *testing.T) {
	r := NewRenderSystem(nil)
	if got := r.color("#00FF00"); got != (color.NRGBA{G: 255, A: 255}) {
		t.Fatalf("hex color = %#v", got)
	}
	if got := r.color("not a color"); got != fallbackColor {
		t.Fatalf("bad color should fall back, got %#v", got)
	}
	if len(r.colors) != 2 {
		t.Fatalf("cache size = %d, want 2", len(r.colors))
	}
}
