// Package chipmunk implements physics.Capability on top of the Chipmunk2D
// port github.com/jakecoffman/cp.
package chipmunk

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/simcore/physics"
)

// Space owns a Chipmunk space and every body created through it.
type Space struct {
	space  *cp.Space
	bodies map[*cp.Body]*Body
}

// Body is a Chipmunk body with the shapes attached to it.
type Body struct {
	body   *cp.Body
	shapes []*cp.Shape
	kind   physics.Kind
	owner  *Space
}

// NewSpace creates a space with the given gravity.
func NewSpace(gravity physics.Vec) *Space {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{X: gravity.X, Y: gravity.Y})
	return &Space{
		space:  space,
		bodies: make(map[*cp.Body]*Body),
	}
}

// Len reports how many bodies are alive in the space.
func (s *Space) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bodies)
}

// CreateBody builds one body and its fixture from def.
func (s *Space) CreateBody(def physics.BodyDefinition) (physics.Body, error) {
	if s == nil || s.space == nil {
		return nil, fmt.Errorf("chipmunk: create body: %w", physics.ErrNilBody)
	}
	def = def.Normalized()

	mass, moment := massFor(def)
	var body *cp.Body
	switch def.Kind {
	case physics.KindStatic:
		body = cp.NewStaticBody()
	case physics.KindKinematic:
		body = cp.NewKinematicBody()
	case physics.KindDynamic:
		body = cp.NewBody(mass, moment)
	default:
		return nil, fmt.Errorf("chipmunk: create body %q: %w", def.Name, physics.ErrUnsupportedKind)
	}

	center := def.Center()
	body.SetPosition(cp.Vector{X: center.X, Y: center.Y})
	body.SetAngle(0)
	if def.Kind != physics.KindStatic {
		body.SetVelocityVector(cp.Vector{X: def.Velocity.X, Y: def.Velocity.Y})
	}

	shape := newShape(body, def)
	shape.SetFriction(def.Material.Friction)
	shape.SetElasticity(def.Material.Restitution)
	shape.SetSensor(def.Sensor)

	b := &Body{body: body, shapes: []*cp.Shape{shape}, kind: def.Kind, owner: s}
	body.UserData = b
	shape.UserData = b

	s.space.AddBody(body)
	s.space.AddShape(shape)
	s.bodies[body] = b
	return b, nil
}

func newShape(body *cp.Body, def physics.BodyDefinition) *cp.Shape {
	switch def.Shape {
	case physics.ShapeCircle:
		return cp.NewCircle(body, def.Radius, cp.Vector{})
	case physics.ShapePolygon:
		verts := toVectors(def.Points)
		return cp.NewPolyShapeRaw(body, len(verts), verts, 0)
	}
	return cp.NewBox(body, def.Width, def.Height, 0)
}

func massFor(def physics.BodyDefinition) (float64, float64) {
	density := def.Material.Density
	if density <= 0 {
		density = physics.DefaultDensity
	}
	switch def.Shape {
	case physics.ShapeCircle:
		mass := density * cp.AreaForCircle(0, def.Radius)
		return mass, cp.MomentForCircle(mass, 0, def.Radius, cp.Vector{})
	case physics.ShapePolygon:
		verts := toVectors(def.Points)
		mass := density * cp.AreaForPoly(len(verts), verts, 0)
		return mass, cp.MomentForPoly(mass, len(verts), verts, cp.Vector{}, 0)
	}
	mass := density * def.Width * def.Height
	return mass, cp.MomentForBox(mass, def.Width, def.Height)
}

func toVectors(points []physics.Vec) []cp.Vector {
	out := make([]cp.Vector, len(points))
	for i, p := range points {
		out[i] = cp.Vector{X: p.X, Y: p.Y}
	}
	return out
}

// Step advances the space by dt. Chipmunk has a single iterative solver, so
// the velocity iteration count drives it and positionIterations is unused.
func (s *Space) Step(dt float64, velocityIterations, positionIterations int) {
	if s == nil || s.space == nil || dt <= 0 {
		return
	}
	if velocityIterations > 0 {
		s.space.Iterations = uint(velocityIterations)
	}
	s.space.Step(dt)
}

// QueryRegion visits bodies whose fixtures overlap box and contain its center.
func (s *Space) QueryRegion(box physics.AABB, visit physics.QueryFunc) physics.Body {
	if s == nil || s.space == nil || visit == nil {
		return nil
	}
	center := box.Center()
	reach := math.Max(box.Upper.X-box.Lower.X, box.Upper.Y-box.Lower.Y) / 2
	bb := cp.BB{L: box.Lower.X, B: box.Lower.Y, R: box.Upper.X, T: box.Upper.Y}

	var found physics.Body
	seen := make(map[*Body]struct{})
	s.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, data interface{}) {
		if found != nil || shape == nil {
			return
		}
		b, ok := shape.UserData.(*Body)
		if !ok || b == nil {
			return
		}
		if _, dup := seen[b]; dup {
			return
		}
		if shape.PointQuery(cp.Vector{X: center.X, Y: center.Y}).Distance > reach {
			return
		}
		seen[b] = struct{}{}
		if !visit(b) {
			found = b
		}
	}, nil)
	return found
}

// DestroyBody removes a body and its shapes from the space.
func (s *Space) DestroyBody(pb physics.Body) error {
	if s == nil || s.space == nil {
		return nil
	}
	b, ok := pb.(*Body)
	if !ok || b == nil {
		return fmt.Errorf("chipmunk: destroy body: %w", physics.ErrNilBody)
	}
	if b.owner != s {
		return fmt.Errorf("chipmunk: destroy body: %w", physics.ErrForeignBody)
	}
	if _, live := s.bodies[b.body]; !live {
		return nil
	}
	for _, shape := range b.shapes {
		s.space.RemoveShape(shape)
	}
	s.space.RemoveBody(b.body)
	delete(s.bodies, b.body)
	b.shapes = nil
	return nil
}

func (b *Body) Position() physics.Vec {
	if b == nil || b.body == nil {
		return physics.Vec{}
	}
	p := b.body.Position()
	return physics.Vec{X: p.X, Y: p.Y}
}

func (b *Body) Angle() float64 {
	if b == nil || b.body == nil {
		return 0
	}
	return b.body.Angle()
}

func (b *Body) Velocity() physics.Vec {
	if b == nil || b.body == nil {
		return physics.Vec{}
	}
	v := b.body.Velocity()
	return physics.Vec{X: v.X, Y: v.Y}
}

func (b *Body) Kind() physics.Kind {
	if b == nil {
		return ""
	}
	return b.kind
}
