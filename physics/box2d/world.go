// Package box2d implements physics.Capability on top of the Box2D port
// github.com/ByteArena/box2d. Unlike Chipmunk it honors separate velocity and
// position iteration counts.
package box2d

import (
	"fmt"

	b2 "github.com/ByteArena/box2d"
	"github.com/milk9111/simcore/physics"
)

// World owns a Box2D world and the bodies created through it.
type World struct {
	world  *b2.B2World
	bodies map[*b2.B2Body]*Body
}

// Body is a Box2D body created by World.
type Body struct {
	body  *b2.B2Body
	kind  physics.Kind
	owner *World
}

// NewWorld creates a world with the given gravity.
func NewWorld(gravity physics.Vec) *World {
	w := b2.MakeB2World(b2.MakeB2Vec2(gravity.X, gravity.Y))
	return &World{
		world:  &w,
		bodies: make(map[*b2.B2Body]*Body),
	}
}

// Len reports how many bodies are alive in the world.
func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return len(w.bodies)
}

func bodyType(k physics.Kind) (uint8, bool) {
	switch k {
	case physics.KindStatic:
		return b2.B2BodyType.B2_staticBody, true
	case physics.KindKinematic:
		return b2.B2BodyType.B2_kinematicBody, true
	case physics.KindDynamic:
		return b2.B2BodyType.B2_dynamicBody, true
	}
	return 0, false
}

// CreateBody builds one body and its fixture from def.
func (w *World) CreateBody(def physics.BodyDefinition) (physics.Body, error) {
	if w == nil || w.world == nil {
		return nil, fmt.Errorf("box2d: create body: %w", physics.ErrNilBody)
	}
	def = def.Normalized()

	typ, ok := bodyType(def.Kind)
	if !ok {
		return nil, fmt.Errorf("box2d: create body %q: %w", def.Name, physics.ErrUnsupportedKind)
	}

	center := def.Center()
	bd := b2.MakeB2BodyDef()
	bd.Type = typ
	bd.Position = b2.MakeB2Vec2(center.X, center.Y)
	bd.LinearVelocity = b2.MakeB2Vec2(def.Velocity.X, def.Velocity.Y)

	body := w.world.CreateBody(&bd)

	fd := b2.MakeB2FixtureDef()
	fd.Density = def.Material.Density
	fd.Friction = def.Material.Friction
	fd.Restitution = def.Material.Restitution
	fd.IsSensor = def.Sensor

	switch def.Shape {
	case physics.ShapeCircle:
		circle := b2.MakeB2CircleShape()
		circle.M_radius = def.Radius
		fd.Shape = &circle
	case physics.ShapePolygon:
		poly := b2.MakeB2PolygonShape()
		verts := make([]b2.B2Vec2, len(def.Points))
		for i, p := range def.Points {
			verts[i] = b2.MakeB2Vec2(p.X, p.Y)
		}
		poly.Set(verts, len(verts))
		fd.Shape = &poly
	default:
		poly := b2.MakeB2PolygonShape()
		poly.SetAsBox(def.Width/2, def.Height/2)
		fd.Shape = &poly
	}

	b := &Body{body: body, kind: def.Kind, owner: w}
	fd.UserData = b
	body.CreateFixtureFromDef(&fd)
	body.SetUserData(b)

	w.bodies[body] = b
	return b, nil
}

// Step advances the world by dt with the given solver iteration counts.
func (w *World) Step(dt float64, velocityIterations, positionIterations int) {
	if w == nil || w.world == nil || dt <= 0 {
		return
	}
	w.world.Step(dt, velocityIterations, positionIterations)
}

// QueryRegion visits bodies whose fixtures overlap box and contain its center.
func (w *World) QueryRegion(box physics.AABB, visit physics.QueryFunc) physics.Body {
	if w == nil || w.world == nil || visit == nil {
		return nil
	}
	aabb := b2.MakeB2AABB()
	aabb.LowerBound = b2.MakeB2Vec2(box.Lower.X, box.Lower.Y)
	aabb.UpperBound = b2.MakeB2Vec2(box.Upper.X, box.Upper.Y)
	center := box.Center()
	point := b2.MakeB2Vec2(center.X, center.Y)

	var found physics.Body
	w.world.QueryAABB(func(fixture *b2.B2Fixture) bool {
		b, ok := fixture.GetUserData().(*Body)
		if !ok || b == nil {
			return true
		}
		if !fixture.TestPoint(point) {
			return true
		}
		if visit(b) {
			return true
		}
		found = b
		return false
	}, aabb)
	return found
}

// DestroyBody removes a body and its fixtures from the world.
func (w *World) DestroyBody(pb physics.Body) error {
	if w == nil || w.world == nil {
		return nil
	}
	b, ok := pb.(*Body)
	if !ok || b == nil {
		return fmt.Errorf("box2d: destroy body: %w", physics.ErrNilBody)
	}
	if b.owner != w {
		return fmt.Errorf("box2d: destroy body: %w", physics.ErrForeignBody)
	}
	if _, live := w.bodies[b.body]; !live {
		return nil
	}
	w.world.DestroyBody(b.body)
	delete(w.bodies, b.body)
	return nil
}

func (b *Body) Position() physics.Vec {
	if b == nil || b.body == nil {
		return physics.Vec{}
	}
	p := b.body.GetPosition()
	return physics.Vec{X: p.X, Y: p.Y}
}

func (b *Body) Angle() float64 {
	if b == nil || b.body == nil {
		return 0
	}
	return b.body.GetAngle()
}

func (b *Body) Velocity() physics.Vec {
	if b == nil || b.body == nil {
		return physics.Vec{}
	}
	v := b.body.GetLinearVelocity()
	return physics.Vec{X: v.X, Y: v.Y}
}

func (b *Body) Kind() physics.Kind {
	if b == nil {
		return ""
	}
	return b.kind
}
