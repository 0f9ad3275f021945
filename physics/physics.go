// Package physics defines the rigid-body capability the simulation core drives.
// Backends live in the chipmunk and box2d subpackages.
package physics

import (
	"errors"
	"image/color"
	"math"
)

var (
	ErrNilBody         = errors.New("physics: body is nil")
	ErrForeignBody     = errors.New("physics: body belongs to another world")
	ErrUnsupportedKind = errors.New("physics: unsupported body kind")
)

// Kind is the simulation type of a body.
type Kind string

const (
	KindStatic    Kind = "static"
	KindKinematic Kind = "kinematic"
	KindDynamic   Kind = "dynamic"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindStatic, KindKinematic, KindDynamic:
		return true
	}
	return false
}

// Shape selects the fixture geometry of a body.
type Shape string

const (
	ShapeBox     Shape = "box"
	ShapeCircle  Shape = "circle"
	ShapePolygon Shape = "polygon"
)

// Vec is a 2D vector in world units.
type Vec struct {
	X float64
	Y float64
}

func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// Finite reports whether both components are real numbers.
func (v Vec) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// AABB is an axis-aligned box given by its lower and upper corners.
type AABB struct {
	Lower Vec
	Upper Vec
}

// AABBAround returns a box of half extent h centered on p.
func AABBAround(p Vec, h float64) AABB {
	return AABB{
		Lower: Vec{X: p.X - h, Y: p.Y - h},
		Upper: Vec{X: p.X + h, Y: p.Y + h},
	}
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec {
	return Vec{X: (b.Lower.X + b.Upper.X) / 2, Y: (b.Lower.Y + b.Upper.Y) / 2}
}

// Contains reports whether p lies inside the box, edges included.
func (b AABB) Contains(p Vec) bool {
	return p.X >= b.Lower.X && p.X <= b.Upper.X && p.Y >= b.Lower.Y && p.Y <= b.Upper.Y
}

// Body is a handle to one simulated body.
type Body interface {
	Position() Vec
	Angle() float64
	Velocity() Vec
	Kind() Kind
}

// QueryFunc visits a body found by a region query. Returning false stops the
// query and makes that body the result.
type QueryFunc func(b Body) bool

// Capability is the physics engine surface the simulation core consumes.
type Capability interface {
	CreateBody(def BodyDefinition) (Body, error)
	Step(dt float64, velocityIterations, positionIterations int)
	QueryRegion(box AABB, visit QueryFunc) Body
	DestroyBody(b Body) error
}

// DebugCanvas receives debug geometry in world coordinates.
type DebugCanvas interface {
	DrawLine(a, b Vec, c color.Color)
}

// DebugDrawer is implemented by capabilities that can draw their own state.
type DebugDrawer interface {
	DrawDebug(canvas DebugCanvas)
}
