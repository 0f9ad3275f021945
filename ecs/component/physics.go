package component

import "github.com/milk9111/simcore/physics"

// PhysicsBody binds a physics handle to the definition it was created from.
// The shape tag of the definition selects which dimensions are meaningful.
type PhysicsBody struct {
	handle    physics.Body
	def       physics.BodyDefinition
	id        int
	destroyed bool
}

// NewPhysicsBody wraps handle. def should already be normalized.
func NewPhysicsBody(handle physics.Body, def physics.BodyDefinition, id int) *PhysicsBody {
	def.Points = append([]physics.Vec(nil), def.Points...)
	return &PhysicsBody{handle: handle, def: def, id: id}
}

// Handle returns the underlying physics handle, or nil once destroyed.
func (b *PhysicsBody) Handle() physics.Body {
	if b == nil || b.destroyed {
		return nil
	}
	return b.handle
}

// Definition returns a copy of the definition the body was built from.
func (b *PhysicsBody) Definition() physics.BodyDefinition {
	if b == nil {
		return physics.BodyDefinition{}
	}
	def := b.def
	def.Points = append([]physics.Vec(nil), b.def.Points...)
	return def
}

func (b *PhysicsBody) Shape() physics.Shape {
	if b == nil {
		return ""
	}
	return b.def.Shape
}

func (b *PhysicsBody) ID() int {
	if b == nil {
		return 0
	}
	return b.id
}

func (b *PhysicsBody) Kind() physics.Kind {
	if b == nil {
		return ""
	}
	return b.def.Kind
}

// Position returns the current body position.
func (b *PhysicsBody) Position() physics.Vec {
	if b == nil || b.handle == nil || b.destroyed {
		return physics.Vec{}
	}
	return b.handle.Position()
}

// Angle returns the current body rotation in radians.
func (b *PhysicsBody) Angle() float64 {
	if b == nil || b.handle == nil || b.destroyed {
		return 0
	}
	return b.handle.Angle()
}

func (b *PhysicsBody) Velocity() physics.Vec {
	if b == nil || b.handle == nil || b.destroyed {
		return physics.Vec{}
	}
	return b.handle.Velocity()
}

func (b *PhysicsBody) Destroyed() bool {
	return b == nil || b.destroyed
}

// Release hands the handle to destroy exactly once. Later calls do nothing.
func (b *PhysicsBody) Release(destroy func(physics.Body) error) error {
	if b == nil || b.destroyed {
		return nil
	}
	b.destroyed = true
	if destroy == nil || b.handle == nil {
		return nil
	}
	return destroy(b.handle)
}
