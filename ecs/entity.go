package ecs

import (
	"fmt"

	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
)

// Pose is the position and rotation an entity had after the last update.
type Pose struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Angle float64 `yaml:"angle"`
}

// Entity is one simulated object. Its pose is only written by the Registry
// that manages it.
type Entity struct {
	id         int
	def        physics.BodyDefinition
	settings   component.Settings
	body       *component.PhysicsBody
	pose       Pose
	components []component.Hooks

	alive       bool
	initialized bool
	removing    bool
	released    bool
	onPress     func(e *Entity)
}

// NewEntity creates a detached entity. The definition is normalized and the
// starting pose is taken from it.
func NewEntity(def physics.BodyDefinition, settings component.Settings, components ...any) (*Entity, error) {
	def = def.Normalized()
	if !settings.PhysicsType.Valid() {
		settings.PhysicsType = def.Kind
	}
	center := def.Center()
	e := &Entity{
		def:      def,
		settings: settings.Clone(),
		pose:     Pose{X: center.X, Y: center.Y},
	}
	for _, c := range components {
		if err := e.AddComponent(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddComponent appends c to the update order. It must be called before the
// entity is initialized.
func (e *Entity) AddComponent(c any) error {
	if e == nil {
		return ErrNilEntity
	}
	if e.initialized {
		return fmt.Errorf("ecs: entity %d: %w", e.id, ErrAlreadyInitialized)
	}
	h, err := component.Describe(c)
	if err != nil {
		return fmt.Errorf("ecs: add component %T: %w", c, err)
	}
	e.components = append(e.components, h)
	return nil
}

// SetOnPress installs the handler Registry.OnPress forwards to.
func (e *Entity) SetOnPress(fn func(e *Entity)) {
	if e == nil {
		return
	}
	e.onPress = fn
}

func (e *Entity) ID() int {
	if e == nil {
		return 0
	}
	return e.id
}

// Pose returns the last synchronized pose.
func (e *Entity) Pose() Pose {
	if e == nil {
		return Pose{}
	}
	return e.pose
}

// Definition returns a copy of the body definition.
func (e *Entity) Definition() physics.BodyDefinition {
	if e == nil {
		return physics.BodyDefinition{}
	}
	def := e.def
	def.Points = append([]physics.Vec(nil), e.def.Points...)
	return def
}

// Settings returns a copy of the entity settings.
func (e *Entity) Settings() component.Settings {
	if e == nil {
		return component.Settings{}
	}
	return e.settings.Clone()
}

// Body returns the physics binding, or nil for entities without physics.
func (e *Entity) Body() *component.PhysicsBody {
	if e == nil {
		return nil
	}
	return e.body
}

func (e *Entity) Alive() bool {
	return e != nil && e.alive
}

func (e *Entity) Initialized() bool {
	return e != nil && e.initialized
}

// Components returns the attached components in update order.
func (e *Entity) Components() []any {
	if e == nil {
		return nil
	}
	out := make([]any, 0, len(e.components))
	for _, h := range e.components {
		out = append(out, h.Component)
	}
	return out
}

func (e *Entity) syncPose() {
	if e.body == nil || e.body.Destroyed() {
		return
	}
	pos := e.body.Position()
	e.pose = Pose{X: pos.X, Y: pos.Y, Angle: e.body.Angle()}
}

// update runs every updater in order and reports whether any asked for
// removal. All updaters run even after the first request.
func (e *Entity) update() bool {
	remove := false
	for _, h := range e.components {
		if h.Update == nil {
			continue
		}
		if h.Update.Update(e.body, &e.settings).Remove {
			remove = true
		}
	}
	return remove
}

func (e *Entity) release() {
	if e.released {
		return
	}
	e.released = true
	for _, h := range e.components {
		if h.Release != nil {
			h.Release.Release()
		}
	}
}
