package ecs

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/milk9111/simcore/common"
	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
	"go.uber.org/zap"
)

var ErrNoCapability = errors.New("ecs: physics capability is nil")

// PhysicsWorld drives a physics capability with a fixed timestep and creates
// the bodies entities bind to.
type PhysicsWorld struct {
	capability physics.Capability

	step               float64
	velocityIterations int
	positionIterations int
	remainder          float64
	steps              int

	debugOffset physics.Vec
	log         *zap.Logger
}

// NewPhysicsWorld wraps capability. It is the only constructor in the package
// that can fail.
func NewPhysicsWorld(capability physics.Capability, opts ...Option) (*PhysicsWorld, error) {
	if capability == nil {
		return nil, ErrNoCapability
	}
	o := buildOptions(opts)
	return &PhysicsWorld{
		capability:         capability,
		step:               o.step,
		velocityIterations: o.velocityIterations,
		positionIterations: o.positionIterations,
		debugOffset:        o.debugOffset,
		log:                o.log,
	}, nil
}

// AddBody creates a body from def and binds it to id. Missing dimensions fall
// back to a unit box or unit circle.
func (pw *PhysicsWorld) AddBody(def physics.BodyDefinition, id int) (*component.PhysicsBody, error) {
	if pw == nil || pw.capability == nil {
		return nil, ErrNoCapability
	}
	def = def.Normalized()
	handle, err := pw.capability.CreateBody(def)
	if err != nil {
		return nil, fmt.Errorf("ecs: create %s body for entity %d: %w", def.Shape, id, err)
	}
	pw.log.Debug("body created",
		zap.Int("entity", id),
		zap.String("shape", string(def.Shape)),
		zap.String("kind", string(def.Kind)),
	)
	return component.NewPhysicsBody(handle, def, id), nil
}

func (pw *PhysicsWorld) AddBoxBody(def physics.BodyDefinition, id int) (*component.PhysicsBody, error) {
	def.Shape = physics.ShapeBox
	return pw.AddBody(def, id)
}

func (pw *PhysicsWorld) AddCircleBody(def physics.BodyDefinition, id int) (*component.PhysicsBody, error) {
	def.Shape = physics.ShapeCircle
	return pw.AddBody(def, id)
}

func (pw *PhysicsWorld) AddPolyBody(def physics.BodyDefinition, id int) (*component.PhysicsBody, error) {
	def.Shape = physics.ShapePolygon
	return pw.AddBody(def, id)
}

// DestroyBody releases the handle of body exactly once. Nil and already
// destroyed bodies are ignored.
func (pw *PhysicsWorld) DestroyBody(body *component.PhysicsBody) error {
	if pw == nil || pw.capability == nil || body == nil || body.Destroyed() {
		return nil
	}
	id := body.ID()
	if err := body.Release(pw.capability.DestroyBody); err != nil {
		return fmt.Errorf("ecs: destroy body of entity %d: %w", id, err)
	}
	pw.log.Debug("body destroyed", zap.Int("entity", id))
	return nil
}

// stepEpsilon absorbs rounding when the accumulator sits on a step boundary.
const stepEpsilon = 1e-9

// Update adds dt seconds to the accumulator and runs as many fixed steps as
// fit. Negative and non-finite deltas are ignored.
func (pw *PhysicsWorld) Update(dt float64) {
	if pw == nil || pw.capability == nil {
		return
	}
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}
	pw.remainder += dt
	// Count whole steps in one division; repeated subtraction drifts.
	n := int(math.Floor(pw.remainder/pw.step + stepEpsilon))
	for i := 0; i < n; i++ {
		pw.capability.Step(pw.step, pw.velocityIterations, pw.positionIterations)
	}
	pw.steps += n
	pw.remainder = max(0, pw.remainder-float64(n)*pw.step)
}

// Steps returns the number of fixed steps run so far.
func (pw *PhysicsWorld) Steps() int {
	if pw == nil {
		return 0
	}
	return pw.steps
}

// Remainder returns the time carried over to the next Update.
func (pw *PhysicsWorld) Remainder() float64 {
	if pw == nil {
		return 0
	}
	return pw.remainder
}

// StepSize returns the fixed step in seconds.
func (pw *PhysicsWorld) StepSize() float64 {
	if pw == nil {
		return 0
	}
	return pw.step
}

// QueryBodyAt returns the first non-static body whose fixture contains p.
func (pw *PhysicsWorld) QueryBodyAt(p physics.Vec) physics.Body {
	if pw == nil || pw.capability == nil || !p.Finite() {
		return nil
	}
	box := physics.AABBAround(p, common.PickRadius)
	return pw.capability.QueryRegion(box, func(b physics.Body) bool {
		return b.Kind() == physics.KindStatic
	})
}

// Render draws the capability's debug geometry, when it has any.
func (pw *PhysicsWorld) Render(canvas physics.DebugCanvas) {
	if pw == nil || canvas == nil {
		return
	}
	drawer, ok := pw.capability.(physics.DebugDrawer)
	if !ok {
		return
	}
	if pw.debugOffset != (physics.Vec{}) {
		canvas = offsetCanvas{canvas: canvas, offset: pw.debugOffset}
	}
	drawer.DrawDebug(canvas)
}

type offsetCanvas struct {
	canvas physics.DebugCanvas
	offset physics.Vec
}

func (c offsetCanvas) DrawLine(a, b physics.Vec, col color.Color) {
	c.canvas.DrawLine(a.Add(c.offset), b.Add(c.offset), col)
}
