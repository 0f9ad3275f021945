package ecs

import (
	"errors"

	"github.com/milk9111/simcore/physics"
)

type fakeBody struct {
	def       physics.BodyDefinition
	pos       physics.Vec
	angle     float64
	destroyed int
}

func (b *fakeBody) Position() physics.Vec { return b.pos }
func (b *fakeBody) Angle() float64        { return b.angle }
func (b *fakeBody) Velocity() physics.Vec { return b.def.Velocity }
func (b *fakeBody) Kind() physics.Kind    { return b.def.Kind }

func (b *fakeBody) contains(p physics.Vec) bool {
	w, h := b.def.Extent()
	box := physics.AABB{
		Lower: physics.Vec{X: b.pos.X - w/2, Y: b.pos.Y - h/2},
		Upper: physics.Vec{X: b.pos.X + w/2, Y: b.pos.Y + h/2},
	}
	return box.Contains(p)
}

type stepCall struct {
	dt       float64
	vel, pos int
}

// fakeCapability moves dynamic bodies by their velocity on every step.
type fakeCapability struct {
	bodies    []*fakeBody
	steps     []stepCall
	destroys  int
	createErr error
}

func (c *fakeCapability) CreateBody(def physics.BodyDefinition) (physics.Body, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	b := &fakeBody{def: def, pos: def.Center()}
	c.bodies = append(c.bodies, b)
	return b, nil
}

func (c *fakeCapability) Step(dt float64, vel, pos int) {
	c.steps = append(c.steps, stepCall{dt: dt, vel: vel, pos: pos})
	for _, b := range c.bodies {
		if b.destroyed > 0 || b.def.Kind == physics.KindStatic {
			continue
		}
		b.pos = b.pos.Add(physics.Vec{X: b.def.Velocity.X * dt, Y: b.def.Velocity.Y * dt})
		b.angle += 0.01
	}
}

func (c *fakeCapability) QueryRegion(box physics.AABB, visit physics.QueryFunc) physics.Body {
	for _, b := range c.bodies {
		if b.destroyed > 0 || !b.contains(box.Center()) {
			continue
		}
		if !visit(b) {
			return b
		}
	}
	return nil
}

func (c *fakeCapability) DestroyBody(b physics.Body) error {
	fb, ok := b.(*fakeBody)
	if !ok {
		return errors.New("foreign body")
	}
	fb.destroyed++
	c.destroys++
	return nil
}

func (c *fakeCapability) live() int {
	n := 0
	for _, b := range c.bodies {
		if b.destroyed == 0 {
			n++
		}
	}
	return n
}

// recordingScheduler keeps requested frames until fire is called.
type recordingScheduler struct {
	queued []func()
	log    *[]string
}

func (s *recordingScheduler) RequestFrame(fn func()) {
	if s.log != nil {
		*s.log = append(*s.log, "request")
	}
	s.queued = append(s.queued, fn)
}

func (s *recordingScheduler) fire() {
	q := s.queued
	s.queued = nil
	for _, fn := range q {
		fn()
	}
}
