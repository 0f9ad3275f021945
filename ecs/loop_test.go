package ecs

import (
	"math"
	"testing"
	"time"

	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
	"github.com/milk9111/simcore/physics/box2d"
	"github.com/milk9111/simcore/physics/chipmunk"
	"go.uber.org/zap/zaptest"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestLoop(t *testing.T, opts ...Option) (*Loop, *ManualClock, *recordingScheduler, *fakeCapability) {
	t.Helper()
	pw, capability := newTestWorld(t)
	r := NewRegistry(pw, WithLogger(zaptest.NewLogger(t)))
	clock := NewManualClock(epoch)
	sched := &recordingScheduler{}
	opts = append([]Option{WithClock(clock), WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewLoop(pw, r, sched, opts...), clock, sched, capability
}

func TestLoopClampsDelta(t *testing.T) {
	cases := []struct {
		name    string
		advance time.Duration
		wantDt  float64
	}{
		{"normal_frame", 16 * time.Millisecond, 0.016},
		{"stall", 2 * time.Second, 1.0 / 15.0},
		{"clock_backwards", -time.Second, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var got float64
			l, clock, _, _ := newTestLoop(t, WithAfterTick(func(dt float64) { got = dt }))
			l.Init()
			clock.Advance(c.advance)
			l.Run()
			if math.Abs(got-c.wantDt) > 1e-9 {
				t.Fatalf("dt = %v, want %v", got, c.wantDt)
			}
		})
	}
}

func TestLoopStallStepsAtMostFour(t *testing.T) {
	l, clock, _, capability := newTestLoop(t)
	l.Init()
	clock.Advance(10 * time.Second)
	l.Run()
	if len(capability.steps) != 4 {
		t.Fatalf("steps after stall = %d, want 4", len(capability.steps))
	}
	if l.FPS() != 0.1 {
		t.Fatalf("fps = %v, want 0.1 from the raw delta", l.FPS())
	}
}

func TestLoopStoppedRunIsNoop(t *testing.T) {
	l, clock, sched, capability := newTestLoop(t)
	clock.Advance(time.Second)
	l.Run()
	if l.Ticks() != 0 || len(sched.queued) != 0 || len(capability.steps) != 0 {
		t.Fatalf("stopped loop ran a tick")
	}

	l.Start()
	if !l.Running() || len(sched.queued) != 1 {
		t.Fatalf("start should request one frame")
	}
	l.Close()
	clock.Advance(time.Second)
	sched.fire()
	if l.Ticks() != 0 || len(sched.queued) != 0 {
		t.Fatalf("pending frame ran after Close")
	}
	if l.Running() {
		t.Fatalf("loop should be stopped")
	}
}

func TestLoopRequestsFrameBeforeWork(t *testing.T) {
	var order []string
	pw, _ := newTestWorld(t)
	r := NewRegistry(pw)
	sched := &recordingScheduler{log: &order}
	e, err := NewEntity(physics.BodyDefinition{}, component.Settings{}, &countingComponent{
		onTick: func() { order = append(order, "update") },
	})
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if err := r.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Init()

	clock := NewManualClock(epoch)
	l := NewLoop(pw, r, sched, WithClock(clock))
	l.Init()
	clock.Advance(20 * time.Millisecond)
	l.Run()

	if len(order) != 2 || order[0] != "request" || order[1] != "update" {
		t.Fatalf("order = %v, want [request update]", order)
	}
}

func TestLoopPauseResumeKeepsOneChain(t *testing.T) {
	l, clock, sched, _ := newTestLoop(t)
	l.Start()
	for i := 0; i < 3; i++ {
		clock.Advance(16 * time.Millisecond)
		sched.fire()
	}
	l.Close()
	l.Start()
	if len(sched.queued) != 1 {
		t.Fatalf("queued frames = %d, want 1", len(sched.queued))
	}
	clock.Advance(16 * time.Millisecond)
	sched.fire()
	if l.Ticks() != 4 || len(sched.queued) != 1 {
		t.Fatalf("ticks=%d queued=%d, want 4 and 1", l.Ticks(), len(sched.queued))
	}
}

func TestLoopAutoCompact(t *testing.T) {
	l, clock, _, capability := newTestLoop(t, WithAutoCompact(true))
	e, err := NewEntity(dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic), &component.TTL{Frames: 2})
	if err != nil {
		t.Fatalf("entity: %v", err)
	}
	if err := l.registry.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	l.registry.Init()
	l.Init()
	for i := 0; i < 2; i++ {
		clock.Advance(16 * time.Millisecond)
		l.Run()
	}
	if l.registry.Len() != 0 || capability.live() != 0 {
		t.Fatalf("expired entity not compacted: len=%d live=%d", l.registry.Len(), capability.live())
	}
}

func TestFallUnderGravity(t *testing.T) {
	cases := []struct {
		name       string
		capability func(gravity physics.Vec) physics.Capability
	}{
		{"chipmunk", func(g physics.Vec) physics.Capability { return chipmunk.NewSpace(g) }},
		{"box2d", func(g physics.Vec) physics.Capability { return box2d.NewWorld(g) }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pw, err := NewPhysicsWorld(c.capability(physics.Vec{Y: 9.8}), WithLogger(zaptest.NewLogger(t)))
			if err != nil {
				t.Fatalf("new physics world: %v", err)
			}
			r := NewRegistry(pw)

			crate, _ := NewEntity(physics.BodyDefinition{Kind: physics.KindDynamic}, component.DefaultSettings(physics.KindDynamic))
			sceneSettings := component.DefaultSettings(physics.KindStatic)
			sceneSettings.HasPhysics = false
			scenery, _ := NewEntity(physics.BodyDefinition{Position: physics.Vec{X: 20, Y: 20}}, sceneSettings)
			if err := r.Load([]*Entity{crate, scenery}); err != nil {
				t.Fatalf("load: %v", err)
			}
			r.Init()

			clock := NewManualClock(epoch)
			sched := &recordingScheduler{}
			l := NewLoop(pw, r, sched, WithClock(clock))
			l.Start()

			// Every tick runs at least one step. A body at rest may hold
			// still on the first step, depending on whether the backend
			// applies gravity before or after moving it.
			prev := crate.Pose().Y
			for i := 0; i < 60; i++ {
				clock.Advance(17 * time.Millisecond)
				sched.fire()
				y := crate.Pose().Y
				if y < prev || (i > 0 && y == prev) {
					t.Fatalf("tick %d: y=%v did not increase from %v", i, y, prev)
				}
				prev = y
				if got := scenery.Pose(); got != (Pose{X: 20, Y: 20}) {
					t.Fatalf("tick %d: scenery moved to %+v", i, got)
				}
			}
			if l.Ticks() != 60 {
				t.Fatalf("ticks = %d, want 60", l.Ticks())
			}
			if prev <= 0 {
				t.Fatalf("crate did not fall: y=%v", prev)
			}
		})
	}
}
