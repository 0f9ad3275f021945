package ecs

import (
	"github.com/milk9111/simcore/common"
	"go.uber.org/zap"
)

// FrameScheduler calls fn once, on the simulation goroutine, when the host
// is ready for the next frame.
type FrameScheduler interface {
	RequestFrame(fn func())
}

// Loop turns host frames into physics and registry updates. It is stopped
// until Init is called.
type Loop struct {
	physics   *PhysicsWorld
	registry  *Registry
	scheduler FrameScheduler
	clock     Clock

	maxDelta    float64
	autoCompact bool
	afterTick   func(dt float64)

	running bool
	pending bool
	last    int64
	fps     float64
	ticks   int
	log     *zap.Logger
}

// NewLoop wires a physics world and registry to a frame scheduler.
func NewLoop(pw *PhysicsWorld, r *Registry, scheduler FrameScheduler, opts ...Option) *Loop {
	o := buildOptions(opts)
	return &Loop{
		physics:     pw,
		registry:    r,
		scheduler:   scheduler,
		clock:       o.clock,
		maxDelta:    o.maxDelta,
		autoCompact: o.autoCompact,
		afterTick:   o.afterTick,
		log:         o.log,
	}
}

// Init marks the loop running and starts timing from now.
func (l *Loop) Init() {
	l.running = true
	l.last = l.clock.Now().UnixNano()
	l.log.Info("loop started", zap.Float64("max_delta", l.maxDelta))
}

// Start initializes the loop and requests its first frame. A frame still
// pending from before a Close is reused.
func (l *Loop) Start() {
	l.Init()
	l.request()
}

func (l *Loop) request() {
	if l.scheduler == nil || l.pending {
		return
	}
	l.pending = true
	l.scheduler.RequestFrame(l.Run)
}

// Run performs one tick and asks the scheduler for the next one. It does
// nothing once the loop is closed.
func (l *Loop) Run() {
	l.pending = false
	if !l.running {
		return
	}
	now := l.clock.Now().UnixNano()
	raw := float64(now-l.last) / 1e9
	if raw > 0 {
		l.fps = 1 / raw
	}
	dt := common.Clamp(raw, 0, l.maxDelta)

	l.request()

	l.physics.Update(dt)
	if l.registry != nil {
		l.registry.Update()
		if l.autoCompact {
			l.registry.Compact()
		}
	}
	l.last = now
	l.ticks++
	if l.afterTick != nil {
		l.afterTick(dt)
	}
}

// Close stops the loop. A frame already requested becomes a no-op.
func (l *Loop) Close() {
	if !l.running {
		return
	}
	l.running = false
	l.log.Info("loop stopped", zap.Int("ticks", l.ticks))
}

func (l *Loop) Running() bool {
	return l.running
}

// FPS returns the frame rate implied by the last unclamped frame delta.
func (l *Loop) FPS() float64 {
	return l.fps
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() int {
	return l.ticks
}
