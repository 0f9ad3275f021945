package ecs

import (
	"github.com/milk9111/simcore/common"
	"github.com/milk9111/simcore/physics"
	"go.uber.org/zap"
)

// Option configures a PhysicsWorld, Registry or Loop. Each constructor reads
// only the settings that concern it.
type Option func(*options)

type options struct {
	log *zap.Logger

	step               float64
	velocityIterations int
	positionIterations int
	debugOffset        physics.Vec

	mode        Mode
	maxEntities int
	firstID     int
	events      bool

	clock       Clock
	maxDelta    float64
	autoCompact bool
	afterTick   func(dt float64)
}

func defaultOptions() options {
	return options{
		log:                zap.NewNop(),
		step:               common.StepSize,
		velocityIterations: common.VelocityIterations,
		positionIterations: common.PositionIterations,
		mode:               ModePlay,
		maxEntities:        common.MaxEntities,
		firstID:            common.FirstEntityID,
		clock:              WallClock{},
		maxDelta:           common.MaxFrameDelta,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithStep sets the fixed physics step in seconds.
func WithStep(step float64) Option {
	return func(o *options) {
		if step > 0 {
			o.step = step
		}
	}
}

// WithIterations sets the solver iteration counts passed on every step.
func WithIterations(velocity, position int) Option {
	return func(o *options) {
		if velocity > 0 {
			o.velocityIterations = velocity
		}
		if position > 0 {
			o.positionIterations = position
		}
	}
}

// WithDebugOffset shifts debug geometry before it reaches the canvas.
func WithDebugOffset(offset physics.Vec) Option {
	return func(o *options) {
		o.debugOffset = offset
	}
}

// WithMode selects play or edit mode for the registry.
func WithMode(mode Mode) Option {
	return func(o *options) {
		if mode.Valid() {
			o.mode = mode
		}
	}
}

// WithMaxEntities caps the registry size.
func WithMaxEntities(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntities = n
		}
	}
}

// WithFirstID sets the first id handed out to entities without one.
func WithFirstID(id int) Option {
	return func(o *options) {
		if id > 0 {
			o.firstID = id
		}
	}
}

// WithEvents makes the registry record lifecycle events. The caller must
// drain Registry.Events regularly.
func WithEvents() Option {
	return func(o *options) {
		o.events = true
	}
}

// WithClock replaces the wall clock used by the loop.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMaxDelta sets the largest frame delta the loop forwards, in seconds.
func WithMaxDelta(d float64) Option {
	return func(o *options) {
		if d > 0 {
			o.maxDelta = d
		}
	}
}

// WithAutoCompact makes the loop drop dead entities after every tick.
func WithAutoCompact(enabled bool) Option {
	return func(o *options) {
		o.autoCompact = enabled
	}
}

// WithAfterTick registers a hook called at the end of every tick with the
// clamped frame delta.
func WithAfterTick(fn func(dt float64)) Option {
	return func(o *options) {
		o.afterTick = fn
	}
}
