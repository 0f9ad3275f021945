// Package engine assembles a physics world, a registry and a scene from
// configuration. Hosts add a frame scheduler and drive the loop.
package engine

import (
	"fmt"

	"github.com/milk9111/simcore/config"
	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/ecs/entity"
	"github.com/milk9111/simcore/physics"
	"github.com/milk9111/simcore/physics/box2d"
	"github.com/milk9111/simcore/physics/chipmunk"
	"github.com/milk9111/simcore/prefabs"
	"go.uber.org/zap"
)

// Engine is one simulation ready to be driven by a loop.
type Engine struct {
	Config    *config.Config
	Physics   *ecs.PhysicsWorld
	Registry  *ecs.Registry
	ScenePath string
	Scene     prefabs.SceneSpec

	log *zap.Logger
}

// New loads the scene at scenePath (or the configured default), builds the
// physics backend the config selects and loads the scene's entities.
func New(cfg *config.Config, scenePath string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if scenePath == "" {
		scenePath = cfg.Window.Scene
	}
	scene, err := prefabs.LoadScene(scenePath)
	if err != nil {
		return nil, err
	}

	gravity := physics.Vec{X: cfg.Physics.GravityX, Y: cfg.Physics.GravityY}
	if scene.Gravity != nil {
		gravity = physics.Vec{X: scene.Gravity.X, Y: scene.Gravity.Y}
	}
	capability, err := NewCapability(cfg.Physics.Engine, gravity)
	if err != nil {
		return nil, err
	}
	pw, err := ecs.NewPhysicsWorld(capability,
		ecs.WithStep(cfg.Physics.Step),
		ecs.WithIterations(cfg.Physics.VelocityIterations, cfg.Physics.PositionIterations),
		ecs.WithLogger(log.Named("physics")),
	)
	if err != nil {
		return nil, err
	}
	reg := ecs.NewRegistry(pw,
		ecs.WithMode(ecs.Mode(cfg.Registry.Mode)),
		ecs.WithMaxEntities(cfg.Registry.MaxEntities),
		ecs.WithFirstID(cfg.Registry.FirstID),
		ecs.WithEvents(),
		ecs.WithLogger(log.Named("registry")),
	)

	e := &Engine{
		Config:    cfg,
		Physics:   pw,
		Registry:  reg,
		ScenePath: scenePath,
		log:       log,
	}
	if err := e.load(scene); err != nil {
		return nil, err
	}
	log.Info("engine ready",
		zap.String("engine", cfg.Physics.Engine),
		zap.String("scene", scenePath),
		zap.Int("entities", reg.Len()),
	)
	return e, nil
}

// NewCapability creates the named physics backend.
func NewCapability(name string, gravity physics.Vec) (physics.Capability, error) {
	switch name {
	case "", "chipmunk":
		return chipmunk.NewSpace(gravity), nil
	case "box2d":
		return box2d.NewWorld(gravity), nil
	}
	return nil, fmt.Errorf("engine: unknown physics engine %q: %w", name, config.ErrInvalid)
}

func (e *Engine) load(scene prefabs.SceneSpec) error {
	entities, err := entity.BuildScene(scene, e.ScenePath, e.log.Named("components"))
	if err != nil {
		return err
	}
	if err := e.Registry.Load(entities); err != nil {
		return err
	}
	e.Scene = scene
	e.Registry.Init()
	return nil
}

// Reload rebuilds the entities from the scene file. The physics world keeps
// its gravity; the old entities' bodies are destroyed by the registry. It
// must run on the simulation goroutine between ticks.
func (e *Engine) Reload() error {
	scene, err := prefabs.LoadScene(e.ScenePath)
	if err != nil {
		return err
	}
	if err := e.load(scene); err != nil {
		return err
	}
	e.log.Info("scene reloaded", zap.String("scene", e.ScenePath), zap.Int("entities", e.Registry.Len()))
	return nil
}

// NewLoop creates a loop over the engine using the configured loop settings.
func (e *Engine) NewLoop(scheduler ecs.FrameScheduler, opts ...ecs.Option) *ecs.Loop {
	base := []ecs.Option{
		ecs.WithMaxDelta(e.Config.Loop.MaxDelta),
		ecs.WithAutoCompact(e.Config.Loop.AutoCompact),
		ecs.WithLogger(e.log.Named("loop")),
	}
	return ecs.NewLoop(e.Physics, e.Registry, scheduler, append(base, opts...)...)
}

// LogEvents drains the registry's lifecycle events into the log.
func (e *Engine) LogEvents() {
	for _, evt := range e.Registry.Events().Drain() {
		e.log.Debug("entity event", zap.String("type", string(evt.Type)), zap.Int("entity", evt.Entity))
	}
}
