package component

import (
	"errors"
)

var (
	ErrNilComponent = errors.New("ecs: component is nil")
	ErrNoHooks      = errors.New("ecs: component implements no lifecycle hooks")
)

// Context is handed to Initializer.Init once per entity.
type Context struct {
	Body *PhysicsBody
	ID   int
}

// Result is returned by Updater.Update.
type Result struct {
	Remove bool
}

// Initializer is implemented by components that need setup once the entity's
// physics binding exists.
type Initializer interface {
	Init(ctx Context)
}

// Updater is implemented by components that run every tick.
type Updater interface {
	Update(body *PhysicsBody, settings *Settings) Result
}

// Releaser is implemented by components holding resources that must be freed
// when their entity is removed.
type Releaser interface {
	Release()
}

// Hooks is a component together with the lifecycle hooks it implements,
// resolved once when the component is attached.
type Hooks struct {
	Component any
	Init      Initializer
	Update    Updater
	Release   Releaser
}

// Describe resolves the hooks c implements.
func Describe(c any) (Hooks, error) {
	if c == nil {
		return Hooks{}, ErrNilComponent
	}
	h := Hooks{Component: c}
	h.Init, _ = c.(Initializer)
	h.Update, _ = c.(Updater)
	h.Release, _ = c.(Releaser)
	if h.Init == nil && h.Update == nil && h.Release == nil {
		return Hooks{}, ErrNoHooks
	}
	return h, nil
}
