package entity

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
	"github.com/milk9111/simcore/prefabs"
	"go.uber.org/zap"
)

var ErrUnknownComponent = errors.New("entity: no builder for component")

// BuildContext carries what component builders need besides their config.
type BuildContext struct {
	// Dir resolves relative script paths.
	Dir string
	Log *zap.Logger
}

type componentBuildFn func(raw any, ctx *BuildContext) (any, error)

var componentRegistry = map[string]componentBuildFn{
	"ttl":          addTTL,
	"level_bounds": addLevelBounds,
	"script":       addScript,
	"lua":          addLua,
}

var componentBuildOrder = []string{
	"ttl",
	"level_bounds",
	"script",
	"lua",
}

// RegisterComponent makes a component builder available to scene files.
// Builders registered later run after the built-in ones, in name order.
func RegisterComponent(name string, fn func(raw any, ctx *BuildContext) (any, error)) {
	if name == "" || fn == nil {
		return
	}
	componentRegistry[name] = fn
}

// BuildScene builds every entity of scene. Scene files keep relative script
// paths next to themselves.
func BuildScene(scene prefabs.SceneSpec, scenePath string, log *zap.Logger) ([]*ecs.Entity, error) {
	ctx := &BuildContext{Log: log}
	if scenePath != "" {
		ctx.Dir = filepath.Dir(scenePath)
	}
	out := make([]*ecs.Entity, 0, len(scene.Entities))
	for i, spec := range scene.Entities {
		e, err := BuildEntity(spec, ctx)
		if err != nil {
			for _, built := range out {
				releaseComponents(built.Components())
			}
			return nil, fmt.Errorf("build scene %q: entity %d: %w", scene.Name, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// BuildEntity turns spec into a detached entity.
func BuildEntity(spec prefabs.EntitySpec, ctx *BuildContext) (*ecs.Entity, error) {
	if ctx == nil {
		ctx = &BuildContext{}
	}
	if ctx.Log == nil {
		ctx.Log = zap.NewNop()
	}

	def := BodyDefinition(spec)
	settings := Settings(spec, def.Kind)

	names := orderedComponentNames(spec.Components)
	comps := make([]any, 0, len(names))
	for _, name := range names {
		builder, ok := componentRegistry[name]
		if !ok {
			releaseComponents(comps)
			return nil, fmt.Errorf("build entity %q: %w %q", spec.Name, ErrUnknownComponent, name)
		}
		c, err := builder(spec.Components[name], ctx)
		if err != nil {
			releaseComponents(comps)
			return nil, fmt.Errorf("build entity %q: add %q: %w", spec.Name, name, err)
		}
		comps = append(comps, c)
	}
	settings.ComponentNames = names

	e, err := ecs.NewEntity(def, settings, comps...)
	if err != nil {
		releaseComponents(comps)
		return nil, fmt.Errorf("build entity %q: %w", spec.Name, err)
	}
	return e, nil
}

func orderedComponentNames(components map[string]any) []string {
	names := make([]string, 0, len(components))
	seen := make(map[string]bool, len(components))
	for _, name := range componentBuildOrder {
		if _, ok := components[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(components)-len(names))
	for name := range components {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// BodyDefinition converts the body section of spec.
func BodyDefinition(spec prefabs.EntitySpec) physics.BodyDefinition {
	b := spec.Body
	kind := physics.Kind(b.Kind)
	if kind == "" {
		// Scene entities without a kind are scenery that holds still.
		kind = physics.KindStatic
	}
	def := physics.BodyDefinition{
		Name:         spec.Name,
		Kind:         kind,
		Shape:        physics.Shape(b.Shape),
		Position:     physics.Vec{X: b.X, Y: b.Y},
		Velocity:     physics.Vec{X: b.VX, Y: b.VY},
		Width:        b.Width,
		Height:       b.Height,
		Radius:       b.Radius,
		Sensor:       b.Sensor,
		AlignTopLeft: b.AlignTopLeft,
		Material: physics.Material{
			Density:     b.Density,
			Friction:    b.Friction,
			Restitution: b.Restitution,
		},
	}
	for _, p := range b.Points {
		def.Points = append(def.Points, physics.Vec{X: p.X, Y: p.Y})
	}
	return def.Normalized()
}

// Settings converts the settings section of spec. Unset fields keep the
// defaults for kind.
func Settings(spec prefabs.EntitySpec, kind physics.Kind) component.Settings {
	s := component.DefaultSettings(kind)
	in := spec.Settings
	s.Title = in.Title
	if s.Title == "" {
		s.Title = spec.Name
	}
	if in.HasPhysics != nil {
		s.HasPhysics = *in.HasPhysics
	}
	if in.Scale > 0 {
		s.Scale = in.Scale
	}
	if in.DrawMode != "" {
		s.DrawMode = component.DrawMode(in.DrawMode)
	}
	if in.Color.Text != "" {
		s.Color = in.Color.Text
	}
	if in.Image != "" {
		s.Image = in.Image
		if in.DrawMode == "" {
			s.DrawMode = component.DrawImage
		}
	}
	return s
}

func releaseComponents(comps []any) {
	for _, c := range comps {
		if r, ok := c.(component.Releaser); ok {
			r.Release()
		}
	}
}

func addTTL(raw any, _ *BuildContext) (any, error) {
	spec, err := prefabs.DecodeComponentSpec[prefabs.TTLComponentSpec](raw)
	if err != nil {
		return nil, err
	}
	if spec.Frames <= 0 {
		return nil, fmt.Errorf("ttl frames must be positive, got %d", spec.Frames)
	}
	return &component.TTL{Frames: spec.Frames}, nil
}

func addLevelBounds(raw any, _ *BuildContext) (any, error) {
	spec, err := prefabs.DecodeComponentSpec[prefabs.LevelBoundsComponentSpec](raw)
	if err != nil {
		return nil, err
	}
	if spec.MaxX <= spec.MinX || spec.MaxY <= spec.MinY {
		return nil, fmt.Errorf("level bounds are empty: %+v", spec)
	}
	return &component.LevelBounds{
		Min: physics.Vec{X: spec.MinX, Y: spec.MinY},
		Max: physics.Vec{X: spec.MaxX, Y: spec.MaxY},
	}, nil
}

func addScript(raw any, ctx *BuildContext) (any, error) {
	name, src, err := scriptSource(raw, ctx)
	if err != nil {
		return nil, err
	}
	return component.NewScript(name, src, ctx.Log)
}

func addLua(raw any, ctx *BuildContext) (any, error) {
	name, src, err := scriptSource(raw, ctx)
	if err != nil {
		return nil, err
	}
	return component.NewLuaScript(name, string(src), ctx.Log)
}

func scriptSource(raw any, ctx *BuildContext) (string, []byte, error) {
	spec, err := prefabs.DecodeComponentSpec[prefabs.ScriptComponentSpec](raw)
	if err != nil {
		return "", nil, err
	}
	if spec.Source != "" {
		return "inline", []byte(spec.Source), nil
	}
	if spec.Path == "" {
		return "", nil, errors.New("script needs a path or inline source")
	}
	src, err := prefabs.LoadScript(ctx.Dir, spec.Path)
	if err != nil {
		return "", nil, fmt.Errorf("load script %q: %w", spec.Path, err)
	}
	return spec.Path, src, nil
}
