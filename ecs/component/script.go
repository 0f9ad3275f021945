package component

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"
)

const (
	scriptPhaseInit   = "init"
	scriptPhaseUpdate = "update"
)

// Script runs a tengo program for both lifecycle phases. The program sees
// the globals phase, id, frame, x, y, angle, vx, vy, title, color and state,
// and may assign remove, color and state.
type Script struct {
	Name string

	compiled *tengo.Compiled
	state    map[string]interface{}
	id       int
	frame    int
	err      error
	log      *zap.Logger
}

// NewScript compiles src. A nil logger discards runtime errors.
func NewScript(name string, src []byte, log *zap.Logger) (*Script, error) {
	if log == nil {
		log = zap.NewNop()
	}
	script := tengo.NewScript(src)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	globals := map[string]interface{}{
		"phase":  "",
		"id":     0,
		"frame":  0,
		"x":      0.0,
		"y":      0.0,
		"angle":  0.0,
		"vx":     0.0,
		"vy":     0.0,
		"title":  "",
		"color":  "",
		"remove": false,
		"state":  map[string]interface{}{},
	}
	for k, v := range globals {
		if err := script.Add(k, v); err != nil {
			return nil, fmt.Errorf("script %s: add %s: %w", name, k, err)
		}
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("script %s: compile: %w", name, err)
	}
	return &Script{
		Name:     name,
		compiled: compiled,
		state:    map[string]interface{}{},
		log:      log.With(zap.String("script", name)),
	}, nil
}

// Err returns the last runtime error, if any.
func (s *Script) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

func (s *Script) Init(ctx Context) {
	if s == nil || s.compiled == nil {
		return
	}
	s.id = ctx.ID
	settings := Settings{}
	_, _ = s.run(scriptPhaseInit, ctx.Body, &settings)
}

func (s *Script) Update(body *PhysicsBody, settings *Settings) Result {
	if s == nil || s.compiled == nil {
		return Result{}
	}
	s.frame++
	remove, _ := s.run(scriptPhaseUpdate, body, settings)
	return Result{Remove: remove}
}

func (s *Script) run(phase string, body *PhysicsBody, settings *Settings) (bool, error) {
	pos := body.Position()
	vel := body.Velocity()
	title, color := "", ""
	if settings != nil {
		title, color = settings.Title, settings.Color
	}
	values := map[string]interface{}{
		"phase":  phase,
		"id":     s.id,
		"frame":  s.frame,
		"x":      pos.X,
		"y":      pos.Y,
		"angle":  body.Angle(),
		"vx":     vel.X,
		"vy":     vel.Y,
		"title":  title,
		"color":  color,
		"remove": false,
		"state":  s.state,
	}
	for k, v := range values {
		if err := s.compiled.Set(k, v); err != nil {
			return s.fail(phase, err)
		}
	}
	if err := s.compiled.Run(); err != nil {
		return s.fail(phase, err)
	}
	s.err = nil

	if m := s.compiled.Get("state").Map(); m != nil {
		s.state = m
	}
	if settings != nil && phase == scriptPhaseUpdate {
		if c := s.compiled.Get("color").String(); c != "" {
			settings.Color = c
		}
	}
	return s.compiled.Get("remove").Bool(), nil
}

func (s *Script) fail(phase string, err error) (bool, error) {
	s.err = fmt.Errorf("script %s: %s: %w", s.Name, phase, err)
	s.log.Warn("script phase failed", zap.String("phase", phase), zap.Error(err))
	return false, s.err
}
