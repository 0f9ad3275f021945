package component

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// LuaScript runs the optional global functions init(id, body) and
// update(body, settings) of a Lua chunk. update returning true removes the
// entity; assigning settings.color recolors it.
type LuaScript struct {
	Name string

	vm  *lua.LState
	id  int
	err error
	log *zap.Logger
}

// NewLuaScript loads src into a fresh VM. Single-goroutine access only.
func NewLuaScript(name string, src string, log *zap.Logger) (*LuaScript, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("lua %s: load: %w", name, err)
	}
	return &LuaScript{Name: name, vm: vm, log: log.With(zap.String("lua", name))}, nil
}

func (l *LuaScript) Err() error {
	if l == nil {
		return nil
	}
	return l.err
}

func (l *LuaScript) Init(ctx Context) {
	if l == nil || l.vm == nil {
		return
	}
	l.id = ctx.ID
	fn := l.vm.GetGlobal("init")
	if fn.Type() != lua.LTFunction {
		return
	}
	if err := l.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(ctx.ID), l.bodyTable(ctx.Body)); err != nil {
		l.fail("init", err)
	}
}

func (l *LuaScript) Update(body *PhysicsBody, settings *Settings) Result {
	if l == nil || l.vm == nil {
		return Result{}
	}
	fn := l.vm.GetGlobal("update")
	if fn.Type() != lua.LTFunction {
		return Result{}
	}
	st := l.vm.NewTable()
	if settings != nil {
		st.RawSetString("title", lua.LString(settings.Title))
		st.RawSetString("color", lua.LString(settings.Color))
	}
	if err := l.vm.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, l.bodyTable(body), st); err != nil {
		l.fail("update", err)
		return Result{}
	}
	ret := l.vm.Get(-1)
	l.vm.Pop(1)
	l.err = nil

	if settings != nil {
		if c, ok := st.RawGetString("color").(lua.LString); ok && string(c) != "" {
			settings.Color = string(c)
		}
	}
	return Result{Remove: lua.LVAsBool(ret)}
}

// Release closes the VM.
func (l *LuaScript) Release() {
	if l == nil || l.vm == nil {
		return
	}
	l.vm.Close()
	l.vm = nil
}

func (l *LuaScript) bodyTable(body *PhysicsBody) *lua.LTable {
	t := l.vm.NewTable()
	pos := body.Position()
	vel := body.Velocity()
	t.RawSetString("id", lua.LNumber(l.id))
	t.RawSetString("x", lua.LNumber(pos.X))
	t.RawSetString("y", lua.LNumber(pos.Y))
	t.RawSetString("angle", lua.LNumber(body.Angle()))
	t.RawSetString("vx", lua.LNumber(vel.X))
	t.RawSetString("vy", lua.LNumber(vel.Y))
	t.RawSetString("physics", lua.LBool(body != nil && !body.Destroyed()))
	return t
}

func (l *LuaScript) fail(phase string, err error) {
	l.err = fmt.Errorf("lua %s: %s: %w", l.Name, phase, err)
	l.log.Warn("lua phase failed", zap.String("phase", phase), zap.Error(err))
}
