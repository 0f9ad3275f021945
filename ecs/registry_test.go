package ecs

import (
	"errors"
	"testing"

	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

type countingComponent struct {
	inits   int
	updates int
	ctx     component.Context
	remove  bool
	onTick  func()
}

func (c *countingComponent) Init(ctx component.Context) {
	c.inits++
	c.ctx = ctx
}

func (c *countingComponent) Update(_ *component.PhysicsBody, _ *component.Settings) component.Result {
	c.updates++
	if c.onTick != nil {
		c.onTick()
	}
	return component.Result{Remove: c.remove}
}

type releasingComponent struct {
	released int
}

func (c *releasingComponent) Release() { c.released++ }

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *fakeCapability) {
	t.Helper()
	pw, capability := newTestWorld(t)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewRegistry(pw, opts...), capability
}

func mustEntity(t *testing.T, def physics.BodyDefinition, settings component.Settings, comps ...any) *Entity {
	t.Helper()
	e, err := NewEntity(def, settings, comps...)
	if err != nil {
		t.Fatalf("new entity: %v", err)
	}
	return e
}

func dynamicBox(x, y, vx, vy float64) physics.BodyDefinition {
	return physics.BodyDefinition{
		Kind:     physics.KindDynamic,
		Position: physics.Vec{X: x, Y: y},
		Velocity: physics.Vec{X: vx, Y: vy},
	}
}

func TestRegistryInitOnce(t *testing.T) {
	r, capability := newTestRegistry(t)
	comp := &countingComponent{}
	e := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic), comp)
	if err := r.Load([]*Entity{e}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.Initialized() || e.Body() != nil {
		t.Fatalf("load must not initialize")
	}

	r.Init()
	r.Init()
	if comp.inits != 1 {
		t.Fatalf("inits = %d, want 1", comp.inits)
	}
	if len(capability.bodies) != 1 {
		t.Fatalf("bodies created = %d, want 1", len(capability.bodies))
	}
	if !e.Alive() || e.Body() == nil {
		t.Fatalf("entity should be alive with a body")
	}
	if comp.ctx.Body != e.Body() || comp.ctx.ID != e.ID() {
		t.Fatalf("init context = %+v, want body and id %d", comp.ctx, e.ID())
	}
}

func TestRegistryIDs(t *testing.T) {
	r, _ := newTestRegistry(t)
	a := mustEntity(t, physics.BodyDefinition{}, component.Settings{})
	b := mustEntity(t, physics.BodyDefinition{}, component.Settings{})
	if err := r.AddEntity(a); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := r.AddEntity(b); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if a.ID() != 1001 || b.ID() != 1002 {
		t.Fatalf("ids = %d,%d, want 1001,1002", a.ID(), b.ID())
	}
	if r.Entity(1002) != b {
		t.Fatalf("lookup by id failed")
	}
	if err := r.AddEntity(a); !errors.Is(err, ErrDuplicateEntity) {
		t.Fatalf("re-add err = %v, want ErrDuplicateEntity", err)
	}
	if err := r.AddEntity(nil); !errors.Is(err, ErrNilEntity) {
		t.Fatalf("nil err = %v, want ErrNilEntity", err)
	}
}

func TestRegistryFull(t *testing.T) {
	r, _ := newTestRegistry(t, WithMaxEntities(2))
	for i := 0; i < 2; i++ {
		if err := r.AddEntity(mustEntity(t, physics.BodyDefinition{}, component.Settings{})); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	err := r.AddEntity(mustEntity(t, physics.BodyDefinition{}, component.Settings{}))
	if !errors.Is(err, ErrRegistryFull) {
		t.Fatalf("err = %v, want ErrRegistryFull", err)
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r, capability := newTestRegistry(t)
	rel := &releasingComponent{}
	e := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic), rel)
	if err := r.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Init()

	if !r.RemoveEntity(e) {
		t.Fatalf("first remove should report true")
	}
	if r.RemoveEntity(e) {
		t.Fatalf("second remove should report false")
	}
	if r.RemoveEntity(mustEntity(t, physics.BodyDefinition{}, component.Settings{})) {
		t.Fatalf("removing an unknown entity should report false")
	}
	if capability.destroys != 1 || rel.released != 1 {
		t.Fatalf("destroys=%d released=%d, want 1 and 1", capability.destroys, rel.released)
	}
	if r.Len() != 0 || e.Alive() {
		t.Fatalf("entity still managed")
	}
}

func TestRegistryPoseSync(t *testing.T) {
	r, _ := newTestRegistry(t)
	mover := mustEntity(t, dynamicBox(0, 0, 6, 0), component.DefaultSettings(physics.KindDynamic))
	if err := r.Load([]*Entity{mover}); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Init()

	r.physics.Update(0.5)
	r.Update()

	body := mover.Body()
	pos := body.Position()
	pose := mover.Pose()
	if pose.X != pos.X || pose.Y != pos.Y || pose.Angle != body.Angle() {
		t.Fatalf("pose %+v does not match body %v/%v", pose, pos, body.Angle())
	}
	if pose.X <= 0 {
		t.Fatalf("body did not move: %+v", pose)
	}
}

func TestRegistrySceneryPoseUnchanged(t *testing.T) {
	r, _ := newTestRegistry(t)
	settings := component.DefaultSettings(physics.KindStatic)
	settings.HasPhysics = false
	scenery := mustEntity(t, physics.BodyDefinition{Position: physics.Vec{X: 3, Y: 4}}, settings)
	ground := mustEntity(t, physics.BodyDefinition{Kind: physics.KindStatic, Position: physics.Vec{Y: 10}}, component.DefaultSettings(physics.KindStatic))
	if err := r.Load([]*Entity{scenery, ground}); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Init()
	if scenery.Body() != nil {
		t.Fatalf("scenery must not get a body")
	}

	for i := 0; i < 30; i++ {
		r.physics.Update(1.0 / 60.0)
		r.Update()
	}
	if got := scenery.Pose(); got != (Pose{X: 3, Y: 4}) {
		t.Fatalf("scenery pose = %+v", got)
	}
	if got := ground.Pose(); got != (Pose{Y: 10}) {
		t.Fatalf("static pose = %+v", got)
	}
}

func TestRegistryComponentRemoval(t *testing.T) {
	r, capability := newTestRegistry(t, WithEvents())
	first := &countingComponent{remove: true}
	second := &countingComponent{}
	e := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic), first, second)
	if err := r.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Init()

	r.Update()
	if e.Alive() {
		t.Fatalf("entity should be dead after a removal request")
	}
	if second.updates != 1 {
		t.Fatalf("components after the requester must still run, got %d", second.updates)
	}

	r.Update()
	if first.updates != 1 || second.updates != 1 {
		t.Fatalf("dead entity was updated again: %d/%d", first.updates, second.updates)
	}

	if n := r.Compact(); n != 1 {
		t.Fatalf("compact dropped %d, want 1", n)
	}
	if r.Len() != 0 || capability.live() != 0 {
		t.Fatalf("len=%d live bodies=%d after compact", r.Len(), capability.live())
	}

	var types []EventType
	for _, evt := range r.Events().Drain() {
		types = append(types, evt.Type)
	}
	want := []EventType{EventAdded, EventDied, EventRemoved}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("events = %v, want %v", types, want)
		}
	}
}

func TestRegistryRemoveDuringUpdate(t *testing.T) {
	r, capability := newTestRegistry(t)
	a := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	victimComp := &countingComponent{}
	victim := mustEntity(t, dynamicBox(5, 0, 0, 0), component.DefaultSettings(physics.KindDynamic), victimComp)
	spawned := &countingComponent{}
	child := mustEntity(t, dynamicBox(9, 0, 0, 0), component.DefaultSettings(physics.KindDynamic), spawned)

	trigger := &countingComponent{}
	trigger.onTick = func() {
		if !r.RemoveEntity(victim) {
			t.Errorf("deferred remove should report true")
		}
		if r.RemoveEntity(victim) {
			t.Errorf("second deferred remove should report false")
		}
		if err := r.AddEntity(child); err != nil {
			t.Errorf("deferred add: %v", err)
		}
		if r.Len() != 2 {
			t.Errorf("collection changed during update: %d", r.Len())
		}
		trigger.onTick = nil
	}
	if err := a.AddComponent(trigger); err != nil {
		t.Fatalf("add component: %v", err)
	}
	if err := r.Load([]*Entity{a, victim}); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Init()
	r.Update()

	if victimComp.updates != 0 {
		t.Fatalf("entity removed mid-pass was still updated")
	}
	if r.Len() != 2 || r.Entity(victim.ID()) != nil || r.Entity(child.ID()) != child {
		t.Fatalf("unexpected collection after pass: %s", r)
	}
	if !child.Initialized() || spawned.inits != 1 {
		t.Fatalf("entity added after Init must be initialized")
	}
	if capability.destroys != 1 {
		t.Fatalf("destroys = %d, want 1", capability.destroys)
	}
}

func TestRegistryEditModeForcesStatic(t *testing.T) {
	r, capability := newTestRegistry(t, WithMode(ModeEdit))
	e := mustEntity(t, dynamicBox(0, 0, 0, 5), component.DefaultSettings(physics.KindDynamic))
	if err := r.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Init()
	if e.Body().Kind() != physics.KindStatic || capability.bodies[0].Kind() != physics.KindStatic {
		t.Fatalf("edit mode created a %s body", e.Body().Kind())
	}
	if e.Settings().PhysicsType != physics.KindStatic {
		t.Fatalf("settings kind = %s", e.Settings().PhysicsType)
	}
}

func TestRegistryLoadReplaces(t *testing.T) {
	r, capability := newTestRegistry(t)
	old := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	if err := r.Load([]*Entity{old}); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Init()

	fresh := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	if err := r.Load([]*Entity{fresh}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if capability.destroys != 1 {
		t.Fatalf("old binding not destroyed")
	}
	if fresh.Initialized() {
		t.Fatalf("load must not initialize")
	}
	if fresh.ID() != 1001 {
		t.Fatalf("ids restart on load, got %d", fresh.ID())
	}
}

func TestRegistryReAddRemovedRejected(t *testing.T) {
	r, capability := newTestRegistry(t)
	e := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	if err := r.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Init()
	r.RemoveEntity(e)

	if err := r.AddEntity(e); !errors.Is(err, ErrEntityReleased) {
		t.Fatalf("re-add err = %v, want ErrEntityReleased", err)
	}
	if r.Len() != 0 || capability.live() != 0 {
		t.Fatalf("len=%d live=%d, want 0 and 0", r.Len(), capability.live())
	}
	if err := r.Load([]*Entity{e}); !errors.Is(err, ErrEntityReleased) {
		t.Fatalf("load err = %v, want ErrEntityReleased", err)
	}
}

func TestRegistryAddInitializedElsewhere(t *testing.T) {
	a, _ := newTestRegistry(t)
	b, _ := newTestRegistry(t)
	e := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	if err := a.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	a.Init()
	if err := b.AddEntity(e); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestRegistryLoadRejectedKeepsCollection(t *testing.T) {
	newEntity := func() *Entity {
		return mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	}
	dup := newEntity()

	cases := []struct {
		name    string
		next    []*Entity
		wantErr error
	}{
		{"too_many", []*Entity{newEntity(), newEntity(), newEntity()}, ErrRegistryFull},
		{"same_entity_twice", []*Entity{dup, dup}, ErrDuplicateEntity},
		{"nil_entity", []*Entity{newEntity(), nil}, ErrNilEntity},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, capability := newTestRegistry(t, WithMaxEntities(2))
			old := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
			if err := r.Load([]*Entity{old}); err != nil {
				t.Fatalf("load: %v", err)
			}
			r.Init()

			if err := r.Load(c.next); !errors.Is(err, c.wantErr) {
				t.Fatalf("err = %v, want %v", err, c.wantErr)
			}
			if r.Len() != 1 || r.Entities()[0] != old {
				t.Fatalf("collection changed by rejected load")
			}
			if !old.Alive() || capability.live() != 1 || capability.destroys != 0 {
				t.Fatalf("old entity torn down: alive=%v live=%d destroys=%d", old.Alive(), capability.live(), capability.destroys)
			}
		})
	}
}

func TestRegistryLoadKeepsSharedEntities(t *testing.T) {
	r, capability := newTestRegistry(t)
	old := mustEntity(t, dynamicBox(0, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	if err := r.Load([]*Entity{old}); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Init()

	fresh := mustEntity(t, dynamicBox(3, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	if err := r.Load([]*Entity{fresh, old}); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if capability.destroys != 0 || !old.Alive() || old.Body().Destroyed() {
		t.Fatalf("shared entity was released")
	}
	if fresh.ID() == old.ID() {
		t.Fatalf("fresh entity reused id %d", old.ID())
	}
	r.Init()
	if capability.live() != 2 {
		t.Fatalf("live bodies = %d, want 2", capability.live())
	}
}

func TestRegistryReleasesUninitializedComponents(t *testing.T) {
	r, _ := newTestRegistry(t)
	removed := &releasingComponent{}
	replaced := &releasingComponent{}
	a := mustEntity(t, physics.BodyDefinition{}, component.Settings{}, removed)
	b := mustEntity(t, physics.BodyDefinition{}, component.Settings{}, replaced)
	if err := r.Load([]*Entity{a, b}); err != nil {
		t.Fatalf("load: %v", err)
	}

	r.RemoveEntity(a)
	if err := r.Load(nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	r.RemoveEntity(a)
	if removed.released != 1 || replaced.released != 1 {
		t.Fatalf("released = %d/%d, want 1/1", removed.released, replaced.released)
	}
}

func TestRegistryPicking(t *testing.T) {
	r, _ := newTestRegistry(t)
	pressed := 0
	crate := mustEntity(t, dynamicBox(5, 0, 0, 0), component.DefaultSettings(physics.KindDynamic))
	crate.SetOnPress(func(e *Entity) { pressed++ })
	ground := mustEntity(t,
		physics.BodyDefinition{Kind: physics.KindStatic, Width: 40, Height: 2},
		component.DefaultSettings(physics.KindStatic),
	)
	if err := r.Load([]*Entity{ground, crate}); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Init()

	if got := r.EntityAt(physics.Vec{X: 5, Y: 0.2}); got != crate {
		t.Fatalf("EntityAt crate = %v", got)
	}
	if got := r.EntityAt(physics.Vec{X: -10}); got != nil {
		t.Fatalf("static ground must not be picked, got %d", got.ID())
	}
	r.OnPress(r.EntityAt(physics.Vec{X: 5}))
	r.OnPress(nil)
	r.OnPress(ground)
	if pressed != 1 {
		t.Fatalf("pressed = %d, want 1", pressed)
	}
}

func TestRegistryString(t *testing.T) {
	r, _ := newTestRegistry(t)
	settings := component.DefaultSettings(physics.KindDynamic)
	settings.Title = "crate"
	if err := r.AddEntity(mustEntity(t, dynamicBox(1, 2, 0, 0), settings)); err != nil {
		t.Fatalf("add: %v", err)
	}
	out := r.String()
	var snap []entitySnapshot
	if err := yaml.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("snapshot is not yaml: %v\n%s", err, out)
	}
	if len(snap) != 1 {
		t.Fatalf("snapshot has %d entities, want 1:\n%s", len(snap), out)
	}
	got := snap[0]
	if got.ID != 1001 || got.Title != "crate" || got.Kind != string(physics.KindDynamic) {
		t.Fatalf("snapshot = %+v", got)
	}
	if got.Pose.X != 1 || got.Pose.Y != 2 {
		t.Fatalf("pose = %+v, want (1, 2)", got.Pose)
	}
}

func TestAddComponentAfterInit(t *testing.T) {
	r, _ := newTestRegistry(t)
	e := mustEntity(t, physics.BodyDefinition{}, component.Settings{})
	if err := r.AddEntity(e); err != nil {
		t.Fatalf("add: %v", err)
	}
	r.Init()
	if err := e.AddComponent(&countingComponent{}); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("err = %v, want ErrAlreadyInitialized", err)
	}
	if err := e.AddComponent(struct{}{}); err == nil {
		t.Fatalf("expected an error for a component without hooks")
	}
}
