package ecs

import (
	"errors"
	"fmt"

	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrNilEntity          = errors.New("ecs: entity is nil")
	ErrRegistryFull       = errors.New("ecs: registry is full")
	ErrDuplicateEntity    = errors.New("ecs: entity already registered")
	ErrAlreadyInitialized = errors.New("ecs: entity already initialized")
	ErrRegistryBusy       = errors.New("ecs: registry is updating")
	ErrEntityReleased     = errors.New("ecs: entity was removed")
)

// Mode selects how the registry creates bodies.
type Mode string

const (
	ModePlay Mode = "play"
	// ModeEdit creates every body static so scenes can be arranged without
	// simulating them.
	ModeEdit Mode = "edit"
)

func (m Mode) Valid() bool {
	return m == ModePlay || m == ModeEdit
}

// Registry owns the ordered entity collection and runs their lifecycle.
// It is not safe for concurrent use.
type Registry struct {
	physics     *PhysicsWorld
	mode        Mode
	maxEntities int
	firstID     int
	nextID      int

	entities []*Entity
	byID     *SparseSet[*Entity]
	byHandle map[physics.Body]*Entity

	started       bool
	updating      bool
	pendingAdd    []*Entity
	pendingRemove []*Entity

	events *EventQueue
	log    *zap.Logger
}

// NewRegistry creates an empty registry creating bodies through pw.
func NewRegistry(pw *PhysicsWorld, opts ...Option) *Registry {
	o := buildOptions(opts)
	r := &Registry{
		physics:     pw,
		mode:        o.mode,
		maxEntities: o.maxEntities,
		firstID:     o.firstID,
		nextID:      o.firstID,
		byID:        NewSparseSet[*Entity](o.firstID),
		byHandle:    make(map[physics.Body]*Entity),
		log:         o.log,
	}
	if o.events {
		r.events = &EventQueue{}
	}
	return r
}

// Mode returns the body creation mode.
func (r *Registry) Mode() Mode {
	return r.mode
}

// Events returns the lifecycle event queue, or nil when events are off.
func (r *Registry) Events() *EventQueue {
	return r.events
}

// Load replaces the managed collection with entities. Bindings of old
// entities that are not in the new set are destroyed. New entities are not
// initialized. A rejected set leaves the current collection untouched.
func (r *Registry) Load(entities []*Entity) error {
	if r.updating {
		return ErrRegistryBusy
	}
	if err := r.checkLoad(entities); err != nil {
		return fmt.Errorf("ecs: load: %w", err)
	}

	keep := make(map[*Entity]bool, len(entities))
	for _, e := range entities {
		if r.managed(e) {
			keep[e] = true
		}
	}
	for _, e := range r.entities {
		if !keep[e] {
			r.release(e)
		}
	}
	r.entities = nil
	r.byID.Clear()
	clear(r.byHandle)
	r.nextID = r.firstID
	r.started = false

	// Explicit ids first so allocation never hands one out twice.
	for _, e := range entities {
		if e.id != 0 {
			r.byID.Set(e.id, e)
		}
	}
	for _, e := range entities {
		if e.id == 0 {
			e.id = r.allocID()
			r.byID.Set(e.id, e)
		}
		e.removing = false
		if e.body != nil {
			if h := e.body.Handle(); h != nil {
				r.byHandle[h] = e
			}
		}
		r.entities = append(r.entities, e)
		if !keep[e] {
			r.push(EventAdded, e)
		}
	}
	r.log.Info("entities loaded", zap.Int("count", len(r.entities)))
	return nil
}

func (r *Registry) checkLoad(entities []*Entity) error {
	if len(entities) > r.maxEntities {
		return fmt.Errorf("%d entities, limit %d: %w", len(entities), r.maxEntities, ErrRegistryFull)
	}
	seen := make(map[*Entity]bool, len(entities))
	ids := make(map[int]bool, len(entities))
	for _, e := range entities {
		if err := r.checkAddable(e); err != nil {
			return err
		}
		if seen[e] {
			return fmt.Errorf("entity %d listed twice: %w", e.id, ErrDuplicateEntity)
		}
		seen[e] = true
		if e.id == 0 {
			continue
		}
		if ids[e.id] {
			return fmt.Errorf("id %d: %w", e.id, ErrDuplicateEntity)
		}
		ids[e.id] = true
	}
	return nil
}

// checkAddable rejects entities whose lifecycle already ran elsewhere: a
// removed entity has released its body and components.
func (r *Registry) checkAddable(e *Entity) error {
	switch {
	case e == nil:
		return ErrNilEntity
	case r.managed(e):
		return nil
	case e.released:
		return fmt.Errorf("entity %d: %w", e.id, ErrEntityReleased)
	case e.initialized:
		return fmt.Errorf("entity %d: %w", e.id, ErrAlreadyInitialized)
	}
	return nil
}

// Init initializes every entity that has not been initialized yet. Later
// calls only touch entities added since.
func (r *Registry) Init() {
	r.started = true
	for _, e := range r.entities {
		r.initEntity(e)
	}
}

func (r *Registry) initEntity(e *Entity) {
	if e.initialized {
		return
	}
	e.initialized = true
	e.alive = true

	kind := e.settings.PhysicsType
	if !kind.Valid() {
		kind = e.def.Kind
	}
	if r.mode == ModeEdit {
		kind = physics.KindStatic
	}
	e.settings.PhysicsType = kind

	if e.settings.HasPhysics {
		def := e.def
		def.Kind = kind
		body, err := r.physics.AddBody(def, e.id)
		if err != nil {
			r.log.Warn("entity has no body", zap.Int("entity", e.id), zap.Error(err))
		} else {
			e.body = body
			if h := body.Handle(); h != nil {
				r.byHandle[h] = e
			}
			e.syncPose()
		}
	}

	ctx := component.Context{Body: e.body, ID: e.id}
	for _, h := range e.components {
		if h.Init != nil {
			h.Init.Init(ctx)
		}
	}
}

// Update runs one component pass over the live entities and copies body
// transforms into their poses. Adds and removes requested during the pass
// are applied when it ends.
func (r *Registry) Update() {
	if r.updating {
		return
	}
	r.updating = true
	for _, e := range r.entities {
		if !e.alive {
			continue
		}
		if e.update() {
			e.alive = false
			r.push(EventDied, e)
		}
		e.syncPose()
	}
	r.updating = false
	r.flush()
}

func (r *Registry) flush() {
	removes := r.pendingRemove
	r.pendingRemove = nil
	for _, e := range removes {
		r.drop(e)
	}
	adds := r.pendingAdd
	r.pendingAdd = nil
	for _, e := range adds {
		r.insert(e)
	}
}

// AddEntity starts managing e, assigning an id when it has none. Once Init
// has run, e is initialized right away.
func (r *Registry) AddEntity(e *Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if r.managed(e) {
		return fmt.Errorf("ecs: entity %d: %w", e.id, ErrDuplicateEntity)
	}
	if err := r.checkAddable(e); err != nil {
		return fmt.Errorf("ecs: %w", err)
	}
	if len(r.entities)+len(r.pendingAdd) >= r.maxEntities {
		return fmt.Errorf("ecs: %d entities: %w", r.maxEntities, ErrRegistryFull)
	}
	if e.id == 0 {
		e.id = r.allocID()
	} else if r.byID.Has(e.id) {
		return fmt.Errorf("ecs: id %d: %w", e.id, ErrDuplicateEntity)
	}
	r.byID.Set(e.id, e)
	e.removing = false

	if r.updating {
		r.pendingAdd = append(r.pendingAdd, e)
		return nil
	}
	r.insert(e)
	return nil
}

func (r *Registry) insert(e *Entity) {
	r.entities = append(r.entities, e)
	r.push(EventAdded, e)
	if r.started {
		r.initEntity(e)
	}
}

func (r *Registry) allocID() int {
	for r.byID.Has(r.nextID) {
		r.nextID++
	}
	id := r.nextID
	r.nextID++
	return id
}

func (r *Registry) managed(e *Entity) bool {
	if e.id == 0 {
		return false
	}
	got, ok := r.byID.Get(e.id)
	return ok && got == e
}

// RemoveEntity destroys the binding of e and stops managing it. It reports
// false when e is not managed or is already being removed.
func (r *Registry) RemoveEntity(e *Entity) bool {
	if e == nil || !r.managed(e) || e.removing {
		return false
	}
	if r.updating {
		e.removing = true
		e.alive = false
		r.pendingRemove = append(r.pendingRemove, e)
		return true
	}
	r.drop(e)
	return true
}

func (r *Registry) drop(e *Entity) {
	if i := r.indexOf(e); i >= 0 {
		r.entities = append(r.entities[:i], r.entities[i+1:]...)
	} else if i := indexIn(r.pendingAdd, e); i >= 0 {
		r.pendingAdd = append(r.pendingAdd[:i], r.pendingAdd[i+1:]...)
	}
	r.release(e)
	r.byID.Remove(e.id)
	e.removing = false
	r.push(EventRemoved, e)
}

func (r *Registry) release(e *Entity) {
	if e.body != nil {
		if h := e.body.Handle(); h != nil {
			delete(r.byHandle, h)
		}
		if err := r.physics.DestroyBody(e.body); err != nil {
			r.log.Warn("destroy body failed", zap.Int("entity", e.id), zap.Error(err))
		}
	}
	e.release()
	e.alive = false
}

func (r *Registry) indexOf(e *Entity) int {
	return indexIn(r.entities, e)
}

func indexIn(list []*Entity, e *Entity) int {
	for i, x := range list {
		if x == e {
			return i
		}
	}
	return -1
}

// Compact drops every initialized entity that is no longer alive, destroying
// its binding first. It returns the number of entities dropped.
func (r *Registry) Compact() int {
	if r.updating {
		return 0
	}
	kept := r.entities[:0]
	dropped := 0
	for _, e := range r.entities {
		if e.initialized && !e.alive {
			r.release(e)
			r.byID.Remove(e.id)
			r.push(EventRemoved, e)
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	clear(r.entities[len(kept):])
	r.entities = kept
	if dropped > 0 {
		r.log.Debug("entities compacted", zap.Int("dropped", dropped), zap.Int("remaining", len(kept)))
	}
	return dropped
}

// OnPress forwards a press to the entity's own handler.
func (r *Registry) OnPress(e *Entity) {
	if e == nil || e.onPress == nil {
		return
	}
	e.onPress(e)
}

// EntityAt returns the live entity whose body contains p.
func (r *Registry) EntityAt(p physics.Vec) *Entity {
	body := r.physics.QueryBodyAt(p)
	if body == nil {
		return nil
	}
	e := r.byHandle[body]
	if e == nil || !e.alive {
		return nil
	}
	return e
}

// Entity returns the managed entity with the given id.
func (r *Registry) Entity(id int) *Entity {
	e, _ := r.byID.Get(id)
	return e
}

// Entities returns the managed entities in insertion order.
func (r *Registry) Entities() []*Entity {
	return append([]*Entity(nil), r.entities...)
}

func (r *Registry) Len() int {
	return len(r.entities)
}

type entitySnapshot struct {
	ID    int    `yaml:"id"`
	Title string `yaml:"title,omitempty"`
	Kind  string `yaml:"kind,omitempty"`
	Alive bool   `yaml:"alive"`
	Pose  Pose   `yaml:"pose"`
}

// String renders the collection as YAML.
func (r *Registry) String() string {
	snap := make([]entitySnapshot, 0, len(r.entities))
	for _, e := range r.entities {
		snap = append(snap, entitySnapshot{
			ID:    e.id,
			Title: e.settings.Title,
			Kind:  string(e.settings.PhysicsType),
			Alive: e.alive,
			Pose:  e.pose,
		})
	}
	out, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Sprintf("registry(%d entities)", len(r.entities))
	}
	return string(out)
}

func (r *Registry) push(t EventType, e *Entity) {
	if r.events == nil {
		return
	}
	r.events.Push(Event{Type: t, Entity: e.id})
}
