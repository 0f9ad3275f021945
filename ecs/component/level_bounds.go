package component

import "github.com/milk9111/simcore/physics"

// LevelBounds removes its entity once the body leaves the rectangle.
type LevelBounds struct {
	Min physics.Vec
	Max physics.Vec
}

func (l *LevelBounds) Update(body *PhysicsBody, _ *Settings) Result {
	if l == nil || body == nil || body.Destroyed() {
		return Result{}
	}
	box := physics.AABB{Lower: l.Min, Upper: l.Max}
	return Result{Remove: !box.Contains(body.Position())}
}
