package component

// TTL is a frame-based time-to-live component. It asks for its entity to be
// removed once the given number of update ticks have run.
type TTL struct {
	// Frames remaining (in update ticks)
	Frames int
}

func (t *TTL) Update(_ *PhysicsBody, _ *Settings) Result {
	if t == nil {
		return Result{}
	}
	if t.Frames > 0 {
		t.Frames--
	}
	return Result{Remove: t.Frames <= 0}
}
