package common

const (
	// StepSize is the fixed physics step in seconds.
	StepSize = 1.0 / 60.0
	// MaxFrameDelta caps the time forwarded to physics after a stall.
	MaxFrameDelta = 1.0 / 15.0

	VelocityIterations = 10
	PositionIterations = 10

	// Gravity is the default downward acceleration in world units per second².
	Gravity = 9.8

	MaxEntities   = 1000
	FirstEntityID = 1001

	// PickRadius is the half extent of the box used for point queries.
	PickRadius = 0.001
)
