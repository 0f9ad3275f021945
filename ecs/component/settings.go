package component

import "github.com/milk9111/simcore/physics"

// DrawMode tells a renderer how to paint an entity.
type DrawMode string

const (
	DrawColor   DrawMode = "color"
	DrawOutline DrawMode = "outline"
	DrawImage   DrawMode = "image"
)

const DefaultColor = "#FF00FF"

// Settings carries per-entity simulation and display options.
type Settings struct {
	Title          string
	HasPhysics     bool
	Scale          float64
	PhysicsType    physics.Kind
	DrawMode       DrawMode
	Color          string
	Image          string
	ComponentNames []string
}

// DefaultSettings returns settings for a simulated entity of the given kind.
func DefaultSettings(kind physics.Kind) Settings {
	return Settings{
		HasPhysics:  true,
		Scale:       1,
		PhysicsType: kind,
		DrawMode:    DrawColor,
		Color:       DefaultColor,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.ComponentNames = append([]string(nil), s.ComponentNames...)
	return s
}
