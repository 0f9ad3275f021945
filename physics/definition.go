package physics

// Default material values applied to every fixture unless overridden.
const (
	DefaultDensity     = 2.0
	DefaultFriction    = 1.0
	DefaultRestitution = 0.2

	// DefaultHalfExtent is used for boxes and polygons without usable dimensions.
	DefaultHalfExtent = 1.0
	DefaultRadius     = 1.0
)

// Material holds fixture surface parameters.
type Material struct {
	Density     float64
	Friction    float64
	Restitution float64
}

// DefaultMaterial returns the material used when none is set.
func DefaultMaterial() Material {
	return Material{
		Density:     DefaultDensity,
		Friction:    DefaultFriction,
		Restitution: DefaultRestitution,
	}
}

// BodyDefinition is the declarative description a body is built from.
type BodyDefinition struct {
	Name     string
	Kind     Kind
	Shape    Shape
	Position Vec
	Velocity Vec
	Width    float64
	Height   float64
	Radius   float64
	Points   []Vec
	Sensor   bool

	// AlignTopLeft treats Position as the top-left corner of the shape
	// instead of its center.
	AlignTopLeft bool

	// Material is replaced by DefaultMaterial when zero.
	Material Material
}

// Normalized returns a copy with defaults filled in: an unknown kind becomes
// dynamic, an unknown shape becomes a box, unusable box or polygon dimensions
// fall back to a unit box and a missing radius to DefaultRadius. Points are
// copied so the result shares nothing with d.
func (d BodyDefinition) Normalized() BodyDefinition {
	out := d
	if !out.Kind.Valid() {
		out.Kind = KindDynamic
	}
	if out.Material == (Material{}) {
		out.Material = DefaultMaterial()
	}

	switch out.Shape {
	case ShapeCircle:
		if !(out.Radius > 0) {
			out.Radius = DefaultRadius
		}
	case ShapePolygon:
		hull := ConvexHull(d.Points)
		if len(hull) < 3 {
			out.Shape = ShapeBox
			out.Points = nil
			out.Width, out.Height = unitBox(out.Width, out.Height)
			break
		}
		out.Points = hull
	default:
		out.Shape = ShapeBox
		out.Points = nil
		out.Width, out.Height = unitBox(out.Width, out.Height)
	}
	return out
}

// Center returns the body origin in world coordinates.
func (d BodyDefinition) Center() Vec {
	if !d.AlignTopLeft {
		return d.Position
	}
	w, h := d.Extent()
	return Vec{X: d.Position.X + w/2, Y: d.Position.Y + h/2}
}

// Extent returns the full width and height covered by the shape.
func (d BodyDefinition) Extent() (float64, float64) {
	switch d.Shape {
	case ShapeCircle:
		return d.Radius * 2, d.Radius * 2
	case ShapePolygon:
		if len(d.Points) == 0 {
			return 0, 0
		}
		minX, minY := d.Points[0].X, d.Points[0].Y
		maxX, maxY := minX, minY
		for _, p := range d.Points[1:] {
			minX = min(minX, p.X)
			minY = min(minY, p.Y)
			maxX = max(maxX, p.X)
			maxY = max(maxY, p.Y)
		}
		return maxX - minX, maxY - minY
	}
	return d.Width, d.Height
}

func unitBox(w, h float64) (float64, float64) {
	if !(w > 0) || !(h > 0) {
		return DefaultHalfExtent * 2, DefaultHalfExtent * 2
	}
	return w, h
}
