package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

var ErrBadColor = errors.New("prefabs: invalid color")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// SceneSpec is a list of entities plus optional world settings.
type SceneSpec struct {
	Name     string       `yaml:"name"`
	Gravity  *VecSpec     `yaml:"gravity"`
	Entities []EntitySpec `yaml:"entities"`
}

func LoadScene(filename string) (SceneSpec, error) {
	return LoadSpec[SceneSpec](filename)
}

type VecSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// EntitySpec describes one entity: its body, its settings and its
// components keyed by factory name.
type EntitySpec struct {
	Name       string         `yaml:"name"`
	Body       BodySpec       `yaml:"body"`
	Settings   SettingsSpec   `yaml:"settings"`
	Components map[string]any `yaml:"components"`
}

type BodySpec struct {
	Kind         string    `yaml:"kind"`
	Shape        string    `yaml:"shape"`
	X            float64   `yaml:"x"`
	Y            float64   `yaml:"y"`
	VX           float64   `yaml:"vx"`
	VY           float64   `yaml:"vy"`
	Width        float64   `yaml:"width"`
	Height       float64   `yaml:"height"`
	Radius       float64   `yaml:"radius"`
	Points       []VecSpec `yaml:"points"`
	Sensor       bool      `yaml:"sensor"`
	AlignTopLeft bool      `yaml:"align_top_left"`
	Density      float64   `yaml:"density"`
	Friction     float64   `yaml:"friction"`
	Restitution  float64   `yaml:"restitution"`
}

type SettingsSpec struct {
	Title      string    `yaml:"title"`
	HasPhysics *bool     `yaml:"has_physics"`
	Scale      float64   `yaml:"scale"`
	DrawMode   string    `yaml:"draw_mode"`
	Color      YAMLColor `yaml:"color"`
	Image      string    `yaml:"image"`
}

// YAMLColor accepts a hex color or an SVG color name. Text keeps the value
// as written; it is empty when the field was not set.
type YAMLColor struct {
	color.Color
	Text string
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: must be a string", ErrBadColor)
	}
	parsed, err := ParseColor(value.Value)
	if err != nil {
		return err
	}
	c.Color = parsed
	c.Text = strings.TrimSpace(value.Value)
	return nil
}

// ParseColor parses "#RRGGBB", "#RRGGBBAA", "#RGB" or a color name such as
// "tomato".
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if named, ok := colornames.Map[strings.ToLower(s)]; ok {
		return named, nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return nil, fmt.Errorf("%w: %q", ErrBadColor, s)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(hex[start:start+2], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadColor, s)
		}
		return uint8(v), nil
	}

	r, err := parse(0)
	if err != nil {
		return nil, err
	}
	g, err := parse(2)
	if err != nil {
		return nil, err
	}
	b, err := parse(4)
	if err != nil {
		return nil, err
	}

	a := uint8(255)
	if len(hex) == 8 {
		a, err = parse(6)
		if err != nil {
			return nil, err
		}
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
