package prefabs

import "gopkg.in/yaml.v3"

// DecodeComponentSpec converts the loosely typed component config of an
// EntitySpec into T.
func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TTLComponentSpec struct {
	Frames int `yaml:"frames"`
}

type LevelBoundsComponentSpec struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// ScriptComponentSpec points at a script file or carries the source inline.
type ScriptComponentSpec struct {
	Path   string `yaml:"path"`
	Source string `yaml:"source"`
}
