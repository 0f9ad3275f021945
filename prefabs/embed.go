package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

//go:embed scripts/*.tengo scripts/*.lua
var ScriptsFS embed.FS

//go:embed scenes/*.yaml
var ScenesFS embed.FS

// Load reads a scene file from disk, falling back to the embedded scenes.
func Load(name string) ([]byte, error) {
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	}
	return ScenesFS.ReadFile(cleanScenePath(name))
}

// LoadScript reads a script relative to dir, falling back to the embedded
// scripts.
func LoadScript(dir, name string) ([]byte, error) {
	if dir != "" && !filepath.IsAbs(name) {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return data, nil
		}
	}
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(cleanScriptPath(name))
}

func cleanScenePath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scenes/"); ok {
		s = after
	}
	return "scenes/" + s
}

func cleanScriptPath(path string) string {
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	return "scripts/" + s
}
