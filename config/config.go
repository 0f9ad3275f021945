package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/milk9111/simcore/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPath names the environment variable consulted when no -config flag is
// given.
const EnvPath = "SIMCORE_CONFIG"

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Physics  PhysicsConfig  `toml:"physics"`
	Loop     LoopConfig     `toml:"loop"`
	Registry RegistryConfig `toml:"registry"`
	Window   WindowConfig   `toml:"window"`
	Logging  LoggingConfig  `toml:"logging"`
}

type PhysicsConfig struct {
	Engine             string  `toml:"engine"` // "chipmunk" or "box2d"
	GravityX           float64 `toml:"gravity_x"`
	GravityY           float64 `toml:"gravity_y"`
	Step               float64 `toml:"step"` // seconds
	VelocityIterations int     `toml:"velocity_iterations"`
	PositionIterations int     `toml:"position_iterations"`
	Debug              bool    `toml:"debug"`
}

type LoopConfig struct {
	MaxDelta    float64 `toml:"max_delta"` // seconds
	AutoCompact bool    `toml:"auto_compact"`
}

type RegistryConfig struct {
	Mode        string `toml:"mode"` // "play" or "edit"
	MaxEntities int    `toml:"max_entities"`
	FirstID     int    `toml:"first_id"`
}

type WindowConfig struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Title  string  `toml:"title"`
	Scale  float64 `toml:"scale"` // pixels per world unit
	Scene  string  `toml:"scene"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Path picks the config file from the flag value or the environment.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvPath)
}

func (c *Config) Validate() error {
	switch c.Physics.Engine {
	case "chipmunk", "box2d":
	default:
		return fmt.Errorf("%w: physics.engine %q", ErrInvalid, c.Physics.Engine)
	}
	if c.Physics.Step <= 0 {
		return fmt.Errorf("%w: physics.step must be positive", ErrInvalid)
	}
	if c.Loop.MaxDelta <= 0 {
		return fmt.Errorf("%w: loop.max_delta must be positive", ErrInvalid)
	}
	switch c.Registry.Mode {
	case "play", "edit":
	default:
		return fmt.Errorf("%w: registry.mode %q", ErrInvalid, c.Registry.Mode)
	}
	if c.Registry.MaxEntities <= 0 {
		return fmt.Errorf("%w: registry.max_entities must be positive", ErrInvalid)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 || c.Window.Scale <= 0 {
		return fmt.Errorf("%w: window size and scale must be positive", ErrInvalid)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Physics: PhysicsConfig{
			Engine:             "chipmunk",
			GravityY:           common.Gravity,
			Step:               common.StepSize,
			VelocityIterations: common.VelocityIterations,
			PositionIterations: common.PositionIterations,
		},
		Loop: LoopConfig{
			MaxDelta:    common.MaxFrameDelta,
			AutoCompact: true,
		},
		Registry: RegistryConfig{
			Mode:        "play",
			MaxEntities: common.MaxEntities,
			FirstID:     common.FirstEntityID,
		},
		Window: WindowConfig{
			Width:  960,
			Height: 540,
			Title:  "simcore",
			Scale:  24,
			Scene:  "demo.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// NewLogger builds the process logger.
func NewLogger(cfg LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
