package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/simcore/config"
	"github.com/milk9111/simcore/engine"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults to $SIMCORE_CONFIG)")
	scenePath := flag.String("scene", "", "scene YAML file (defaults to the configured scene)")
	physicsEngine := flag.String("engine", "", "physics engine override: chipmunk or box2d")
	debug := flag.Bool("debug", false, "draw physics debug outlines")
	watch := flag.Bool("watch", false, "reload the scene when its directory changes")
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *physicsEngine != "" {
		cfg.Physics.Engine = *physicsEngine
	}
	if *debug {
		cfg.Physics.Debug = true
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	eng, err := engine.New(cfg, *scenePath, logger)
	if err != nil {
		logger.Fatal("engine setup failed", zap.Error(err))
	}

	game, err := NewGame(eng, *watch, logger)
	if err != nil {
		logger.Fatal("game setup failed", zap.Error(err))
	}
	defer game.Close()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("game exited", zap.Error(err))
	}
}
