package main

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/ecs/system"
	"github.com/milk9111/simcore/engine"
	"github.com/milk9111/simcore/host"
	"github.com/milk9111/simcore/prefabs"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

type Game struct {
	engine   *engine.Engine
	loop     *ecs.Loop
	frames   host.Queue
	renderer *system.RenderSystem
	camera   system.Camera

	paused   bool
	pauseUI  *ebitenui.UI
	debug    bool
	selected *ecs.Entity

	watcher *prefabs.Watcher
	face    ebtext.Face
	log     *zap.Logger
}

func NewGame(eng *engine.Engine, watch bool, log *zap.Logger) (*Game, error) {
	cfg := eng.Config
	g := &Game{
		engine:   eng,
		renderer: system.NewRenderSystem(log.Named("render")),
		camera: system.Camera{
			Scale:   cfg.Window.Scale,
			OriginX: float64(cfg.Window.Width) / 2,
			OriginY: float64(cfg.Window.Height) / 2,
		},
		debug: cfg.Physics.Debug,
		face:  ebtext.NewGoXFace(basicfont.Face7x13),
		log:   log,
	}
	g.loop = eng.NewLoop(&g.frames)
	g.pauseUI = NewPauseUI(g)

	if watch {
		w, err := prefabs.NewWatcher(filepath.Dir(eng.ScenePath))
		if err != nil {
			return nil, err
		}
		g.watcher = w
	}

	g.installPressHandlers()
	g.loop.Start()
	return g, nil
}

func (g *Game) Close() {
	g.loop.Close()
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) installPressHandlers() {
	for _, e := range g.engine.Registry.Entities() {
		e.SetOnPress(g.selectEntity)
	}
	g.selected = nil
}

func (g *Game) selectEntity(e *ecs.Entity) {
	g.selected = e
	pose := e.Pose()
	g.log.Info("entity pressed",
		zap.Int("entity", e.ID()),
		zap.String("title", e.Settings().Title),
		zap.Float64("x", pose.X),
		zap.Float64("y", pose.Y),
	)
}

func (g *Game) pause() {
	if g.paused {
		return
	}
	g.paused = true
	g.loop.Close()
}

func (g *Game) resume() {
	if !g.paused {
		return
	}
	g.paused = false
	g.loop.Start()
}

func (g *Game) reload() {
	if err := g.engine.Reload(); err != nil {
		g.log.Warn("scene reload failed", zap.Error(err))
		return
	}
	g.installPressHandlers()
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.paused {
			g.resume()
		} else {
			g.pause()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.reload()
	}
	g.pollWatcher()

	if g.paused {
		g.pauseUI.Update()
	} else if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		reg := g.engine.Registry
		reg.OnPress(reg.EntityAt(g.camera.ToWorld(float64(x), float64(y))))
	}

	g.frames.Fire()
	g.engine.LogEvents()
	if g.selected != nil && !g.selected.Alive() {
		g.selected = nil
	}
	return nil
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Info("scene files changed", zap.String("file", name))
			g.reload()
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Warn("watcher error", zap.Error(err))
		default:
			return
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	g.renderer.Draw(g.engine.Registry, screen, g.camera)
	if g.debug {
		system.DrawPhysicsDebug(g.engine.Physics, screen, g.camera)
	}
	if g.selected != nil {
		pts := system.Outline(g.selected.Definition(), g.selected.Pose())
		for i := range pts {
			ax, ay := g.camera.ToScreen(pts[i])
			bx, by := g.camera.ToScreen(pts[(i+1)%len(pts)])
			vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), 2, color.White, true)
		}
	}
	g.drawHUD(screen)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	line := fmt.Sprintf("FPS %.0f  ticks %d  entities %d  engine %s  mode %s",
		g.loop.FPS(), g.loop.Ticks(), g.engine.Registry.Len(), g.engine.Config.Physics.Engine, g.engine.Registry.Mode())
	if g.selected != nil {
		pose := g.selected.Pose()
		line += fmt.Sprintf("\nselected %s #%d (%.2f, %.2f)", g.selected.Settings().Title, g.selected.ID(), pose.X, pose.Y)
	}
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(8, 8)
	op.LineSpacing = 16
	op.ColorScale.ScaleWithColor(colornames.White)
	ebtext.Draw(screen, line, g.face, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.engine.Config.Window.Width, g.engine.Config.Window.Height
}
