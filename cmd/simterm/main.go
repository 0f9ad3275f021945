// Command simterm runs a scene headless and draws entity positions as
// characters in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/simcore/config"
	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/engine"
	"github.com/milk9111/simcore/host"
	"github.com/milk9111/simcore/physics"
	"go.uber.org/zap"
)

type term struct {
	screen tcell.Screen
	eng    *engine.Engine
	loop   *ecs.Loop
	ticker *host.Ticker
	cancel context.CancelFunc

	// cells per world unit
	scaleX, scaleY float64
	paused         bool
}

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (defaults to $SIMCORE_CONFIG)")
	scenePath := flag.String("scene", "", "scene YAML file (defaults to the configured scene)")
	physicsEngine := flag.String("engine", "", "physics engine override: chipmunk or box2d")
	scale := flag.Float64("scale", 2, "terminal columns per world unit")
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatal(err)
	}
	if *physicsEngine != "" {
		cfg.Physics.Engine = *physicsEngine
	}
	// The terminal is the display; keep log output off it unless a file is configured.
	logger := zap.NewNop()
	if path := os.Getenv("SIMCORE_LOG"); path != "" {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.OutputPaths = []string{path}
		if logger, err = zcfg.Build(); err != nil {
			log.Fatal(err)
		}
	}
	defer logger.Sync()

	eng, err := engine.New(cfg, *scenePath, logger)
	if err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	defer screen.Fini()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	t := &term{
		screen: screen,
		eng:    eng,
		ticker: host.NewTicker(host.DefaultInterval),
		cancel: cancel,
		scaleX: *scale,
		scaleY: *scale / 2,
	}
	t.loop = eng.NewLoop(t.ticker, ecs.WithAfterTick(func(float64) { t.draw() }))

	go t.pollInput()

	t.loop.Start()
	t.draw()
	_ = t.ticker.Run(ctx)
	t.loop.Close()
}

// pollInput forwards terminal events to the simulation goroutine.
func (t *term) pollInput() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		t.ticker.RequestFrame(func() { t.handle(ev) })
	}
}

func (t *term) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			t.cancel()
			return
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			t.cancel()
			return
		case ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
			t.togglePause()
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'r':
			if err := t.eng.Reload(); err != nil {
				t.status(err.Error())
				return
			}
		}
	}
	t.draw()
}

func (t *term) togglePause() {
	t.paused = !t.paused
	if t.paused {
		t.loop.Close()
		return
	}
	t.loop.Start()
}

func (t *term) toCell(p physics.Vec) (int, int) {
	w, h := t.screen.Size()
	return int(math.Round(float64(w)/2 + p.X*t.scaleX)), int(math.Round(float64(h)/2 + p.Y*t.scaleY))
}

func (t *term) draw() {
	t.eng.LogEvents()
	t.screen.Clear()
	w, h := t.screen.Size()

	for _, e := range t.eng.Registry.Entities() {
		if !e.Alive() {
			continue
		}
		pose := e.Pose()
		x, y := t.toCell(physics.Vec{X: pose.X, Y: pose.Y})
		if x < 0 || y < 1 || x >= w || y >= h {
			continue
		}
		def := e.Definition()
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		ch := 'o'
		switch {
		case !e.Settings().HasPhysics:
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
			ch = '*'
		case def.Kind == physics.KindStatic:
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
			ch = '#'
			t.drawExtent(def, pose, style)
		case def.Shape == physics.ShapeBox:
			ch = '@'
		}
		if title := e.Settings().Title; title != "" {
			if r, _ := utf8.DecodeRuneInString(title); r != utf8.RuneError {
				ch = r
			}
		}
		t.screen.SetContent(x, y, ch, nil, style)
	}

	state := "running"
	if t.paused {
		state = "paused"
	}
	t.status(fmt.Sprintf("%s  %s  fps %.0f  ticks %d  entities %d  [space] pause [r] reload [q] quit",
		state, t.eng.Registry.Mode(), t.loop.FPS(), t.loop.Ticks(), t.eng.Registry.Len()))
}

// drawExtent shades the horizontal span of a static body.
func (t *term) drawExtent(def physics.BodyDefinition, pose ecs.Pose, style tcell.Style) {
	w, _ := t.screen.Size()
	width, _ := def.Extent()
	half := width / 2
	x0, y := t.toCell(physics.Vec{X: pose.X - half, Y: pose.Y})
	x1, _ := t.toCell(physics.Vec{X: pose.X + half, Y: pose.Y})
	for x := max(x0, 0); x <= x1 && x < w; x++ {
		t.screen.SetContent(x, y, '=', nil, style)
	}
}

func (t *term) status(line string) {
	w, _ := t.screen.Size()
	for x := 0; x < w; x++ {
		t.screen.SetContent(x, 0, ' ', nil, tcell.StyleDefault.Reverse(true))
	}
	x := 0
	for _, r := range line {
		if x >= w {
			break
		}
		t.screen.SetContent(x, 0, r, nil, tcell.StyleDefault.Reverse(true))
		x++
	}
	t.screen.Show()
}
