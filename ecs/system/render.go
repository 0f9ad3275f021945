package system

import (
	"image"
	"image/color"
	_ "image/png"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/simcore/ecs"
	"github.com/milk9111/simcore/ecs/component"
	"github.com/milk9111/simcore/physics"
	"github.com/milk9111/simcore/prefabs"
	"go.uber.org/zap"
)

const circleSegments = 24

var fallbackColor = color.NRGBA{R: 255, B: 255, A: 255}

// RenderSystem draws entity poses. It never writes to the registry.
type RenderSystem struct {
	colors map[string]color.Color
	images map[string]*ebiten.Image
	white  *ebiten.Image
	log    *zap.Logger
}

func NewRenderSystem(log *zap.Logger) *RenderSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &RenderSystem{
		colors: make(map[string]color.Color),
		images: make(map[string]*ebiten.Image),
		log:    log,
	}
}

func (r *RenderSystem) Draw(reg *ecs.Registry, screen *ebiten.Image, cam Camera) {
	if r == nil || reg == nil || screen == nil {
		return
	}
	for _, e := range reg.Entities() {
		if !e.Alive() {
			continue
		}
		settings := e.Settings()
		def := e.Definition()
		pose := e.Pose()
		col := r.color(settings.Color)

		switch settings.DrawMode {
		case component.DrawImage:
			if img := r.image(settings.Image); img != nil {
				r.drawImage(screen, img, def, pose, settings.Scale, cam)
				continue
			}
			r.fill(screen, def, pose, col, cam)
		case component.DrawOutline:
			r.stroke(screen, def, pose, col, cam)
		default:
			r.fill(screen, def, pose, col, cam)
		}
	}
}

// color resolves and caches a settings color. Unparseable colors fall back
// to magenta.
func (r *RenderSystem) color(s string) color.Color {
	if c, ok := r.colors[s]; ok {
		return c
	}
	c, err := prefabs.ParseColor(s)
	if err != nil {
		r.log.Warn("bad entity color", zap.String("color", s), zap.Error(err))
		c = fallbackColor
	}
	r.colors[s] = c
	return c
}

func (r *RenderSystem) image(path string) *ebiten.Image {
	if path == "" {
		return nil
	}
	if img, ok := r.images[path]; ok {
		return img
	}
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		r.log.Warn("entity image unavailable", zap.String("image", path), zap.Error(err))
		img = nil
	}
	r.images[path] = img
	return img
}

func (r *RenderSystem) fill(screen *ebiten.Image, def physics.BodyDefinition, pose ecs.Pose, col color.Color, cam Camera) {
	if def.Shape == physics.ShapeCircle {
		x, y := cam.ToScreen(physics.Vec{X: pose.X, Y: pose.Y})
		radius := def.Radius * cam.scale()
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(radius), col, true)
		r.spoke(screen, def, pose, color.Black, cam)
		return
	}
	pts := Outline(def, pose)
	if len(pts) < 3 {
		return
	}
	var path vector.Path
	for i, p := range pts {
		x, y := cam.ToScreen(p)
		if i == 0 {
			path.MoveTo(float32(x), float32(y))
			continue
		}
		path.LineTo(float32(x), float32(y))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	cr, cg, cb, ca := col.RGBA()
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR = float32(cr) / 0xffff
		vs[i].ColorG = float32(cg) / 0xffff
		vs[i].ColorB = float32(cb) / 0xffff
		vs[i].ColorA = float32(ca) / 0xffff
	}
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	screen.DrawTriangles(vs, is, r.whitePixel(), op)
}

func (r *RenderSystem) stroke(screen *ebiten.Image, def physics.BodyDefinition, pose ecs.Pose, col color.Color, cam Camera) {
	pts := Outline(def, pose)
	for i := range pts {
		ax, ay := cam.ToScreen(pts[i])
		bx, by := cam.ToScreen(pts[(i+1)%len(pts)])
		vector.StrokeLine(screen, float32(ax), float32(ay), float32(bx), float32(by), 2, col, true)
	}
	if def.Shape == physics.ShapeCircle {
		r.spoke(screen, def, pose, col, cam)
	}
}

// spoke draws the radius a circle is rotated to.
func (r *RenderSystem) spoke(screen *ebiten.Image, def physics.BodyDefinition, pose ecs.Pose, col color.Color, cam Camera) {
	cx, cy := cam.ToScreen(physics.Vec{X: pose.X, Y: pose.Y})
	ex, ey := cam.ToScreen(physics.Vec{
		X: pose.X + math.Cos(pose.Angle)*def.Radius,
		Y: pose.Y + math.Sin(pose.Angle)*def.Radius,
	})
	vector.StrokeLine(screen, float32(cx), float32(cy), float32(ex), float32(ey), 1, col, true)
}

func (r *RenderSystem) drawImage(screen, img *ebiten.Image, def physics.BodyDefinition, pose ecs.Pose, scale float64, cam Camera) {
	w, h := def.Extent()
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	op.GeoM.Scale(w/float64(b.Dx())*scale, h/float64(b.Dy())*scale)
	op.GeoM.Rotate(pose.Angle)
	op.GeoM.Scale(cam.scale(), cam.scale())
	x, y := cam.ToScreen(physics.Vec{X: pose.X, Y: pose.Y})
	op.GeoM.Translate(x, y)
	screen.DrawImage(img, op)
}

func (r *RenderSystem) whitePixel() *ebiten.Image {
	if r.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		r.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return r.white
}

// Outline returns the world-space corners of the shape at pose. Circles are
// approximated with a fixed number of segments.
func Outline(def physics.BodyDefinition, pose ecs.Pose) []physics.Vec {
	var local []physics.Vec
	switch def.Shape {
	case physics.ShapeCircle:
		local = make([]physics.Vec, 0, circleSegments)
		for i := 0; i < circleSegments; i++ {
			t := 2 * math.Pi * float64(i) / circleSegments
			local = append(local, physics.Vec{X: math.Cos(t) * def.Radius, Y: math.Sin(t) * def.Radius})
		}
	case physics.ShapePolygon:
		local = def.Points
	default:
		hw, hh := def.Width/2, def.Height/2
		local = []physics.Vec{{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh}}
	}

	sin, cos := math.Sincos(pose.Angle)
	out := make([]physics.Vec, 0, len(local))
	for _, p := range local {
		out = append(out, physics.Vec{
			X: pose.X + p.X*cos - p.Y*sin,
			Y: pose.Y + p.X*sin + p.Y*cos,
		})
	}
	return out
}
