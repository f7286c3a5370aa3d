// Package render draws debug frames of the arena from engine snapshots.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"sync"

	"ring-arena/internal/combat"
	"ring-arena/internal/game"

	"github.com/fogleman/gg"
)

// Palette
var (
	background   = color.RGBA{12, 12, 28, 255}
	gridLine     = color.RGBA{30, 30, 45, 255}
	targetBody   = color.RGBA{120, 144, 156, 255}
	dummyBody    = color.RGBA{255, 193, 7, 255}
	hpBarBack    = color.RGBA{51, 51, 51, 255}
	labelColor   = color.RGBA{220, 220, 230, 255}
	defaultColor = color.RGBA{255, 255, 255, 255}
)

// statusRings lists the status counters drawn as rings around a target, innermost first
var statusRings = []struct {
	mask  combat.StatusMask
	color color.RGBA
}{
	{combat.StatusCut, color.RGBA{244, 67, 54, 255}},
	{combat.StatusDegenerate, color.RGBA{33, 150, 243, 255}},
	{combat.StatusSubdivide, color.RGBA{0, 188, 212, 255}},
	{combat.StatusDecimate, color.RGBA{156, 39, 176, 255}},
	{combat.StatusDissolve, color.RGBA{139, 195, 74, 255}},
}

// Renderer draws snapshots into a reused gg context
type Renderer struct {
	mu       sync.Mutex
	dc       *gg.Context
	width    int
	height   int
	cellSize float64
	fontPath string
}

// NewRenderer creates a renderer for a world of the given size
func NewRenderer(width, height int, cellSize float64) *Renderer {
	return &Renderer{
		dc:       gg.NewContext(width, height),
		width:    width,
		height:   height,
		cellSize: cellSize,
		fontPath: findFont(),
	}
}

// Render draws snap and returns a copy of the frame
func (r *Renderer) Render(snap *game.GameSnapshot) image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	src := r.dc.Image()
	out := image.NewRGBA(src.Bounds())
	copy(out.Pix, r.dc.Image().(*image.RGBA).Pix)
	return out
}

// EncodePNG draws snap and writes it as PNG
func (r *Renderer) EncodePNG(w io.Writer, snap *game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	if err := r.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return nil
}

func (r *Renderer) draw(snap *game.GameSnapshot) {
	dc := r.dc
	dc.SetColor(background)
	dc.DrawRectangle(0, 0, float64(r.width), float64(r.height))
	dc.Fill()
	r.drawGrid()

	if snap == nil {
		return
	}
	for i := range snap.Targets {
		r.drawTarget(&snap.Targets[i])
	}
	for i := range snap.Projectiles {
		r.drawProjectile(&snap.Projectiles[i])
	}
	r.drawHUD(snap)
}

func (r *Renderer) drawGrid() {
	if r.cellSize <= 0 {
		return
	}
	dc := r.dc
	dc.SetColor(gridLine)
	dc.SetLineWidth(1)
	for x := 0.0; x <= float64(r.width); x += r.cellSize {
		dc.DrawLine(x, 0, x, float64(r.height))
		dc.Stroke()
	}
	for y := 0.0; y <= float64(r.height); y += r.cellSize {
		dc.DrawLine(0, y, float64(r.width), y)
		dc.Stroke()
	}
}

func (r *Renderer) drawTarget(t *game.TargetSnapshot) {
	dc := r.dc
	dummy := t.MaxHealth == combat.UnlimitedHealth

	body := targetBody
	if dummy {
		body = dummyBody
	}
	dc.SetColor(body)
	dc.DrawCircle(t.X, t.Y, t.Radius)
	dc.Fill()

	// Status rings, one per active counter
	ring := t.Radius + 3
	for _, s := range statusRings {
		if combat.StatusMask(t.Active)&s.mask == 0 {
			continue
		}
		dc.SetColor(s.color)
		dc.SetLineWidth(2)
		dc.DrawCircle(t.X, t.Y, ring)
		dc.Stroke()
		ring += 3
	}

	if dummy {
		r.label(fmt.Sprintf("%d dmg", t.DamageTaken), t.X, t.Y-t.Radius-10)
		return
	}

	// Health bar
	barWidth := t.Radius * 2
	hp := 0.0
	if t.MaxHealth > 0 {
		hp = math.Max(0, float64(t.Health)/float64(t.MaxHealth))
	}
	top := t.Y - t.Radius - 12
	dc.SetColor(hpBarBack)
	dc.DrawRectangle(t.X-barWidth/2, top, barWidth, 4)
	dc.Fill()
	switch {
	case hp > 0.5:
		dc.SetColor(color.RGBA{83, 255, 69, 255})
	case hp > 0.25:
		dc.SetColor(color.RGBA{255, 149, 0, 255})
	default:
		dc.SetColor(color.RGBA{255, 62, 62, 255})
	}
	dc.DrawRectangle(t.X-barWidth/2, top, barWidth*hp, 4)
	dc.Fill()
}

func (r *Renderer) drawProjectile(p *game.ProjectileSnapshot) {
	dc := r.dc
	c := parseHexColor(p.Color)

	// Swept trail from the previous position
	trail := c
	trail.A = 96
	dc.SetColor(trail)
	dc.SetLineWidth(p.Radius * 2)
	dc.DrawLine(p.PrevX, p.PrevY, p.X, p.Y)
	dc.Stroke()

	dc.SetColor(c)
	dc.DrawCircle(p.X, p.Y, p.Radius)
	dc.Fill()
}

func (r *Renderer) drawHUD(snap *game.GameSnapshot) {
	r.label(fmt.Sprintf("step %d  hash %016x  targets %d  projectiles %d",
		snap.Step, snap.StateHash, snap.TargetCount, snap.ProjectileCount), float64(r.width)/2, 16)
}

func (r *Renderer) label(s string, x, y float64) {
	if r.fontPath == "" {
		return
	}
	if err := r.dc.LoadFontFace(r.fontPath, 12); err != nil {
		return
	}
	r.dc.SetColor(labelColor)
	r.dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

func parseHexColor(hex string) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return defaultColor
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return defaultColor
	}
	return color.RGBA{r, g, b, 255}
}

func findFont() string {
	paths := []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/System/Library/Fonts/Helvetica.ttc",
		"C:\\Windows\\Fonts\\arial.ttf",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
