// Package radar draws a top-down view of the flight arena from an engine
// snapshot. X runs left to right and Z top to bottom; altitude is ignored
// except for the aircraft marker shade.
package radar

import (
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"jet-fighter/internal/config"
	"jet-fighter/internal/game"
)

const (
	DefaultSize = 256
	gridLines   = 8
)

var (
	colorBackground = color.RGBA{12, 12, 28, 255}
	colorGrid       = color.RGBA{30, 30, 45, 255}
	colorTarget     = color.RGBA{255, 196, 0, 255}
	colorTargetHit  = color.RGBA{90, 70, 40, 255}
	colorBullet     = color.RGBA{255, 80, 80, 255}
	colorAircraft   = color.NRGBA{83, 255, 69, 255}
)

// Renderer owns a reusable drawing context. Render calls are serialized.
type Renderer struct {
	mu     sync.Mutex
	size   int
	bounds config.Bounds
	dc     *gg.Context
}

// NewRenderer creates a size×size renderer for the given world box.
// A non-positive size uses DefaultSize.
func NewRenderer(bounds config.Bounds, size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	return &Renderer{
		size:   size,
		bounds: bounds,
		dc:     gg.NewContext(size, size),
	}
}

// Size returns the image edge length in pixels.
func (r *Renderer) Size() int { return r.size }

// Project maps a world X/Z pair to pixel coordinates.
func (r *Renderer) Project(x, z float64) (px, py float64) {
	b := r.bounds
	s := float64(r.size)
	px = (x - b.MinX) / (b.MaxX - b.MinX) * s
	py = (z - b.MinZ) / (b.MaxZ - b.MinZ) * s
	return px, py
}

// Render draws snap and returns a copy of the frame.
func (r *Renderer) Render(snap *game.Snapshot) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	src := r.dc.Image().(*image.RGBA)
	out := image.NewRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// WritePNG draws snap and encodes it to w.
func (r *Renderer) WritePNG(w io.Writer, snap *game.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draw(snap)
	return r.dc.EncodePNG(w)
}

func (r *Renderer) draw(snap *game.Snapshot) {
	dc := r.dc
	r.drawBackground(dc)
	r.drawTargets(dc, snap.Targets)
	r.drawBullets(dc, snap.Bullets)
	r.drawAircraft(dc, snap.Pose)
}

func (r *Renderer) drawBackground(dc *gg.Context) {
	s := float64(r.size)
	dc.SetColor(colorBackground)
	dc.DrawRectangle(0, 0, s, s)
	dc.Fill()

	dc.SetColor(colorGrid)
	dc.SetLineWidth(1)
	step := s / gridLines
	for i := 1; i < gridLines; i++ {
		v := float64(i) * step
		dc.DrawLine(v, 0, v, s)
		dc.Stroke()
		dc.DrawLine(0, v, s, v)
		dc.Stroke()
	}
}

func (r *Renderer) drawTargets(dc *gg.Context, targets []game.TargetSnapshot) {
	radius := math.Max(float64(r.size)/64, 2)
	dc.SetLineWidth(2)
	for _, t := range targets {
		x, y := r.Project(t.Center[0], t.Center[2])
		if t.Hit {
			dc.SetColor(colorTargetHit)
		} else {
			dc.SetColor(colorTarget)
		}
		dc.DrawCircle(x, y, radius)
		dc.Stroke()
	}
}

func (r *Renderer) drawBullets(dc *gg.Context, bullets []game.Bullet) {
	dc.SetColor(colorBullet)
	for _, b := range bullets {
		x, y := r.Project(b.Position.X, b.Position.Z)
		dc.DrawCircle(x, y, 1.5)
		dc.Fill()
	}
}

// drawAircraft draws a triangle pointing along the direction of travel
// (-Forward) projected onto the ground plane.
func (r *Renderer) drawAircraft(dc *gg.Context, pose game.Pose) {
	x, y := r.Project(pose.Position.X, pose.Position.Z)
	heading := math.Atan2(-pose.Forward.Z, -pose.Forward.X)
	size := math.Max(float64(r.size)/32, 4)

	// Brighter when higher.
	b := r.bounds
	alt := (pose.Position.Y - b.MinY) / (b.MaxY - b.MinY)
	alt = math.Min(math.Max(alt, 0), 1)
	c := colorAircraft
	c.A = uint8(140 + 115*alt)

	dc.Push()
	dc.Translate(x, y)
	dc.Rotate(heading)
	dc.MoveTo(size, 0)
	dc.LineTo(-size*0.6, size*0.5)
	dc.LineTo(-size*0.6, -size*0.5)
	dc.ClosePath()
	dc.SetColor(c)
	dc.Fill()
	dc.Pop()
}
