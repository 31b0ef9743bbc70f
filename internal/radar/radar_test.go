package radar

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jet-fighter/internal/config"
	"jet-fighter/internal/game"
	"jet-fighter/internal/vecmath"
)

func testSnapshot() *game.Snapshot {
	return &game.Snapshot{
		Pose: game.DefaultFrame(vecmath.V3(0, 3, 0)),
		Targets: []game.TargetSnapshot{
			{ID: 0, Center: [3]float64{-4, 3, -4}},
			{ID: 1, Center: [3]float64{4, 3, 4}, Hit: true},
		},
		Bullets: []game.Bullet{{ID: 1, Position: vecmath.V3(6, 3, -6)}},
	}
}

func TestProject(t *testing.T) {
	r := NewRenderer(config.DefaultSim().Bounds, 160)

	tests := []struct {
		name   string
		x, z   float64
		px, py float64
	}{
		{"min corner", -8, -8, 0, 0},
		{"max corner", 8, 8, 160, 160},
		{"center", 0, 0, 80, 80},
		{"spawn", 0, 7, 80, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, py := r.Project(tt.x, tt.z)
			assert.InDelta(t, tt.px, px, 1e-9)
			assert.InDelta(t, tt.py, py, 1e-9)
		})
	}
}

func TestNewRendererDefaultSize(t *testing.T) {
	r := NewRenderer(config.DefaultSim().Bounds, 0)
	assert.Equal(t, DefaultSize, r.Size())
}

func TestRenderDrawsAircraftAndBackground(t *testing.T) {
	r := NewRenderer(config.DefaultSim().Bounds, 128)
	img := r.Render(testSnapshot())

	require.Equal(t, 128, img.Bounds().Dx())
	require.Equal(t, 128, img.Bounds().Dy())

	// Aircraft at the arena center.
	c := img.RGBAAt(64, 64)
	assert.Greater(t, c.G, c.R)
	assert.Greater(t, c.G, uint8(100))

	// Corner pixel is background.
	assert.Equal(t, colorBackground, img.RGBAAt(2, 2))
}

func TestRenderAircraftShadedByAltitude(t *testing.T) {
	bounds := config.DefaultSim().Bounds
	r := NewRenderer(bounds, 128)

	tests := []struct {
		name string
		y    float64
	}{
		{"floor", bounds.MinY},
		{"mid", (bounds.MinY + bounds.MaxY) / 2},
		{"ceiling", bounds.MaxY},
	}

	var prevG uint8
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := testSnapshot()
			snap.Pose.Position = vecmath.V3(0, tt.y, 0)
			c := r.Render(snap).RGBAAt(64, 64)

			// Green dominates at every altitude and brightens with height.
			assert.Greater(t, c.G, c.R)
			assert.Greater(t, c.G, c.B)
			assert.Greater(t, c.G, uint8(100))
			assert.GreaterOrEqual(t, c.G, prevG)
			prevG = c.G
		})
	}
}

func TestRenderReturnsCopy(t *testing.T) {
	r := NewRenderer(config.DefaultSim().Bounds, 64)
	first := r.Render(testSnapshot())
	before := first.RGBAAt(32, 32)

	snap := testSnapshot()
	snap.Pose.Position = vecmath.V3(-7, 3, -7)
	r.Render(snap)

	assert.Equal(t, before, first.RGBAAt(32, 32))
}

func TestWritePNG(t *testing.T) {
	r := NewRenderer(config.DefaultSim().Bounds, 96)
	var buf bytes.Buffer
	require.NoError(t, r.WritePNG(&buf, testSnapshot()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 96, img.Bounds().Dx())
}
