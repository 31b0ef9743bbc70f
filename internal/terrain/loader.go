package terrain

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/vecmath"
)

// spawnClearRadius keeps trees away from the aircraft spawn point.
const spawnClearRadius = 1.5

// World holds the collision meshes. Both start unloaded and become Loaded
// once the background generation completes.
type World struct {
	Landscape *Mesh
	Foliage   *Mesh
	Trees     []Tree
	Field     Heightfield

	ready chan struct{}
}

// Ready is closed when loading has finished or was abandoned.
func (w *World) Ready() <-chan struct{} { return w.ready }

// Loaded reports whether every mesh is available.
func (w *World) Loaded() bool {
	return w.Landscape.Loaded() && w.Foliage.Loaded()
}

// Load starts generating the world in the background and returns immediately.
// With terrain disabled the returned world has no meshes and is ready at once.
func Load(ctx context.Context, cfg config.TerrainConfig, spawn vecmath.Vec3, log zerolog.Logger) *World {
	log = log.With().Str("component", "terrain").Logger()
	w := &World{ready: make(chan struct{})}

	if !cfg.Enabled {
		log.Info().Msg("terrain disabled; obstacle tests will only see world bounds")
		close(w.ready)
		return w
	}

	w.Field = Heightfield{
		Extent:     cfg.Extent,
		Resolution: cfg.Resolution,
		Amplitude:  cfg.Amplitude,
		Phase:      float64(cfg.Seed%1000) / 1000 * 2 * math.Pi,
	}
	w.Landscape = NewMesh("landscape")
	w.Foliage = NewMesh("foliage")

	go func() {
		defer close(w.ready)
		start := time.Now()

		w.Landscape.Append(w.Field.Mesh())
		rng := rand.New(rand.NewSource(cfg.Seed))
		w.Trees = PlantTrees(w.Field, cfg.TreeCount, rng, spawn, spawnClearRadius)
		w.Foliage.Append(FoliageMesh(w.Trees))

		if cfg.LoadDelay > 0 {
			timer := time.NewTimer(cfg.LoadDelay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				log.Warn().Err(ctx.Err()).Msg("terrain load abandoned")
				return
			case <-timer.C:
			}
		}

		w.Landscape.Seal()
		w.Foliage.Seal()

		log.Info().
			Int("landscapeTris", w.Landscape.Len()).
			Int("foliageTris", w.Foliage.Len()).
			Int("trees", len(w.Trees)).
			Dur("took", time.Since(start)).
			Msg("terrain loaded")
	}()

	return w
}
