package game

import (
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/vecmath"
)

// ErrMissingCollisionGeometry is reported when an obstacle mesh has not been
// loaded yet. The mesh is treated as clear for that test.
var ErrMissingCollisionGeometry = errors.New("collision geometry not loaded")

// Obstacle is static geometry the aircraft can fly into.
type Obstacle interface {
	Loaded() bool
	// Raycast returns the distance to the first surface along dir within maxDist.
	Raycast(origin, dir vecmath.Vec3, maxDist float64) (float64, bool)
}

// ProbeResult is the outcome of a collision test.
type ProbeResult uint8

const (
	Clear ProbeResult = iota
	Collided
)

func (r ProbeResult) String() string {
	if r == Collided {
		return "collided"
	}
	return "clear"
}

// Probe tests candidate aircraft positions against the world bounds and the
// obstacle meshes. It never mutates the geometry it inspects.
type Probe struct {
	bounds         config.Bounds
	distance       float64
	boostThreshold float64
	boostAngle     float64

	obstacles []Obstacle
	warned    []atomic.Bool // per obstacle: missing geometry already logged

	log zerolog.Logger
}

// NewProbe creates a probe over the given obstacles. Nil obstacles are allowed
// and behave like meshes that never finish loading.
func NewProbe(cfg config.SimConfig, log zerolog.Logger, obstacles ...Obstacle) *Probe {
	return &Probe{
		bounds:         cfg.Bounds,
		distance:       cfg.CollisionDistance,
		boostThreshold: cfg.BoostRayThreshold,
		boostAngle:     cfg.BoostRayAngle,
		obstacles:      obstacles,
		warned:         make([]atomic.Bool, len(obstacles)),
		log:            log,
	}
}

// InBounds reports whether pos lies inside the world box (faces included).
func (p *Probe) InBounds(pos vecmath.Vec3) bool {
	b := p.bounds
	return pos.X >= b.MinX && pos.X <= b.MaxX &&
		pos.Y >= b.MinY && pos.Y <= b.MaxY &&
		pos.Z >= b.MinZ && pos.Z <= b.MaxZ
}

// Test checks a candidate position. The bounds check runs first and
// short-circuits; then a ray of CollisionDistance is cast along direction
// against every loaded obstacle. Above the boost threshold two extra rays
// rotated by ±BoostRayAngle about world up are cast as well.
func (p *Probe) Test(pos, direction vecmath.Vec3, boost float64) ProbeResult {
	if !pos.IsFinite() || !p.InBounds(pos) {
		return Collided
	}

	dir, err := direction.Normalize()
	if err != nil {
		// No usable heading: nothing to cast along.
		return Clear
	}

	if p.castAll(pos, dir) {
		return Collided
	}
	if boost > p.boostThreshold {
		if p.castAll(pos, dir.ApplyAxisAngle(vecmath.UnitY, p.boostAngle)) ||
			p.castAll(pos, dir.ApplyAxisAngle(vecmath.UnitY, -p.boostAngle)) {
			return Collided
		}
	}
	return Clear
}

func (p *Probe) castAll(origin, dir vecmath.Vec3) bool {
	for i, o := range p.obstacles {
		if err := p.ready(i, o); err != nil {
			continue
		}
		if _, hit := o.Raycast(origin, dir, p.distance); hit {
			return true
		}
	}
	return false
}

// ready returns ErrMissingCollisionGeometry for nil or unloaded meshes,
// logging each mesh once.
func (p *Probe) ready(i int, o Obstacle) error {
	if o != nil && o.Loaded() {
		return nil
	}
	if !p.warned[i].Swap(true) {
		p.log.Debug().Err(ErrMissingCollisionGeometry).Int("obstacle", i).
			Msg("skipping obstacle test for mesh")
	}
	return ErrMissingCollisionGeometry
}

// GeometryReady reports whether every obstacle is loaded.
func (p *Probe) GeometryReady() bool {
	for _, o := range p.obstacles {
		if o == nil || !o.Loaded() {
			return false
		}
	}
	return true
}
