package game

import (
	"math/rand"
	"time"

	"jet-fighter/internal/config"
	"jet-fighter/internal/vecmath"
)

// Target is a ring the aircraft flies through. Active while Hit is false;
// destroyed targets wait for the respawn sweep.
type Target struct {
	ID             int          `json:"id"`
	Center         vecmath.Vec3 `json:"center"`
	Axis           vecmath.Vec3 `json:"axis"`
	OriginalCenter vecmath.Vec3 `json:"-"`
	OriginalAxis   vecmath.Vec3 `json:"-"`
	Hit            bool         `json:"hit"`
	HitTime        *time.Time   `json:"hitTime,omitempty"`
}

// Placement is where a target spawns.
type Placement struct {
	Center vecmath.Vec3
	Axis   vecmath.Vec3
}

// RandomPlacements scatters n rings over the arena with random unit axes.
// Centers fall within [-4,4] on X and Z and [1,5] on Y.
func RandomPlacements(n int, rng *rand.Rand) []Placement {
	unit := func() float64 { return rng.Float64()*2 - 1 }

	out := make([]Placement, n)
	for i := range out {
		center := vecmath.V3(unit()*4, unit()*1, unit()*4).
			Add(vecmath.V3(0, 2+rng.Float64()*2, 0))
		axis := vecmath.V3(unit(), unit(), unit()).NormalizeOr(vecmath.UnitZ)
		out[i] = Placement{Center: center, Axis: axis}
	}
	return out
}

// Targets owns the fixed pool of ring targets and their merged geometry.
type Targets struct {
	cfg      config.TargetConfig
	targets  []Target
	template torusTemplate

	mesh    TorusMesh
	version uint64

	scratch []int // reused by Check and Sweep
}

// NewTargets creates cfg.Count randomly placed targets.
func NewTargets(cfg config.TargetConfig, rng *rand.Rand) *Targets {
	return NewTargetsFrom(cfg, RandomPlacements(cfg.Count, rng))
}

// NewTargetsFrom creates one target per placement. cfg.Count is ignored.
func NewTargetsFrom(cfg config.TargetConfig, placements []Placement) *Targets {
	ts := &Targets{
		cfg:      cfg,
		targets:  make([]Target, len(placements)),
		template: newTorusTemplate(cfg.RingRadius, cfg.TubeRadius, cfg.RadialSegments, cfg.TubularSegments),
		scratch:  make([]int, 0, len(placements)),
	}
	for i, p := range placements {
		axis := p.Axis.NormalizeOr(vecmath.UnitZ)
		ts.targets[i] = Target{
			ID:             i,
			Center:         p.Center,
			Axis:           axis,
			OriginalCenter: p.Center,
			OriginalAxis:   axis,
		}
	}
	ts.rebuild()
	return ts
}

// hits reports whether pos, projected onto the ring plane, lies within the
// ring radius plus the aircraft radius of the target center.
func (ts *Targets) hits(t *Target, pos vecmath.Vec3) bool {
	v := pos.Sub(t.Center)
	d := t.Axis.Dot(v)
	projected := pos.Sub(t.Axis.Scale(d))
	return projected.Distance(t.Center) < ts.cfg.RingRadius+ts.cfg.AircraftRadius
}

// Check hit-tests every active target against pos. Hit targets are marked
// destroyed at now. It returns the indexes hit this call; the slice is reused
// on the next Check or Sweep.
func (ts *Targets) Check(pos vecmath.Vec3, now time.Time) []int {
	ts.scratch = ts.scratch[:0]
	for i := range ts.targets {
		t := &ts.targets[i]
		if t.Hit || !ts.hits(t, pos) {
			continue
		}
		hitAt := now
		t.Hit = true
		t.HitTime = &hitAt
		ts.scratch = append(ts.scratch, i)
	}
	if len(ts.scratch) > 0 {
		ts.rebuild()
	}
	return ts.scratch
}

// Points returns the score earned for n hits.
func (ts *Targets) Points(n int) int { return n * ts.cfg.Points }

// Sweep restores every target destroyed at least RespawnAfter ago to its
// original center and axis. It returns the respawned indexes; the slice is
// reused on the next Check or Sweep.
func (ts *Targets) Sweep(now time.Time) []int {
	ts.scratch = ts.scratch[:0]
	for i := range ts.targets {
		t := &ts.targets[i]
		if !t.Hit || t.HitTime == nil || now.Sub(*t.HitTime) < ts.cfg.RespawnAfter {
			continue
		}
		t.Hit = false
		t.HitTime = nil
		t.Center = t.OriginalCenter
		t.Axis = t.OriginalAxis
		ts.scratch = append(ts.scratch, i)
	}
	if len(ts.scratch) > 0 {
		ts.rebuild()
	}
	return ts.scratch
}

// rebuild regenerates the merged ring mesh from the active targets.
func (ts *Targets) rebuild() {
	ts.version++
	m := TorusMesh{Version: ts.version}
	for i := range ts.targets {
		if t := &ts.targets[i]; !t.Hit {
			ts.template.appendRing(&m, t.Center, t.Axis)
		}
	}
	ts.mesh = m
}

// Mesh returns the current merged geometry. The returned value shares
// backing arrays with the pool and must be treated as read-only; a rebuild
// allocates fresh arrays, so a held Mesh stays valid.
func (ts *Targets) Mesh() TorusMesh { return ts.mesh }

// MeshVersion increments every time the active set changes.
func (ts *Targets) MeshVersion() uint64 { return ts.version }

// Len returns the pool size.
func (ts *Targets) Len() int { return len(ts.targets) }

// ActiveCount returns the number of targets not currently destroyed.
func (ts *Targets) ActiveCount() int {
	n := 0
	for i := range ts.targets {
		if !ts.targets[i].Hit {
			n++
		}
	}
	return n
}

// Get returns a copy of target i.
func (ts *Targets) Get(i int) Target { return ts.targets[i] }

// AppendTo appends copies of all targets to dst.
func (ts *Targets) AppendTo(dst []Target) []Target {
	return append(dst, ts.targets...)
}

// SweepInterval is how often Sweep should run.
func (ts *Targets) SweepInterval() time.Duration { return ts.cfg.SweepInterval }
