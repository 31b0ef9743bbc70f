package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// TargetSnapshot is an immutable copy of one target for rendering.
type TargetSnapshot struct {
	ID     int        `json:"id"`
	Center [3]float64 `json:"center"`
	Axis   [3]float64 `json:"axis"`
	Hit    bool       `json:"hit"`
}

// Snapshot is a complete copy of the simulation state for the presentation
// layer. Slices are owned by the snapshot; use CopyTo to keep one.
type Snapshot struct {
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	TickNumber uint64    `json:"tick"`

	Pose    Pose    `json:"pose"`
	Boost   float64 `json:"boost"`
	FOVHint float64 `json:"fov"`

	Bullets     []Bullet         `json:"bullets"`
	Targets     []TargetSnapshot `json:"targets"`
	MeshVersion uint64           `json:"meshVersion"`

	Score         int    `json:"score"`
	ActiveTargets int    `json:"activeTargets"`
	Collisions    uint64 `json:"collisions"`
	TargetsHit    uint64 `json:"targetsHit"`
	BulletsFired  uint64 `json:"bulletsFired"`
	GeometryReady bool   `json:"geometryReady"`
}

// CopyTo deep-copies s into dst, reusing dst's slice capacity.
func (s *Snapshot) CopyTo(dst *Snapshot) {
	if dst.Bullets == nil {
		dst.Bullets = make([]Bullet, 0, len(s.Bullets))
	}
	if dst.Targets == nil {
		dst.Targets = make([]TargetSnapshot, 0, len(s.Targets))
	}
	bullets := append(dst.Bullets[:0], s.Bullets...)
	targets := append(dst.Targets[:0], s.Targets...)
	*dst = *s
	dst.Bullets = bullets
	dst.Targets = targets
}

type snapshotSlot struct {
	mu   sync.RWMutex
	snap Snapshot
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Triple buffering: the producer fills one slot while readers copy the last
// published one. Each slot carries its own lock so a slow reader can never
// observe a half-written snapshot.
type SnapshotPool struct {
	slots    [3]snapshotSlot
	writeIdx uint32 // atomic - producer index
	readIdx  uint32 // atomic - consumer index
	sequence uint64 // atomic - monotonic sequence
	writing  *snapshotSlot
}

// NewSnapshotPool creates a pool with pre-allocated slices
func NewSnapshotPool(maxBullets, targetCount int) *SnapshotPool {
	pool := &SnapshotPool{}
	for i := range pool.slots {
		pool.slots[i].snap = Snapshot{
			Bullets: make([]Bullet, 0, maxBullets),
			Targets: make([]TargetSnapshot, 0, targetCount),
		}
	}
	return pool
}

// AcquireWrite locks the next write slot (producer only, called from the tick)
// and returns it with slices reset but capacity preserved.
func (p *SnapshotPool) AcquireWrite(now time.Time) *Snapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	slot := &p.slots[idx]
	slot.mu.Lock()
	p.writing = slot

	snap := &slot.snap
	snap.Bullets = snap.Bullets[:0]
	snap.Targets = snap.Targets[:0]
	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = now
	return snap
}

// PublishWrite unlocks the slot filled since AcquireWrite and makes it the
// one readers see.
func (p *SnapshotPool) PublishWrite() {
	if p.writing == nil {
		return
	}
	p.writing.mu.Unlock()
	p.writing = nil
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// Read copies the latest published snapshot into dst.
func (p *SnapshotPool) Read(dst *Snapshot) {
	slot := &p.slots[atomic.LoadUint32(&p.readIdx)%3]
	slot.mu.RLock()
	slot.snap.CopyTo(dst)
	slot.mu.RUnlock()
}
