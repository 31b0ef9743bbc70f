package game

import (
	"time"

	"golang.org/x/time/rate"

	"jet-fighter/internal/config"
	"jet-fighter/internal/vecmath"
)

// Bullet is a cosmetic projectile. Bullets do not collide with targets or
// terrain; they fly straight until their lifetime runs out.
type Bullet struct {
	ID        uint64       `json:"id"`
	Position  vecmath.Vec3 `json:"position"`
	Direction vecmath.Vec3 `json:"direction"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Projectiles owns the active bullet set.
type Projectiles struct {
	cfg      config.ProjectileConfig
	bullets  []Bullet
	cooldown *rate.Limiter
	nextID   uint64
}

// NewProjectiles creates an empty bullet set. The fire cooldown is a
// single-token limiter refilled once per Cooldown.
func NewProjectiles(cfg config.ProjectileConfig) *Projectiles {
	limit := rate.Inf
	if cfg.Cooldown > 0 {
		limit = rate.Every(cfg.Cooldown)
	}
	return &Projectiles{
		cfg:      cfg,
		bullets:  make([]Bullet, 0, cfg.MaxActive),
		cooldown: rate.NewLimiter(limit, 1),
	}
}

// Fire spawns a bullet at position heading along direction. It returns false
// without side effects when called within the cooldown of the last accepted
// fire, or when the active cap is reached.
func (p *Projectiles) Fire(now time.Time, position, direction vecmath.Vec3) bool {
	if len(p.bullets) >= p.cfg.MaxActive {
		return false
	}
	if !p.cooldown.AllowN(now, 1) {
		return false
	}

	p.nextID++
	p.bullets = append(p.bullets, Bullet{
		ID:        p.nextID,
		Position:  position,
		Direction: direction.NormalizeOr(vecmath.UnitZ),
		CreatedAt: now,
	})
	return true
}

// Update drops bullets whose age reached the lifetime and advances the rest
// by -Direction*Speed.
func (p *Projectiles) Update(now time.Time) {
	// Zero-allocation in-place filtering
	n := 0
	for _, b := range p.bullets {
		if now.Sub(b.CreatedAt) >= p.cfg.Lifetime {
			continue
		}
		b.Position = b.Position.Add(b.Direction.Scale(-p.cfg.Speed))
		p.bullets[n] = b
		n++
	}
	p.bullets = p.bullets[:n]
}

// LastID returns the ID of the most recently spawned bullet.
func (p *Projectiles) LastID() uint64 { return p.nextID }

// Len returns the number of active bullets.
func (p *Projectiles) Len() int { return len(p.bullets) }

// AppendTo appends copies of the active bullets to dst.
func (p *Projectiles) AppendTo(dst []Bullet) []Bullet {
	return append(dst, p.bullets...)
}

// Clear removes every bullet. The cooldown is left untouched.
func (p *Projectiles) Clear() {
	p.bullets = p.bullets[:0]
}
