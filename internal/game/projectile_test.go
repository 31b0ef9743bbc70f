package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jet-fighter/internal/config"
	"jet-fighter/internal/vecmath"
)

func TestProjectilesCooldown(t *testing.T) {
	p := NewProjectiles(config.DefaultProjectiles())
	pos := vecmath.V3(0, 3, 7)

	require.True(t, p.Fire(t0, pos, vecmath.UnitZ))
	assert.False(t, p.Fire(t0.Add(100*time.Millisecond), pos, vecmath.UnitZ))
	assert.False(t, p.Fire(t0.Add(200*time.Millisecond), pos, vecmath.UnitZ))
	assert.Equal(t, 1, p.Len())

	assert.True(t, p.Fire(t0.Add(300*time.Millisecond), pos, vecmath.UnitZ))
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, uint64(2), p.LastID())
}

func TestProjectilesLifetime(t *testing.T) {
	p := NewProjectiles(config.DefaultProjectiles())
	require.True(t, p.Fire(t0, vecmath.Vec3{}, vecmath.UnitZ))

	p.Update(t0.Add(1999 * time.Millisecond))
	assert.Equal(t, 1, p.Len())

	p.Update(t0.Add(2001 * time.Millisecond))
	assert.Equal(t, 0, p.Len())
}

func TestProjectilesMoveAgainstDirection(t *testing.T) {
	p := NewProjectiles(config.DefaultProjectiles())
	require.True(t, p.Fire(t0, vecmath.V3(1, 2, 3), vecmath.V3(0, 0, 2)))

	p.Update(t0.Add(16 * time.Millisecond))
	p.Update(t0.Add(32 * time.Millisecond))

	bullets := p.AppendTo(nil)
	require.Len(t, bullets, 1)
	assertVecNear(t, vecmath.UnitZ, bullets[0].Direction)
	assertVecNear(t, vecmath.V3(1, 2, 3-0.6), bullets[0].Position)
	assert.Equal(t, t0, bullets[0].CreatedAt)
}

func TestProjectilesMaxActive(t *testing.T) {
	cfg := config.DefaultProjectiles()
	cfg.Cooldown = 0
	p := NewProjectiles(cfg)

	accepted := 0
	for i := 0; i < cfg.MaxActive+5; i++ {
		if p.Fire(t0, vecmath.Vec3{}, vecmath.UnitZ) {
			accepted++
		}
	}
	assert.Equal(t, cfg.MaxActive, accepted)
	assert.Equal(t, cfg.MaxActive, p.Len())

	p.Clear()
	assert.Zero(t, p.Len())
	assert.True(t, p.Fire(t0, vecmath.Vec3{}, vecmath.UnitZ))
}

func TestProjectilesCapUnreachableAtDefaults(t *testing.T) {
	cfg := config.DefaultProjectiles()
	p := NewProjectiles(cfg)

	maxLen, accepted := 0, 0
	for now := t0; now.Before(t0.Add(10 * time.Second)); now = now.Add(10 * time.Millisecond) {
		p.Update(now)
		if p.Fire(now, vecmath.Vec3{}, vecmath.UnitZ) {
			accepted++
		}
		maxLen = max(maxLen, p.Len())
	}

	// Held fire is limited by the cooldown alone.
	assert.GreaterOrEqual(t, accepted, 36)
	assert.LessOrEqual(t, maxLen, 9)
	assert.Less(t, maxLen, cfg.MaxActive)
}

func TestProjectilesIDsIncrease(t *testing.T) {
	cfg := config.DefaultProjectiles()
	cfg.Cooldown = 0
	p := NewProjectiles(cfg)

	for i := 0; i < 3; i++ {
		p.Fire(t0, vecmath.Vec3{}, vecmath.UnitZ)
	}
	bullets := p.AppendTo(nil)
	for i, b := range bullets {
		assert.Equal(t, uint64(i+1), b.ID)
	}
}
