package game

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"jet-fighter/internal/config"
	"jet-fighter/internal/input"
	"jet-fighter/internal/vecmath"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// -----------------------------------------------------------------------------
// ENGINE TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkEngineTick_15Targets(b *testing.B) { benchmarkEngineTick(b, config.DefaultTargets()) }
func BenchmarkEngineTick_Dense(b *testing.B)     { benchmarkEngineTick(b, config.DenseTargets()) }

func benchmarkEngineTick(b *testing.B, targets config.TargetConfig) {
	clock := NewManualClock(t0)
	engine := NewEngine(EngineConfig{
		Targets: targets,
		Clock:   clock,
		Rand:    rand.New(rand.NewSource(1)),
		Input:   staticInput{input.State{YawLeft: true, Boost: true, Fire: true}},
		Logger:  zerolog.Nop(),
	})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		clock.Advance(16 * time.Millisecond)
		engine.Tick(clock.Now())
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkProduceSnapshot(b *testing.B) {
	engine := NewEngine(EngineConfig{Rand: rand.New(rand.NewSource(1)), Logger: zerolog.Nop()})
	now := time.Now()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.ProduceSnapshot(now)
	}
}

func BenchmarkGetSnapshot(b *testing.B) {
	engine := NewEngine(EngineConfig{Rand: rand.New(rand.NewSource(1)), Logger: zerolog.Nop()})
	var s Snapshot

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.snapshotPool.Read(&s)
	}
}

// -----------------------------------------------------------------------------
// AIRCRAFT / TARGET BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkAircraftUpdate(b *testing.B) {
	a := newTestAircraft()
	in := input.State{YawLeft: true, PitchUp: true}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		a.Update(in)
	}
}

func BenchmarkTargetsCheck(b *testing.B) {
	ts := NewTargets(config.DenseTargets(), rand.New(rand.NewSource(1)))
	pos := vecmath.V3(0, 3, 7)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ts.Check(pos, t0)
	}
}

func BenchmarkTargetsRebuild(b *testing.B) {
	ts := NewTargets(config.DefaultTargets(), rand.New(rand.NewSource(1)))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		ts.rebuild()
	}
}
