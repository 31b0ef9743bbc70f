package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jet-fighter/internal/config"
	"jet-fighter/internal/vecmath"
)

func readEvents(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), "line %q", sc.Text())
		out = append(out, ev)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestEventLogNotRunning(t *testing.T) {
	el := NewEventLog(config.DefaultEventLog(), zerolog.Nop())
	assert.False(t, el.EmitSimple(EventTypeTick, t0, 1, SourceEngine, nil))
	assert.Zero(t, el.Stats().Total)
	el.Stop() // no-op
}

func TestEventLogWritesNDJSON(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog(config.DefaultEventLog(), zerolog.Nop())
	el.StartWriter(&buf)

	require.True(t, el.EmitSimple(EventTypeCollision, t0, 3, SourceAircraft, CollisionPayload{Penalty: 10, Score: 40}))
	require.True(t, el.EmitSimple(EventTypeTargetHit, t0, 4, SourceTargets, TargetHitPayload{TargetID: 2, Points: 10, Score: 50}))
	el.Stop()

	events := readEvents(t, buf.Bytes())
	require.Len(t, events, 2)
	assert.Equal(t, "collision", events[0]["type"])
	assert.Equal(t, "aircraft", events[0]["source"])
	assert.EqualValues(t, 1, events[0]["sequence"])
	assert.EqualValues(t, 3, events[0]["tickNum"])
	assert.Equal(t, "target_hit", events[1]["type"])
	assert.EqualValues(t, 2, events[1]["sequence"])

	payload := events[1]["payload"].(map[string]any)
	assert.EqualValues(t, 2, payload["targetId"])

	stats := el.Stats()
	assert.Equal(t, uint64(2), stats.Total)
	assert.Zero(t, stats.Pending)
	assert.False(t, stats.Running)
}

func TestEventLogRateLimit(t *testing.T) {
	cfg := config.DefaultEventLog()
	cfg.MaxPerSecond = 10 // global burst 1
	el := NewEventLog(cfg, zerolog.Nop())
	el.StartWriter(&bytes.Buffer{})
	defer el.Stop()

	accepted := 0
	for i := 0; i < 20; i++ {
		if el.EmitSimple(EventTypeTick, t0, uint64(i), SourceEngine, nil) {
			accepted++
		}
	}
	assert.Less(t, accepted, 20)
	assert.Equal(t, uint64(20-accepted), el.Stats().Dropped)
}

func TestEventLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	el := NewEventLog(config.DefaultEventLog(), zerolog.Nop())
	require.NoError(t, el.Start(path))
	el.EmitSimple(EventTypeReset, t0, 1, SourceEngine, nil)
	el.Stop()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	events := readEvents(t, data)
	require.Len(t, events, 1)
	assert.Equal(t, "reset", events[0]["type"])
}

func TestEventLogStartBadPath(t *testing.T) {
	el := NewEventLog(config.DefaultEventLog(), zerolog.Nop())
	err := el.Start(filepath.Join(t.TempDir(), "missing", "events.ndjson"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open event log")
}

func TestEngineEmitsEvents(t *testing.T) {
	e, clock := newTestEngine(t, []Placement{{Center: vecmath.V3(0, 3, 7), Axis: vecmath.UnitZ}})
	var buf bytes.Buffer
	e.EventLog().StartWriter(&buf)

	e.Fire()
	e.Tick(clock.Now())
	e.aircraft.pose.Position = vecmath.V3(0, 0.5, 0)
	e.aircraft.pose.Forward = vecmath.UnitY
	e.aircraft.pose.Up = vecmath.UnitZ.Neg()
	e.Tick(clock.Now())
	e.StopEventLog()

	var types []string
	for _, ev := range readEvents(t, buf.Bytes()) {
		types = append(types, ev["type"].(string))
	}
	assert.Equal(t, []string{"target_hit", "bullet_fired", "tick", "collision", "tick"}, types)
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EventTypeTick, "tick"},
		{EventTypeCollision, "collision"},
		{EventTypeTargetHit, "target_hit"},
		{EventTypeTargetRespawn, "target_respawn"},
		{EventTypeBulletFired, "bullet_fired"},
		{EventTypeReset, "reset"},
		{EventType(200), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.String())
	}
}
