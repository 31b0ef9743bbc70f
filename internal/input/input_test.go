package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for name, want := range actionNames {
		got, err := ParseAction(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}

	got, err := ParseAction(" Boost ")
	require.NoError(t, err)
	assert.Equal(t, ActionBoost, got)

	_, err = ParseAction("barrel_roll")
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, "none", ActionNone.String())
}

func TestSetKeyDefaultLayout(t *testing.T) {
	tests := []struct {
		key  string
		want State
	}{
		{"a", State{YawLeft: true}},
		{"D", State{YawRight: true}},
		{"w", State{PitchUp: true}},
		{"s", State{PitchDown: true}},
		{"r", State{Reset: true}},
		{"Shift", State{Boost: true}},
		{" ", State{Fire: true}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			c := NewControls()
			require.True(t, c.SetKey(tt.key, true))
			assert.Equal(t, tt.want, c.Snapshot())

			c.SetKey(tt.key, false)
			assert.Equal(t, State{}, c.Snapshot())
		})
	}
}

func TestSetKeyUnmapped(t *testing.T) {
	c := NewControls()
	assert.False(t, c.SetKey("q", true))
	assert.Equal(t, State{}, c.Snapshot())
}

func TestSetIgnoresInvalidAction(t *testing.T) {
	c := NewControls()
	c.Set(ActionNone, true)
	c.Set(Action(200), true)
	assert.Equal(t, State{}, c.Snapshot())
	assert.False(t, c.Held(Action(200)))
}

func TestApplyAndRelease(t *testing.T) {
	c := NewControls()
	s := State{YawLeft: true, Fire: true, Boost: true}
	c.Apply(s)
	assert.Equal(t, s, c.Snapshot())
	assert.True(t, c.Held(ActionFire))

	c.Release()
	assert.Equal(t, State{}, c.Snapshot())
}

func TestSnapshotIsACopy(t *testing.T) {
	c := NewControls()
	c.Set(ActionBoost, true)
	snap := c.Snapshot()
	c.Set(ActionBoost, false)
	assert.True(t, snap.Boost)
}

func TestConcurrentWriters(t *testing.T) {
	c := NewControls()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Set(ActionYawLeft, j%2 == 0)
				_ = c.Snapshot()
			}
		}(i)
	}
	wg.Wait()
	c.Set(ActionYawLeft, false)
	assert.False(t, c.Snapshot().YawLeft)
}

func TestCustomKeyMap(t *testing.T) {
	c := NewControlsWithKeyMap(map[string]Action{"ArrowLeft": ActionYawLeft})
	assert.True(t, c.SetKey("arrowleft", true))
	assert.True(t, c.Snapshot().YawLeft)
	assert.False(t, c.SetKey("a", true))
}
