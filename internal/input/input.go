// Package input holds the boolean-per-action control state written by input
// sources (HTTP, WebSocket, keyboard bridges) and read once per tick by the
// simulation.
package input

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Action is a control the pilot can hold.
type Action uint8

const (
	ActionNone Action = iota
	ActionYawLeft
	ActionYawRight
	ActionPitchUp
	ActionPitchDown
	ActionReset
	ActionFire
	ActionBoost
	actionCount
)

var ErrUnknownAction = errors.New("unknown action")

// actionNames maps canonical action names to actions.
var actionNames = map[string]Action{
	"yaw_left":   ActionYawLeft,
	"yaw_right":  ActionYawRight,
	"pitch_up":   ActionPitchUp,
	"pitch_down": ActionPitchDown,
	"reset":      ActionReset,
	"fire":       ActionFire,
	"boost":      ActionBoost,
}

// String returns the canonical action name.
func (a Action) String() string {
	for name, act := range actionNames {
		if act == a {
			return name
		}
	}
	return "none"
}

// ParseAction resolves a canonical action name.
func ParseAction(name string) (Action, error) {
	if a, ok := actionNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return a, nil
	}
	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// DefaultKeyMap is the keyboard layout: a/d yaw, w/s pitch, r reset,
// shift boost, space fire.
var DefaultKeyMap = map[string]Action{
	"a":     ActionYawLeft,
	"d":     ActionYawRight,
	"w":     ActionPitchUp,
	"s":     ActionPitchDown,
	"r":     ActionReset,
	"shift": ActionBoost,
	" ":     ActionFire,
	"space": ActionFire,
}

// State is an immutable snapshot of every action.
type State struct {
	YawLeft   bool `json:"yaw_left"`
	YawRight  bool `json:"yaw_right"`
	PitchUp   bool `json:"pitch_up"`
	PitchDown bool `json:"pitch_down"`
	Reset     bool `json:"reset"`
	Fire      bool `json:"fire"`
	Boost     bool `json:"boost"`
}

// Source supplies a control snapshot once per tick.
type Source interface {
	Snapshot() State
}

// Controls is the shared, concurrency-safe control state.
type Controls struct {
	mu     sync.RWMutex
	held   [actionCount]bool
	keyMap map[string]Action
}

// NewControls creates controls using DefaultKeyMap.
func NewControls() *Controls {
	return NewControlsWithKeyMap(DefaultKeyMap)
}

// NewControlsWithKeyMap creates controls with a custom key layout.
// Keys are matched case-insensitively.
func NewControlsWithKeyMap(keyMap map[string]Action) *Controls {
	km := make(map[string]Action, len(keyMap))
	for k, a := range keyMap {
		if k != " " {
			k = strings.ToLower(k)
		}
		km[k] = a
	}
	return &Controls{keyMap: km}
}

// Set updates a single action.
func (c *Controls) Set(a Action, held bool) {
	if a == ActionNone || a >= actionCount {
		return
	}
	c.mu.Lock()
	c.held[a] = held
	c.mu.Unlock()
}

// SetKey maps a key name to its action and updates it. Unmapped keys are
// ignored and reported false.
func (c *Controls) SetKey(key string, held bool) bool {
	if key != " " {
		key = strings.ToLower(key)
	}
	a, ok := c.keyMap[key]
	if !ok {
		return false
	}
	c.Set(a, held)
	return true
}

// Apply overwrites every action with s.
func (c *Controls) Apply(s State) {
	c.mu.Lock()
	c.held[ActionYawLeft] = s.YawLeft
	c.held[ActionYawRight] = s.YawRight
	c.held[ActionPitchUp] = s.PitchUp
	c.held[ActionPitchDown] = s.PitchDown
	c.held[ActionReset] = s.Reset
	c.held[ActionFire] = s.Fire
	c.held[ActionBoost] = s.Boost
	c.mu.Unlock()
}

// Release clears every action.
func (c *Controls) Release() {
	c.Apply(State{})
}

// Held reports whether a single action is held.
func (c *Controls) Held(a Action) bool {
	if a >= actionCount {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.held[a]
}

// Snapshot returns a consistent copy of all actions.
func (c *Controls) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		YawLeft:   c.held[ActionYawLeft],
		YawRight:  c.held[ActionYawRight],
		PitchUp:   c.held[ActionPitchUp],
		PitchDown: c.held[ActionPitchDown],
		Reset:     c.held[ActionReset],
		Fire:      c.held[ActionFire],
		Boost:     c.held[ActionBoost],
	}
}
