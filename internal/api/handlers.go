package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"jet-fighter/internal/input"
)

var (
	errEmptyInput          = errors.New("one of state, key or action is required")
	errRemoteInputDisabled = errors.New("remote input disabled")
	errUnknownMessage      = errors.New("unknown message type")
)

// inputRequest is accepted by POST /api/input and the "input" WebSocket
// message. Exactly one of State, Key or Action is used, in that order.
type inputRequest struct {
	State  *input.State `json:"state,omitempty"`
	Key    string       `json:"key,omitempty"`
	Action string       `json:"action,omitempty"`
	Held   bool         `json:"held"`
}

// applyInput writes req into controls.
func applyInput(controls *input.Controls, req inputRequest) error {
	switch {
	case req.State != nil:
		controls.Apply(*req.State)
	case req.Key != "":
		if !controls.SetKey(req.Key, req.Held) {
			return fmt.Errorf("key %q: %w", req.Key, input.ErrUnknownAction)
		}
	case req.Action != "":
		a, err := input.ParseAction(req.Action)
		if err != nil {
			return err
		}
		controls.Set(a, req.Held)
	default:
		return errEmptyInput
	}
	return nil
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"status":        "ok",
		"tick":          snap.TickNumber,
		"geometryReady": snap.GeometryReady,
	})
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetScore(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"score":         snap.Score,
		"activeTargets": snap.ActiveTargets,
		"targetsHit":    snap.TargetsHit,
		"collisions":    snap.Collisions,
	})
}

func (h *routerHandlers) handleGetTargetMesh(w http.ResponseWriter, r *http.Request) {
	mesh := h.engine.TargetMesh()

	etag := fmt.Sprintf(`"mesh-%d"`, mesh.Version)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, mesh)
}

func (h *routerHandlers) handleGetRadar(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.radar.WritePNG(w, &snap); err != nil {
		h.log.Warn().Err(err).Msg("radar encode failed")
	}
}

func (h *routerHandlers) handlePostInput(w http.ResponseWriter, r *http.Request) {
	controls := h.engine.Controls()
	if controls == nil {
		writeError(w, errRemoteInputDisabled.Error(), http.StatusConflict)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.limits.MaxInputBodyBytes)
	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := applyInput(controls, req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, controls.Snapshot())
}

func (h *routerHandlers) handleFire(w http.ResponseWriter, r *http.Request) {
	h.engine.Fire()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleReset(w http.ResponseWriter, r *http.Request) {
	h.engine.Reset()
	h.log.Info().Str("ip", GetClientIP(r)).Msg("aircraft reset requested")
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
