package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"ring-arena/internal/combat"
	"ring-arena/internal/game"

	"github.com/go-chi/chi/v5"
)

// Request body limits (DoS protection)
const (
	maxBodyBytes     = 64 << 10
	maxSpawnsPerCall = 200
	maxFirePerCall   = 64
)

// Handler methods for routerHandlers

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	if snap == nil {
		writeError(w, "No step has run yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot read, no engine mutex
	snap := h.engine.GetSnapshot()
	stats := map[string]any{
		"eventLog": h.engine.GetEventLogStats(),
	}
	if snap != nil {
		stats["step"] = snap.Step
		stats["targetCount"] = snap.TargetCount
		stats["projectileCount"] = snap.ProjectileCount
		stats["lastStep"] = snap.Stats
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetHash(w http.ResponseWriter, r *http.Request) {
	step, hash := h.engine.StateHash()
	writeJSON(w, map[string]any{
		"step": step,
		"hash": fmt.Sprintf("%016x", hash),
	})
}

func (h *routerHandlers) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, "Invalid target id", http.StatusBadRequest)
		return
	}

	t, ok := h.engine.Target(combat.StableID(id))
	if !ok {
		writeError(w, "Target not found", http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{
		"id":          uint64(t.ID),
		"x":           t.Pos.X,
		"y":           t.Pos.Y,
		"radius":      t.Radius,
		"health":      t.Health,
		"maxHealth":   t.MaxHealth,
		"unlimited":   t.Unlimited(),
		"damageTaken": t.DamageTaken,
		"status": map[string]any{
			"cut":         t.Status.Cut,
			"degenerate":  t.Status.Degenerate,
			"subdivide":   t.Status.Subdivide,
			"subdivideAt": uint64(t.Status.SubdivideAt),
			"decimate":    t.Status.Decimate,
			"dissolve":    t.Status.Dissolve,
		},
	})
}

func (h *routerHandlers) handleGetArchetypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.GetAllArchetypes())
}

func (h *routerHandlers) handleGetRings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.Rings)
}

func (h *routerHandlers) handleDebugFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Renderer disabled", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.engine.GetSnapshot()); err != nil {
		log.Printf("❌ Debug frame failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

type vec2JSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v vec2JSON) vec() combat.Vec2 { return combat.Vec2{X: v.X, Y: v.Y} }

func (h *routerHandlers) handleSpawnTargets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Targets []struct {
			ID        uint64   `json:"id"`
			Pos       vec2JSON `json:"pos"`
			Radius    float64  `json:"radius"`
			MaxHealth int32    `json:"maxHealth"`
			Dummy     bool     `json:"dummy"`
		} `json:"targets"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Targets) == 0 || len(req.Targets) > maxSpawnsPerCall {
		writeError(w, fmt.Sprintf("Expected 1..%d targets", maxSpawnsPerCall), http.StatusBadRequest)
		return
	}

	in := game.StepInput{Targets: make([]game.TargetSpec, 0, len(req.Targets))}
	for _, t := range req.Targets {
		hp := t.MaxHealth
		if t.Dummy {
			hp = combat.UnlimitedHealth
		} else if hp < 0 {
			writeError(w, "maxHealth must not be negative", http.StatusBadRequest)
			return
		}
		in.Targets = append(in.Targets, game.TargetSpec{
			ID:        combat.StableID(t.ID),
			Pos:       t.Pos.vec(),
			Radius:    t.Radius,
			MaxHealth: hp,
		})
	}
	h.engine.Submit(in)
	writeJSON(w, map[string]any{"success": true, "queued": len(in.Targets)})
}

func (h *routerHandlers) handleFire(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Commands []struct {
			Owner uint64  `json:"owner"`
			Ring  int     `json:"ring"`
			Angle float64 `json:"angle"`
		} `json:"commands"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Commands) == 0 || len(req.Commands) > maxFirePerCall {
		writeError(w, fmt.Sprintf("Expected 1..%d commands", maxFirePerCall), http.StatusBadRequest)
		return
	}

	in := game.StepInput{Fire: make([]game.FireCommand, 0, len(req.Commands))}
	for _, c := range req.Commands {
		if c.Owner == 0 {
			writeError(w, "owner is required", http.StatusBadRequest)
			return
		}
		in.Fire = append(in.Fire, game.FireCommand{Owner: combat.StableID(c.Owner), Ring: c.Ring, Angle: c.Angle})
	}
	h.engine.Submit(in)
	writeJSON(w, map[string]any{"success": true, "queued": len(in.Fire)})
}

func (h *routerHandlers) handleSpawnProjectiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Projectiles []struct {
			Archetype string   `json:"archetype"`
			Owner     uint64   `json:"owner"`
			Pos       vec2JSON `json:"pos"`
			Vel       vec2JSON `json:"vel"`
		} `json:"projectiles"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Projectiles) == 0 || len(req.Projectiles) > maxSpawnsPerCall {
		writeError(w, fmt.Sprintf("Expected 1..%d projectiles", maxSpawnsPerCall), http.StatusBadRequest)
		return
	}

	in := game.StepInput{Projectiles: make([]game.ProjectileSpec, 0, len(req.Projectiles))}
	for _, p := range req.Projectiles {
		if _, ok := game.Archetypes[p.Archetype]; !ok {
			writeError(w, "Unknown archetype: "+p.Archetype, http.StatusBadRequest)
			return
		}
		in.Projectiles = append(in.Projectiles, game.ProjectileSpec{
			Archetype: p.Archetype,
			Owner:     combat.StableID(p.Owner),
			Pos:       p.Pos.vec(),
			Vel:       p.Vel.vec(),
		})
	}
	h.engine.Submit(in)
	writeJSON(w, map[string]any{"success": true, "queued": len(in.Projectiles)})
}

// Helper functions (package-level for reuse)

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
