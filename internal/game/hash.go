package game

import (
	"cmp"
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"ring-arena/internal/combat"
)

// stateHasher folds the full deterministic state into one 64-bit digest.
// Peers compare digests step by step; the first mismatch is a desync.
type stateHasher struct {
	digest *xxhash.Digest
	buf    []byte
	order  []combat.Handle
}

func newStateHasher() *stateHasher {
	return &stateHasher{digest: xxhash.New(), buf: make([]byte, 0, 256)}
}

func (h *stateHasher) u64(v uint64)  { h.buf = binary.LittleEndian.AppendUint64(h.buf, v) }
func (h *stateHasher) f64(v float64) { h.u64(math.Float64bits(v)) }

func (h *stateHasher) flush() {
	_, _ = h.digest.Write(h.buf)
	h.buf = h.buf[:0]
}

// sum hashes targets in id order, then projectiles in id order, then the
// counters that seed future steps. Presentation-only fields are excluded.
func (h *stateHasher) sum(e *Engine) uint64 {
	h.digest.Reset()
	h.buf = h.buf[:0]

	h.u64(uint64(e.step))
	h.u64(uint64(e.nextID))
	h.u64(uint64(e.arena.Len()))
	h.u64(uint64(len(e.projectiles)))
	h.u64(uint64(e.loops.Len()))

	h.order = h.order[:0]
	for i := 0; i < e.arena.Len(); i++ {
		h.order = append(h.order, combat.Handle(i))
	}
	slices.SortFunc(h.order, func(a, b combat.Handle) int {
		return cmp.Compare(e.arena.Target(a).ID, e.arena.Target(b).ID)
	})

	for _, hd := range h.order {
		t := e.arena.Target(hd)
		h.u64(uint64(t.ID))
		h.f64(t.Pos.X)
		h.f64(t.Pos.Y)
		h.f64(t.Radius)
		h.u64(uint64(uint32(t.Health)))
		h.u64(uint64(uint32(t.MaxHealth)))
		h.u64(uint64(t.DamageTaken))
		s := t.Status
		h.u64(uint64(s.Cut) | uint64(s.Degenerate)<<8 | uint64(s.Decimate)<<16 | uint64(s.Subdivide)<<24 | uint64(s.Dissolve)<<40)
		h.u64(uint64(s.SubdivideAt))
		h.flush()
	}

	for _, p := range e.projectiles {
		h.u64(uint64(p.ID))
		h.u64(uint64(p.Owner))
		h.u64(uint64(p.Ring)<<32 | uint64(uint32(p.LoopCount)))
		h.f64(p.Pos.X)
		h.f64(p.Pos.Y)
		h.f64(p.Vel.X)
		h.f64(p.Vel.Y)
		h.u64(uint64(int64(p.Pierce)))
		h.u64(uint64(p.ExpireAt))
		for _, id := range p.Ledger.IDs() {
			h.u64(uint64(id))
		}
		h.flush()
	}
	h.flush()

	return h.digest.Sum64()
}
