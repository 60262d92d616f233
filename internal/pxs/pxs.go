// Package pxs implements the pixel-sprite particle pool: chunked
// allocation with a free list, material-reaction execution, and wind
// drift, grounded in spec §4.G and original_source/src/C4PXS.cpp's
// presence in the pack. The chunk/free-list shape mirrors the resource
// pooling idiom the teacher uses for its gopher-lua state pool in
// script_engine.go, adapted to POD particle slots reused every tick.
package pxs

import "github.com/legacyclonk/openworld-core/internal/fixmath"

// MatNone marks a free/inactive slot.
const MatNone uint8 = 0

const chunkSize = 256

// Particle is one pixel sprite.
type Particle struct {
	Mat        uint8
	X, Y       fixmath.Fixed
	XDir, YDir fixmath.Fixed
	active     bool
}

// Handle addresses a particle by chunk and slot index, stable across
// SyncClearance compaction of OTHER chunks (the chunk this handle points
// into is only ever removed once its count reaches zero and a later
// SyncClearance runs, at which point the handle is considered dead).
type Handle struct {
	chunk *chunk
	slot  int
}

// Get dereferences the handle. Calling it after the particle was deleted
// returns the slot's last contents with active == false and Mat == MatNone.
func (h Handle) Get() *Particle {
	if h.chunk == nil || h.slot < 0 || h.slot >= len(h.chunk.slots) {
		return &Particle{}
	}
	return &h.chunk.slots[h.slot]
}

type chunk struct {
	slots []Particle
	count int // live particle count in this chunk
}

// Landscape is everything the particle step needs from the world.
type Landscape interface {
	GetMat(x, y int) uint8
	GetDensity(x, y int) int
	PathFree(x1, y1, x2, y2 int, lastFreeX, lastFreeY *int) bool
}

// ReactionTable answers material-reaction and wind queries for particle
// stepping.
type ReactionTable interface {
	// React reports whether a particle of mat pMat deactivates when
	// sitting in landscape material lMat.
	React(lMat, pMat uint8) bool
	// Wind returns the horizontal drift at (x,y) as a plain integer in
	// hundredths of a pixel per tick.
	Wind(x, y int) int
}

// Pool is a chunked, free-list-backed particle pool.
type Pool struct {
	chunks  []*chunk
	gravity fixmath.Fixed
	rand    func() int // injected for determinism: same seed sequence on every peer
}

// NewPool creates an empty pool. rand must be a deterministic generator
// (e.g. seeded from the frame's ControlSyncTick seed) so wind drift stays
// identical across peers.
func NewPool(gravity fixmath.Fixed, rand func() int) *Pool {
	return &Pool{gravity: gravity, rand: rand}
}

// New scans for a free slot (material == MatNone) and activates it,
// allocating a new chunk if every existing chunk is full.
func (p *Pool) New(mat uint8, x, y, xdir, ydir fixmath.Fixed) Handle {
	for _, c := range p.chunks {
		if c.count >= len(c.slots) {
			continue
		}
		for i := range c.slots {
			if !c.slots[i].active {
				c.slots[i] = Particle{Mat: mat, X: x, Y: y, XDir: xdir, YDir: ydir, active: true}
				c.count++
				return Handle{chunk: c, slot: i}
			}
		}
	}
	nc := &chunk{slots: make([]Particle, chunkSize)}
	nc.slots[0] = Particle{Mat: mat, X: x, Y: y, XDir: xdir, YDir: ydir, active: true}
	nc.count = 1
	p.chunks = append(p.chunks, nc)
	return Handle{chunk: nc, slot: 0}
}

// Delete resets the slot to free and decrements its chunk's live count.
func (p *Pool) Delete(h Handle) {
	pt := h.Get()
	if !pt.active {
		return
	}
	pt.active = false
	pt.Mat = MatNone
	h.chunk.count--
}

// FreeCount returns the total number of inactive slots across all chunks.
func (p *Pool) FreeCount() int {
	total := 0
	for _, c := range p.chunks {
		total += len(c.slots) - c.count
	}
	return total
}

// Active returns every currently active particle as a handle, for
// iteration.
func (p *Pool) Active() []Handle {
	var out []Handle
	for _, c := range p.chunks {
		for i := range c.slots {
			if c.slots[i].active {
				out = append(out, Handle{chunk: c, slot: i})
			}
		}
	}
	return out
}

// SyncClearance drops chunks that have gone fully empty between frames.
func (p *Pool) SyncClearance() {
	kept := p.chunks[:0]
	for _, c := range p.chunks {
		if c.count > 0 {
			kept = append(kept, c)
		}
	}
	p.chunks = kept
}

// Step executes one tick for a single particle per spec §4.G:
//  1. An invalid material deactivates it.
//  2. A material reaction against the landscape cell it occupies
//     deactivates it.
//  3. Gravity and wind drift are applied to its velocity.
//  4. It attempts to move to its target in one step; on a blocked path it
//     settles at the last free pixel. Either way it is re-checked for a
//     reaction at the cell it ends in.
func Step(l Landscape, react ReactionTable, p *Pool, h Handle) {
	pt := h.Get()
	if pt.Mat == MatNone {
		p.Delete(h)
		return
	}
	curMat := l.GetMat(pt.X.ToInt(), pt.Y.ToInt())
	if react.React(curMat, pt.Mat) {
		p.Delete(h)
		return
	}

	pt.YDir = pt.YDir.Add(p.gravity)

	if wind := react.Wind(pt.X.ToInt(), pt.Y.ToInt()); wind != 0 {
		drift := fixmath.FromInt(wind).Div(fixmath.FromInt(100))
		if p.rand != nil && p.rand()%2 == 0 {
			drift = -drift
		}
		pt.XDir = pt.XDir.Add(drift)
	}

	tx := pt.X.Add(pt.XDir)
	ty := pt.Y.Add(pt.YDir)
	x0, y0 := pt.X.ToInt(), pt.Y.ToInt()
	x1, y1 := tx.ToInt(), ty.ToInt()

	if l.PathFree(x0, y0, x1, y1, nil, nil) {
		pt.X, pt.Y = tx, ty
		if react.React(l.GetMat(x1, y1), pt.Mat) {
			p.Delete(h)
		}
		return
	}

	var lastX, lastY int
	l.PathFree(x0, y0, x1, y1, &lastX, &lastY)
	pt.X, pt.Y = fixmath.FromInt(lastX), fixmath.FromInt(lastY)

	if react.React(l.GetMat(lastX, lastY), pt.Mat) {
		p.Delete(h)
	}
}
