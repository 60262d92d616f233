// Package scheduler implements the per-tick dispatch order: control
// packets, script callbacks, movement, particles, messages, then
// producer snapshots, grounded in spec §4.M and the teacher's MatchLoop
// shape in game.go (nakama's runtime.Match.MatchLoop callback already
// fixes "one pass per tick, dispatch sub-systems in order" as the
// idiom — this package generalizes it to the simulation's own ordering
// guarantees instead of the teacher's raw entity-update loop).
package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "openworld_scheduler_tick_duration_seconds",
	Help:    "Wall-clock time spent running every phase of one Scheduler.Tick call.",
	Buckets: prometheus.DefBuckets,
})

// Tickable is one ordered phase of a tick.
type Tickable interface {
	Tick(frame int64)
}

// TickableFunc adapts a plain function to Tickable.
type TickableFunc func(frame int64)

func (f TickableFunc) Tick(frame int64) { f(frame) }

// Scheduler runs a fixed, ordered list of phases once per tick. Object
// iteration order within a phase is the caller's responsibility (sector
// order, stable) — the scheduler only fixes the cross-phase order spec
// §4.M names: control packets, script dispatch, movement, particles,
// messages, snapshot.
type Scheduler struct {
	phases []Tickable
	frame  int64
}

// New builds a scheduler with phases run in the given order every tick.
// The conventional phase order is ControlPackets, ScriptDispatch,
// Movement, Particles, Messages, Snapshot — callers assemble exactly the
// phases their build needs in that relative order.
func New(phases ...Tickable) *Scheduler {
	return &Scheduler{phases: phases}
}

// Tick runs every phase once, in order, and advances the frame counter.
// Scripts observing the world during a phase see only state committed by
// earlier phases of the *same* tick, never later ones — enforced simply
// by phases running strictly in sequence on a single goroutine.
func (s *Scheduler) Tick() int64 {
	start := time.Now()
	for _, p := range s.phases {
		p.Tick(s.frame)
	}
	s.frame++
	tickDuration.Observe(time.Since(start).Seconds())
	return s.frame - 1
}

// Frame returns the frame number that will run on the next Tick call.
func (s *Scheduler) Frame() int64 { return s.frame }

// ObjectList is a stable, append-ordered sequence of live objects: new
// objects are appended at the tail so iteration order is deterministic
// across peers given identical creation order. Objects whose Dead flag
// flips mid-frame are not removed until Compact runs (so an
// already-passed cursor still iterates objects that "died" mid-frame,
// per the ordering guarantee in §5).
type ObjectList[T any] struct {
	items []listEntry[T]
}

type listEntry[T any] struct {
	obj  T
	dead bool
}

// Append adds obj at the tail.
func (l *ObjectList[T]) Append(obj T) {
	l.items = append(l.items, listEntry[T]{obj: obj})
}

// Remove marks the entry at index dead without disturbing iteration
// cursors already past it this frame.
func (l *ObjectList[T]) Remove(index int) {
	if index < 0 || index >= len(l.items) {
		return
	}
	l.items[index].dead = true
}

// Snapshot returns every object alive at the moment of the call, in
// stable append order, for a phase to iterate without seeing objects
// created later in the same tick.
func (l *ObjectList[T]) Snapshot() []T {
	out := make([]T, 0, len(l.items))
	for _, e := range l.items {
		if !e.dead {
			out = append(out, e.obj)
		}
	}
	return out
}

// Compact drops dead entries; called once per tick after every phase has
// run, never mid-tick.
func (l *ObjectList[T]) Compact() {
	kept := l.items[:0]
	for _, e := range l.items {
		if !e.dead {
			kept = append(kept, e)
		}
	}
	l.items = kept
}
