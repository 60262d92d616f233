// Package query implements the declarative find/sort engine: a criterion
// tree of opcodes evaluated against game objects, with sector-iteration
// optimization when bounds are known, grounded in spec §4.L. No direct
// teacher equivalent; the opcode-dispatch-over-a-tree shape follows the
// generic "switch on a tagged node kind" idiom the corpus uses for its
// Lua marshal code in script_engine.go.
package query

import (
	"sort"

	"github.com/legacyclonk/openworld-core/internal/fixmath"
)

// Object is the minimal surface the query engine needs from a game
// object. Extra fields queried by specific opcodes (Action, Owner, ...)
// are read through the small per-opcode accessor interfaces below so the
// engine itself stays decoupled from the concrete object type.
type Object interface {
	ID() int64
	Pos() (x, y int)
	OCF() uint32
	Category() uint32
}

type hasAction interface{ Action() string }
type hasActionTarget interface {
	ActionTarget(index int) (Object, bool)
}
type hasContainer interface{ Container() (Object, bool) }
type hasOwner interface{ Owner() int }
type hasController interface{ Controller() int }
type hasLayer interface{ Layer() (Object, bool) }
type hasShape interface {
	CoversPoint(x, y int) bool
	IntersectsRect(r fixmath.Rect) bool
	IntersectsLine(x1, y1, x2, y2 int) bool
}

// Criterion is one node of the query tree.
type Criterion interface {
	eval(o Object) bool
	// bounds reports a conservative rect the criterion can only match
	// inside, for sector-iteration pruning; ok is false if unbounded.
	bounds() (fixmath.Rect, bool)
}

type notC struct{ c Criterion }

func (n notC) eval(o Object) bool { return !n.c.eval(o) }
func (n notC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Not(c Criterion) Criterion { return notC{c} }

type andC struct{ children []Criterion }

func (a andC) eval(o Object) bool {
	for _, c := range a.children {
		if !c.eval(o) {
			return false
		}
	}
	return true
}

// bounds intersects every bounded child's rect; per spec §4.L, an And
// with any bounded child can use sector iteration over the intersection.
func (a andC) bounds() (fixmath.Rect, bool) {
	var r fixmath.Rect
	found := false
	for _, c := range a.children {
		cr, ok := c.bounds()
		if !ok {
			continue
		}
		if !found {
			r, found = cr, true
			continue
		}
		ir, ok2 := r.Intersect(cr)
		if !ok2 {
			return fixmath.Rect{}, false
		}
		r = ir
	}
	return r, found
}

func And(children ...Criterion) Criterion { return andC{children} }

type orC struct{ children []Criterion }

func (o orC) eval(obj Object) bool {
	for _, c := range o.children {
		if c.eval(obj) {
			return true
		}
	}
	return false
}

// bounds unions every child's rect; only valid when ALL children are
// bounded (an unbounded child means the Or as a whole is unbounded).
func (o orC) bounds() (fixmath.Rect, bool) {
	var r fixmath.Rect
	for i, c := range o.children {
		cr, ok := c.bounds()
		if !ok {
			return fixmath.Rect{}, false
		}
		if i == 0 {
			r = cr
		} else {
			r = r.Add(cr)
		}
	}
	return r, len(o.children) > 0
}

func Or(children ...Criterion) Criterion { return orC{children} }

type excludeC struct{ obj Object }

func (e excludeC) eval(o Object) bool       { return o != e.obj }
func (e excludeC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Exclude(obj Object) Criterion { return excludeC{obj} }

type idC struct{ id int64 }

func (c idC) eval(o Object) bool       { return o.ID() == c.id }
func (c idC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func ID(id int64) Criterion { return idC{id} }

type inRectC struct{ r fixmath.Rect }

func (c inRectC) eval(o Object) bool {
	x, y := o.Pos()
	return c.r.Contains(x, y)
}
func (c inRectC) bounds() (fixmath.Rect, bool) { return c.r, true }

func InRect(x, y, w, h int) Criterion {
	return inRectC{fixmath.Rect{X: x, Y: y, Wdt: w, Hgt: h}}
}

type atPointC struct{ x, y int }

func (c atPointC) eval(o Object) bool {
	s, ok := o.(hasShape)
	return ok && s.CoversPoint(c.x, c.y)
}
func (c atPointC) bounds() (fixmath.Rect, bool) {
	return fixmath.Rect{X: c.x, Y: c.y, Wdt: 1, Hgt: 1}, true
}

// AtPoint forces shape-list iteration per §4.L; the bounds rect returned
// here is a single point so callers that do sector pruning still narrow
// to the sectors overlapping it.
func AtPoint(x, y int) Criterion { return atPointC{x, y} }

type atRectC struct{ r fixmath.Rect }

func (c atRectC) eval(o Object) bool {
	s, ok := o.(hasShape)
	return ok && s.IntersectsRect(c.r)
}
func (c atRectC) bounds() (fixmath.Rect, bool) { return c.r, true }

func AtRect(x, y, w, h int) Criterion {
	return atRectC{fixmath.Rect{X: x, Y: y, Wdt: w, Hgt: h}}
}

type onLineC struct{ x1, y1, x2, y2 int }

func (c onLineC) eval(o Object) bool {
	s, ok := o.(hasShape)
	return ok && s.IntersectsLine(c.x1, c.y1, c.x2, c.y2)
}
func (c onLineC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func OnLine(x1, y1, x2, y2 int) Criterion { return onLineC{x1, y1, x2, y2} }

type distanceC struct {
	x, y, r int
}

func (c distanceC) eval(o Object) bool {
	ox, oy := o.Pos()
	return fixmath.Distance(ox, oy, c.x, c.y) <= c.r
}
func (c distanceC) bounds() (fixmath.Rect, bool) {
	return fixmath.Rect{X: c.x - c.r, Y: c.y - c.r, Wdt: 2 * c.r, Hgt: 2 * c.r}, true
}

func Distance(x, y, r int) Criterion { return distanceC{x, y, r} }

type ocfC struct{ mask uint32 }

func (c ocfC) eval(o Object) bool       { return o.OCF()&c.mask != 0 }
func (c ocfC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func OCF(mask uint32) Criterion { return ocfC{mask} }

type categoryC struct{ mask uint32 }

func (c categoryC) eval(o Object) bool       { return o.Category()&c.mask != 0 }
func (c categoryC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Category(mask uint32) Criterion { return categoryC{mask} }

type actionC struct{ name string }

func (c actionC) eval(o Object) bool {
	a, ok := o.(hasAction)
	return ok && a.Action() == c.name
}
func (c actionC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Action(name string) Criterion { return actionC{name} }

type actionTargetC struct {
	target Object
	index  int
}

func (c actionTargetC) eval(o Object) bool {
	a, ok := o.(hasActionTarget)
	if !ok {
		return false
	}
	t, ok := a.ActionTarget(c.index)
	return ok && t == c.target
}
func (c actionTargetC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func ActionTarget(target Object, index int) Criterion { return actionTargetC{target, index} }

type containerC struct{ container Object }

func (c containerC) eval(o Object) bool {
	hc, ok := o.(hasContainer)
	if !ok {
		return false
	}
	cont, ok := hc.Container()
	return ok && cont == c.container
}
func (c containerC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Container(container Object) Criterion { return containerC{container} }

type anyContainerC struct{}

func (anyContainerC) eval(o Object) bool {
	hc, ok := o.(hasContainer)
	if !ok {
		return false
	}
	_, ok = hc.Container()
	return ok
}
func (anyContainerC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func AnyContainer() Criterion { return anyContainerC{} }

type ownerC struct{ owner int }

func (c ownerC) eval(o Object) bool {
	h, ok := o.(hasOwner)
	return ok && h.Owner() == c.owner
}
func (c ownerC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Owner(owner int) Criterion { return ownerC{owner} }

type controllerC struct{ controller int }

func (c controllerC) eval(o Object) bool {
	h, ok := o.(hasController)
	return ok && h.Controller() == c.controller
}
func (c controllerC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Controller(controller int) Criterion { return controllerC{controller} }

type layerC struct{ layer Object }

func (c layerC) eval(o Object) bool {
	h, ok := o.(hasLayer)
	if !ok {
		return false
	}
	l, ok := h.Layer()
	return ok && l == c.layer
}
func (c layerC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

func Layer(layer Object) Criterion { return layerC{layer} }

type funcC struct {
	fn func(o Object) bool
}

func (c funcC) eval(o Object) bool       { return c.fn(o) }
func (c funcC) bounds() (fixmath.Rect, bool) { return fixmath.Rect{}, false }

// Func wraps a custom predicate, standing in for the original's named
// script-function callback (resolved by the caller before query time).
func Func(fn func(o Object) bool) Criterion { return funcC{fn} }

// SectorSource optionally narrows iteration to the sectors overlapping a
// bounds rect, for the And/Or sector-iteration optimization.
type SectorSource interface {
	ObjectsInRect(r fixmath.Rect) []Object
}

// Count, Find, and FindMany all share one evaluation pass: if the
// criterion resolves a bounds rect and a SectorSource is available,
// iteration is narrowed to that rect; otherwise every object is scanned.
func candidates(c Criterion, all []Object, sectors SectorSource) []Object {
	if sectors != nil {
		if r, ok := c.bounds(); ok {
			return sectors.ObjectsInRect(r)
		}
	}
	return all
}

func Count(c Criterion, all []Object, sectors SectorSource) int {
	n := 0
	for _, o := range candidates(c, all, sectors) {
		if c.eval(o) {
			n++
		}
	}
	return n
}

// Find returns the lowest-id matching object, or nil.
func Find(c Criterion, all []Object, sectors SectorSource) Object {
	var best Object
	for _, o := range candidates(c, all, sectors) {
		if !c.eval(o) {
			continue
		}
		if best == nil || o.ID() < best.ID() {
			best = o
		}
	}
	return best
}

// FindMany returns every matching object in ascending id order.
func FindMany(c Criterion, all []Object, sectors SectorSource) []Object {
	var out []Object
	for _, o := range candidates(c, all, sectors) {
		if c.eval(o) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
