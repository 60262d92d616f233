// Package sector implements the spatial sector index: objects are
// bucketized by fixed-size sectors both by position and by shape-rect
// overlap, with O(1) delta-based relinking on move, grounded in the
// original engine's C4Sector/C4LSectors/C4LArea.
package sector

import "github.com/legacyclonk/openworld-core/internal/fixmath"

// Wdt/Hgt is the fixed sector cell size in landscape pixels, conceptually
// 32x32 per the spec.
const (
	SectorWdt = 32
	SectorHgt = 32
)

// Object is anything the sector index can track: a position and a shape
// bounding rect (both in landscape pixel space).
type Object interface {
	SectorPos() (x, y int)
	SectorShapeRect() fixmath.Rect
}

// node is an intrusive doubly-linked list entry; obj is nil for the head
// sentinel of a list.
type node struct {
	obj        Object
	prev, next *node
}

// list is a minimal intrusive doubly-linked list so removal is O(1) given
// the node pointer, matching the original's relinking behavior.
type list struct {
	head, tail *node
	byObj      map[Object]*node
}

func newList() *list {
	return &list{byObj: make(map[Object]*node)}
}

func (l *list) add(o Object) {
	n := &node{obj: o}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.byObj[o] = n
}

func (l *list) remove(o Object) bool {
	n, ok := l.byObj[o]
	if !ok {
		return false
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	delete(l.byObj, o)
	return true
}

func (l *list) items() []Object {
	out := make([]Object, 0, len(l.byObj))
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.obj)
	}
	return out
}

// Sector holds two object lists: Objects (by position) and ObjectShapes
// (by bounding-rect overlap).
type Sector struct {
	X, Y    int
	objects *list
	shapes  *list
}

func newSector(x, y int) *Sector {
	return &Sector{X: x, Y: y, objects: newList(), shapes: newList()}
}

// Objects returns the objects whose position currently falls in this
// sector.
func (s *Sector) Objects() []Object { return s.objects.items() }

// ObjectShapes returns the objects whose bounding rect currently overlaps
// this sector.
func (s *Sector) ObjectShapes() []Object { return s.shapes.items() }

// Index is the W x H array of sectors covering a landscape, plus the
// out-of-bounds sentinel sector.
type Index struct {
	Wdt, Hgt   int
	pxWdt, pxHgt int
	sectors    []*Sector
	sectorOut  *Sector

	shapeState map[Object]fixmath.Rect
	posState   map[Object][2]int
}

// New builds a sector index covering a pxWdt x pxHgt landscape.
func New(pxWdt, pxHgt int) *Index {
	wdt := ceilDiv(pxWdt, SectorWdt)
	hgt := ceilDiv(pxHgt, SectorHgt)
	idx := &Index{
		Wdt: wdt, Hgt: hgt,
		pxWdt: pxWdt, pxHgt: pxHgt,
		sectors:    make([]*Sector, wdt*hgt),
		sectorOut:  newSector(-1, -1),
		shapeState: make(map[Object]fixmath.Rect),
		posState:   make(map[Object][2]int),
	}
	for y := 0; y < hgt; y++ {
		for x := 0; x < wdt; x++ {
			idx.sectors[y*wdt+x] = newSector(x, y)
		}
	}
	return idx
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

// SectorAt returns the sector owning pixel (x, y), or the sentinel
// out-of-bounds sector.
func (idx *Index) SectorAt(x, y int) *Sector {
	sx, sy := x/SectorWdt, y/SectorHgt
	if sx < 0 || sx >= idx.Wdt || sy < 0 || sy >= idx.Hgt {
		return idx.sectorOut
	}
	return idx.sectors[sy*idx.Wdt+sx]
}

func (idx *Index) sectorsForRect(r fixmath.Rect) []*Sector {
	clipped, ok := r.Intersect(fixmath.Rect{X: 0, Y: 0, Wdt: idx.pxWdt, Hgt: idx.pxHgt})
	out := []*Sector{}
	includesOut := !ok || clipped != r
	if ok {
		sx0, sy0 := clipped.X/SectorWdt, clipped.Y/SectorHgt
		sx1, sy1 := (clipped.X+clipped.Wdt-1)/SectorWdt, (clipped.Y+clipped.Hgt-1)/SectorHgt
		for sy := sy0; sy <= sy1; sy++ {
			for sx := sx0; sx <= sx1; sx++ {
				out = append(out, idx.sectors[sy*idx.Wdt+sx])
			}
		}
	}
	if includesOut {
		out = append(out, idx.sectorOut)
	}
	return out
}

// Add inserts o into its owning position-sector and into every sector its
// shape rect overlaps.
func (idx *Index) Add(o Object) {
	x, y := o.SectorPos()
	idx.SectorAt(x, y).objects.add(o)
	idx.posState[o] = [2]int{x, y}

	rect := o.SectorShapeRect()
	for _, s := range idx.sectorsForRect(rect) {
		s.shapes.add(o)
	}
	idx.shapeState[o] = rect
}

// Update detects a position or shape-rect change since the last Add/Update
// and relinks only the sectors whose membership actually changed.
func (idx *Index) Update(o Object) {
	x, y := o.SectorPos()
	if old, ok := idx.posState[o]; !ok || old != [2]int{x, y} {
		if ok {
			idx.SectorAt(old[0], old[1]).objects.remove(o)
		}
		idx.SectorAt(x, y).objects.add(o)
		idx.posState[o] = [2]int{x, y}
	}

	newRect := o.SectorShapeRect()
	oldRect, ok := idx.shapeState[o]
	if ok && oldRect == newRect {
		return
	}
	oldSectors := map[*Sector]bool{}
	if ok {
		for _, s := range idx.sectorsForRect(oldRect) {
			oldSectors[s] = true
		}
	}
	newSectors := map[*Sector]bool{}
	for _, s := range idx.sectorsForRect(newRect) {
		newSectors[s] = true
	}
	for s := range oldSectors {
		if !newSectors[s] {
			s.shapes.remove(o)
		}
	}
	for s := range newSectors {
		if !oldSectors[s] {
			s.shapes.add(o)
		}
	}
	idx.shapeState[o] = newRect
}

// Remove walks exactly the sectors the object's area intersected at
// insertion/last-update time.
func (idx *Index) Remove(o Object) {
	if pos, ok := idx.posState[o]; ok {
		idx.SectorAt(pos[0], pos[1]).objects.remove(o)
		delete(idx.posState, o)
	}
	if rect, ok := idx.shapeState[o]; ok {
		for _, s := range idx.sectorsForRect(rect) {
			s.shapes.remove(o)
		}
		delete(idx.shapeState, o)
	}
}
