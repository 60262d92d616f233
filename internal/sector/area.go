package sector

import "github.com/legacyclonk/openworld-core/internal/fixmath"

// Area iterates the sectors touching a rect, exposing separate cursors for
// the position list and the shape list. The out-of-bounds sentinel sector
// is yielded last, and only when the rect left the world, matching
// C4LArea's Next() semantics.
type Area struct {
	idx     *Index
	sectors []*Sector
	pos     int
}

// NewArea builds an iterator over every sector touching rect.
func NewArea(idx *Index, rect fixmath.Rect) *Area {
	return &Area{idx: idx, sectors: idx.sectorsForRect(rect)}
}

// Next returns the next sector, or nil when the iteration is exhausted.
func (a *Area) Next() *Sector {
	if a.pos >= len(a.sectors) {
		return nil
	}
	s := a.sectors[a.pos]
	a.pos++
	return s
}

// NextObjects drains the position lists of the sectors this area touches.
func (a *Area) NextObjects() []Object {
	var out []Object
	for _, s := range a.sectors {
		out = append(out, s.Objects()...)
	}
	return out
}

// NextObjectShapes drains the shape lists of the sectors this area
// touches, deduplicating objects that overlap more than one sector.
func (a *Area) NextObjectShapes() []Object {
	seen := make(map[Object]bool)
	var out []Object
	for _, s := range a.sectors {
		for _, o := range s.ObjectShapes() {
			if !seen[o] {
				seen[o] = true
				out = append(out, o)
			}
		}
	}
	return out
}

// Contains reports whether the area's sector set includes s.
func (a *Area) Contains(s *Sector) bool {
	for _, cand := range a.sectors {
		if cand == s {
			return true
		}
	}
	return false
}
