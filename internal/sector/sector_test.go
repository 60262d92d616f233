package sector

import (
	"testing"

	"github.com/legacyclonk/openworld-core/internal/fixmath"
)

type testObj struct {
	id   int
	x, y int
	rect fixmath.Rect
}

func (o *testObj) SectorPos() (int, int)           { return o.x, o.y }
func (o *testObj) SectorShapeRect() fixmath.Rect { return o.rect }

func TestAddPutsObjectInOwningSector(t *testing.T) {
	idx := New(256, 256)
	o := &testObj{id: 1, x: 40, y: 40, rect: fixmath.Rect{X: 36, Y: 36, Wdt: 8, Hgt: 8}}
	idx.Add(o)

	s := idx.SectorAt(40, 40)
	found := false
	for _, cand := range s.Objects() {
		if cand == o {
			found = true
		}
	}
	if !found {
		t.Fatal("expected object in its owning position sector")
	}
}

func TestUpdateRelinksOnMove(t *testing.T) {
	idx := New(256, 256)
	o := &testObj{id: 1, x: 10, y: 10, rect: fixmath.Rect{X: 8, Y: 8, Wdt: 4, Hgt: 4}}
	idx.Add(o)

	oldSector := idx.SectorAt(10, 10)
	o.x, o.y = 200, 200
	o.rect = fixmath.Rect{X: 198, Y: 198, Wdt: 4, Hgt: 4}
	idx.Update(o)

	for _, cand := range oldSector.Objects() {
		if cand == o {
			t.Fatal("object should have been relinked out of its old sector")
		}
	}
	newSector := idx.SectorAt(200, 200)
	found := false
	for _, cand := range newSector.Objects() {
		if cand == o {
			found = true
		}
	}
	if !found {
		t.Fatal("expected object relinked into new sector")
	}
}

func TestShapeOverlapMultipleSectors(t *testing.T) {
	idx := New(256, 256)
	// rect spans the boundary between sector (0,0) and (1,0)
	o := &testObj{id: 1, x: 30, y: 10, rect: fixmath.Rect{X: 28, Y: 5, Wdt: 10, Hgt: 5}}
	idx.Add(o)

	s0 := idx.SectorAt(20, 10)
	s1 := idx.SectorAt(40, 10)
	in := func(s *Sector) bool {
		for _, cand := range s.ObjectShapes() {
			if cand == o {
				return true
			}
		}
		return false
	}
	if !in(s0) || !in(s1) {
		t.Fatal("expected shape registered in both overlapping sectors")
	}
}

func TestRemoveWalksInsertionSectors(t *testing.T) {
	idx := New(64, 64)
	o := &testObj{id: 1, x: 10, y: 10, rect: fixmath.Rect{X: 28, Y: 5, Wdt: 10, Hgt: 5}}
	idx.Add(o)
	idx.Remove(o)

	for _, s := range idx.sectors {
		for _, cand := range s.Objects() {
			if cand == o {
				t.Fatal("object still present in position list after Remove")
			}
		}
		for _, cand := range s.ObjectShapes() {
			if cand == o {
				t.Fatal("object still present in shape list after Remove")
			}
		}
	}
}

func TestAreaYieldsOutOfBoundsSentinelOnlyWhenEscaped(t *testing.T) {
	idx := New(64, 64)
	inBounds := NewArea(idx, fixmath.Rect{X: 0, Y: 0, Wdt: 32, Hgt: 32})
	for s := inBounds.Next(); s != nil; s = inBounds.Next() {
		if s.X == -1 && s.Y == -1 {
			t.Fatal("in-bounds rect must not yield the sentinel sector")
		}
	}

	escaping := NewArea(idx, fixmath.Rect{X: 48, Y: 48, Wdt: 64, Hgt: 64})
	sawSentinel := false
	for s := escaping.Next(); s != nil; s = escaping.Next() {
		if s.X == -1 && s.Y == -1 {
			sawSentinel = true
		}
	}
	if !sawSentinel {
		t.Fatal("rect escaping world bounds must yield the sentinel sector")
	}
}
