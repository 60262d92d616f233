package query

import "testing"

const categoryObject uint32 = 1 << 0

type testObj struct {
	id       int64
	x, y     int
	category uint32
}

func (o *testObj) ID() int64     { return o.id }
func (o *testObj) Pos() (int, int) { return o.x, o.y }
func (o *testObj) OCF() uint32   { return 0 }
func (o *testObj) Category() uint32 { return o.category }

// TestFindQueryComposition implements spec scenario S4: eight objects,
// two matching both InRect and Category, six failing one or the other.
func TestFindQueryComposition(t *testing.T) {
	objs := []Object{
		&testObj{id: 1, x: 10, y: 10, category: categoryObject},  // matches
		&testObj{id: 2, x: 20, y: 20, category: categoryObject},  // matches
		&testObj{id: 3, x: 200, y: 200, category: categoryObject}, // out of rect
		&testObj{id: 4, x: 300, y: 300, category: categoryObject}, // out of rect
		&testObj{id: 5, x: 10, y: 10, category: 0},                // wrong category
		&testObj{id: 6, x: 20, y: 20, category: 0},                // wrong category
		&testObj{id: 7, x: 50, y: 50, category: 0},                // wrong category
		&testObj{id: 8, x: 500, y: 500, category: 0},              // out of rect + wrong category
	}

	q := And(InRect(0, 0, 100, 100), Category(categoryObject))

	if n := Count(q, objs, nil); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}

	found := Find(q, objs, nil)
	if found == nil || found.ID() != 1 {
		t.Fatalf("Find returned id %v, want 1", found)
	}

	many := FindMany(q, objs, nil)
	if len(many) != 2 {
		t.Fatalf("FindMany returned %d objects, want 2", len(many))
	}
	if many[0].ID() != 1 || many[1].ID() != 2 {
		t.Fatalf("FindMany order = [%d,%d], want [1,2]", many[0].ID(), many[1].ID())
	}
}

func TestAndBoundsIntersection(t *testing.T) {
	q := And(InRect(0, 0, 50, 50), InRect(25, 25, 50, 50))
	r, ok := q.(andC).bounds()
	if !ok {
		t.Fatal("expected a bounded intersection")
	}
	if r.X != 25 || r.Y != 25 || r.Wdt != 25 || r.Hgt != 25 {
		t.Fatalf("bounds = %+v, want {25,25,25,25}", r)
	}
}

func TestOrRequiresAllChildrenBounded(t *testing.T) {
	q := Or(InRect(0, 0, 10, 10), OCF(1))
	if _, ok := q.(orC).bounds(); ok {
		t.Fatal("expected Or with an unbounded child to report unbounded")
	}
}

func TestNotInvertsMatch(t *testing.T) {
	obj := &testObj{id: 1, category: categoryObject}
	if Not(Category(categoryObject)).eval(obj) {
		t.Fatal("expected Not(Category) to reject a matching object")
	}
}
