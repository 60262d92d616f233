package value

import "testing"

func TestArrayCopyOnWrite(t *testing.T) {
	a := NewArray(Int(1), Int(2), Int(3))
	b := Copy(a)

	ref := Index(b, 1)
	SetElement(ref.R, Int(99))

	if GetContainerElement(a, 1).I != 2 {
		t.Fatal("expected original array untouched by write through a copy's ref")
	}
	if GetContainerElement(b, 1).I != 99 {
		t.Fatal("expected the write to land in the copy")
	}
}

func TestArrayInPlaceMutationWhenUnshared(t *testing.T) {
	a := NewArray(Int(1), Int(2))
	before := a.C
	ref := Index(a, 0)
	SetElement(ref.R, Int(7))
	if a.C != before {
		t.Fatal("expected no copy-on-write when refcount is 1")
	}
	if GetContainerElement(a, 0).I != 7 {
		t.Fatal("expected in-place write to land")
	}
}

func TestSetArrayLengthGrowPadsNil(t *testing.T) {
	a := NewArray(Int(1))
	SetArrayLength(&a, 3)
	if GetContainerElement(a, 1).Kind != KindNil {
		t.Fatal("expected grown slots to be Nil")
	}
	if GetContainerElement(a, 0).I != 1 {
		t.Fatal("expected original element preserved")
	}
}

func TestDerefChainAndIdempotent(t *testing.T) {
	a := NewArray(Int(42))
	r1 := Index(a, 0)
	got := Deref(r1)
	if got.Kind != KindInt || got.I != 42 {
		t.Fatalf("Deref = %+v, want Int(42)", got)
	}
	// Deref of an already-dereferenced (non-ref) value is a no-op.
	again := Deref(got)
	if !Compare(got, again, StrictTypeEqual) {
		t.Fatal("expected Deref to be idempotent on a non-ref value")
	}
}

func TestMapHashOrderIndependent(t *testing.T) {
	m1 := NewMap()
	SetElement(Ref{Container: m1.C, Key: "a"}, Int(1))
	SetElement(Ref{Container: m1.C, Key: "b"}, Int(2))

	m2 := NewMap()
	SetElement(Ref{Container: m2.C, Key: "b"}, Int(2))
	SetElement(Ref{Container: m2.C, Key: "a"}, Int(1))

	if Hash(m1) != Hash(m2) {
		t.Fatal("expected map hash to be independent of insertion order")
	}
	if !Compare(m1, m2, StrictDuckCompatible) {
		t.Fatal("expected maps with identical contents to compare equal")
	}
}

func TestCompareStrictnessModes(t *testing.T) {
	a := Int(1)
	b := Bool(true)
	if Compare(a, b, StrictTypeEqual) {
		t.Fatal("expected StrictTypeEqual to reject differing kinds")
	}
	if !Compare(a, b, StrictDuckCompatible) {
		t.Fatal("expected StrictDuckCompatible to treat int 1 and bool true as equal")
	}
}

func TestArenaFreeNullsBackReferences(t *testing.T) {
	var arena Arena
	h := arena.Alloc()

	v := Object(h)
	arena.TrackRef(h, &v)

	arena.Free(h)
	if v.Kind != KindNil {
		t.Fatal("expected back-reference to be nulled on Free")
	}
	if arena.Valid(h) {
		t.Fatal("expected handle to be invalid after Free")
	}
}

func TestArenaReusesSlotWithNewGeneration(t *testing.T) {
	var arena Arena
	h1 := arena.Alloc()
	arena.Free(h1)
	h2 := arena.Alloc()

	if h1.Index != h2.Index {
		t.Fatal("expected the freed slot to be reused")
	}
	if h1.Gen == h2.Gen {
		t.Fatal("expected a new generation after reuse")
	}
	if arena.Valid(h1) {
		t.Fatal("expected the stale handle to remain invalid")
	}
}
