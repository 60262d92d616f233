package scheduler

import "testing"

func TestTickRunsPhasesInOrder(t *testing.T) {
	var order []string
	s := New(
		TickableFunc(func(int64) { order = append(order, "control") }),
		TickableFunc(func(int64) { order = append(order, "script") }),
		TickableFunc(func(int64) { order = append(order, "movement") }),
	)
	s.Tick()
	want := []string{"control", "script", "movement"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order[%d] = %s, want %s", i, order[i], w)
		}
	}
}

func TestTickAdvancesFrameCounter(t *testing.T) {
	var seen []int64
	s := New(TickableFunc(func(f int64) { seen = append(seen, f) }))
	s.Tick()
	s.Tick()
	if seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("seen = %v, want [0 1]", seen)
	}
	if s.Frame() != 2 {
		t.Fatalf("Frame() = %d, want 2", s.Frame())
	}
}

func TestObjectListStableAppendOrderAndMidFrameRemoval(t *testing.T) {
	var l ObjectList[string]
	l.Append("a")
	l.Append("b")
	l.Append("c")

	snap := l.Snapshot()
	l.Remove(0) // "a" dies mid-frame

	if len(snap) != 3 {
		t.Fatalf("expected the snapshot taken before removal to still show 3 objects, got %d", len(snap))
	}

	l.Compact()
	after := l.Snapshot()
	if len(after) != 2 || after[0] != "b" || after[1] != "c" {
		t.Fatalf("after compact = %v, want [b c]", after)
	}
}
