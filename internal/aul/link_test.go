package aul

import "testing"

// TestCircularIncludeWarnsOnce implements spec scenario S3: three
// definitions that #include each other in a cycle must warn exactly
// once, and all three end up resolved with callable (if include-empty)
// scripts.
func TestCircularIncludeWarnsOnce(t *testing.T) {
	d1 := &Script{ID: "D1", Includes: []IncludeEntry{{ID: "D2"}}}
	d2 := &Script{ID: "D2", Includes: []IncludeEntry{{ID: "D3"}}}
	d3 := &Script{ID: "D3", Includes: []IncludeEntry{{ID: "D1"}}}

	engine := &Script{ID: "engine"}
	p := NewProgram(engine, []*Script{d1, d2, d3})
	p.Link()

	if p.WarnCnt != 1 {
		t.Fatalf("WarnCnt = %d, want 1", p.WarnCnt)
	}
	for _, d := range []*Script{d1, d2, d3} {
		if !d.includesResolved {
			t.Fatalf("%s not marked resolved", d.ID)
		}
	}
}

func TestMissingAppendTargetWarnsUnlessNoWarn(t *testing.T) {
	src := &Script{ID: "Src", Appends: []AppendEntry{{ID: "Missing"}}}
	engine := &Script{ID: "engine"}
	p := NewProgram(engine, []*Script{src})
	p.Link()
	if p.WarnCnt != 1 {
		t.Fatalf("WarnCnt = %d, want 1", p.WarnCnt)
	}

	src2 := &Script{ID: "Src2", Appends: []AppendEntry{{ID: "Missing", NoWarn: true}}}
	engine2 := &Script{ID: "engine"}
	p2 := NewProgram(engine2, []*Script{src2})
	p2.Link()
	if p2.WarnCnt != 0 {
		t.Fatalf("WarnCnt = %d, want 0 with no-warn set", p2.WarnCnt)
	}
}

func TestIncludeCopiesFunctionsAndLocals(t *testing.T) {
	base := &Script{ID: "Base", Locals: []string{"hp"}}
	base.AddFunc(&Func{Name: "Heal", Access: AccessPublic, Body: "return 1"})

	derived := &Script{ID: "Derived", Includes: []IncludeEntry{{ID: "Base"}}}

	engine := &Script{ID: "engine"}
	p := NewProgram(engine, []*Script{base, derived})
	p.Link()

	found := false
	for _, f := range derived.Funcs {
		if f.Name == "Heal" {
			found = true
			if f.LinkedTo == nil {
				t.Fatal("expected the copied function to link back to its original")
			}
		}
	}
	if !found {
		t.Fatal("expected Heal to be copied into Derived via #include")
	}
	if len(derived.Locals) != 1 || derived.Locals[0] != "hp" {
		t.Fatalf("Locals = %v, want [hp]", derived.Locals)
	}
}

// TestSameNameRingCloses implements testable property 6: starting at any
// node and following NextSNFunc returns to the start within the number of
// same-named functions.
func TestSameNameRingCloses(t *testing.T) {
	a := &Script{ID: "A"}
	a.AddFunc(&Func{Name: "Activate", Access: AccessPublic})
	b := &Script{ID: "B"}
	b.AddFunc(&Func{Name: "Activate", Access: AccessPublic})
	c := &Script{ID: "C"}
	c.AddFunc(&Func{Name: "Activate", Access: AccessPublic})

	engine := &Script{ID: "engine"}
	p := NewProgram(engine, []*Script{a, b, c})
	p.Link()

	start := a.Funcs[0]
	seen := map[*Func]bool{}
	cur := start
	hops := 0
	for {
		seen[cur] = true
		cur = cur.NextSNFunc
		hops++
		if cur == start {
			break
		}
		if hops > 10 {
			t.Fatal("ring did not close within a reasonable number of hops")
		}
	}
	if len(seen) != 3 {
		t.Fatalf("ring visited %d distinct functions, want 3", len(seen))
	}
}

func TestRegistryFirstMatchAndRemove(t *testing.T) {
	reg := NewRegistry()
	f1 := &Func{Name: "Foo"}
	f2 := &Func{Name: "Foo"}
	reg.Add("Foo", f1, true)
	e2 := reg.Add("Foo", f2, true)

	if reg.GetFirstFunc("Foo") != f2 {
		t.Fatal("expected the most recently added atStart entry to win first-match")
	}
	reg.Remove(e2)
	if reg.GetFirstFunc("Foo") != f1 {
		t.Fatal("expected removal to fall back to the remaining entry")
	}
}

func TestRegistryRehashPreservesLookups(t *testing.T) {
	reg := NewRegistry()
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "Q"}
	funcs := make(map[string]*Func, len(names))
	for _, n := range names {
		f := &Func{Name: n}
		funcs[n] = f
		reg.Add(n, f, true)
	}
	for _, n := range names {
		if reg.GetFirstFunc(n) != funcs[n] {
			t.Fatalf("lookup for %s broke after rehash", n)
		}
	}
}
