package texture

import (
	"strings"
	"testing"
)

type fakeMaterials struct {
	index map[string]int
}

func (f fakeMaterials) MaterialIndex(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

func TestLoadParsesEntriesAndFlags(t *testing.T) {
	src := `OverloadMaterials=1
1=Earth-earth_tex
2=Water-water_tex
`
	m := New(nil)
	if err := m.Load(strings.NewReader(src)); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !m.OverloadMaterials {
		t.Fatal("expected OverloadMaterials flag to be set")
	}
	e, ok := m.At(1)
	if !ok || e.Material != "Earth" || e.Texture != "earth_tex" {
		t.Fatalf("At(1) = %+v, %v", e, ok)
	}
}

func TestInitNullsMissingMaterial(t *testing.T) {
	m := New(nil)
	_ = m.Load(strings.NewReader("1=Earth-earth_tex\n2=Ghost-ghost_tex\n"))
	m.Init(fakeMaterials{index: map[string]int{"Earth": 3}})

	e1, ok1 := m.At(1)
	if !ok1 || e1.MaterialIdx != 3 {
		t.Fatalf("expected index 1 bound to material 3, got %+v ok=%v", e1, ok1)
	}
	e2, ok2 := m.At(2)
	if ok2 || e2.Material != "" {
		t.Fatalf("expected index 2 to be nulled after missing material, got %+v ok=%v", e2, ok2)
	}
}

func TestAddEntrySetsDirtyFlag(t *testing.T) {
	m := New(nil)
	if m.EntriesAdded() {
		t.Fatal("expected fresh map to not be dirty")
	}
	if err := m.AddEntry(5, "Rock", "rock_tex"); err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}
	if !m.EntriesAdded() {
		t.Fatal("expected AddEntry to set the dirty flag")
	}
	e, ok := m.At(5)
	if !ok || e.Material != "Rock" {
		t.Fatalf("At(5) = %+v, %v", e, ok)
	}
}

func TestAddEntryRejectsOutOfRange(t *testing.T) {
	m := New(nil)
	if err := m.AddEntry(0, "x", "y"); err == nil {
		t.Fatal("expected index 0 to be rejected")
	}
	if err := m.AddEntry(256, "x", "y"); err == nil {
		t.Fatal("expected index 256 to be rejected")
	}
}
