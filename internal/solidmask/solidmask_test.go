package solidmask

import (
	"testing"

	"github.com/legacyclonk/openworld-core/internal/landscape"
)

type testMats struct{}

func (testMats) Density(uint8) int  { return 0 }
func (testMats) Friction(uint8) int { return 0 }

func full4x4() []bool {
	bits := make([]bool, 16)
	for i := range bits {
		bits[i] = true
	}
	return bits
}

// TestStackingScenario implements spec scenario S2.
func TestStackingScenario(t *testing.T) {
	l := landscape.New(50, 50, testMats{})
	reg := NewRegistry()

	a := NewMask(4, 4, full4x4())
	b := NewMask(4, 4, full4x4())

	reg.Put(l, a, 10, 10)
	reg.Put(l, b, 12, 10)

	for y := 10; y < 14; y++ {
		for x := 10; x < 16; x++ {
			if l.GetMat(x, y) != landscape.MatVehicle {
				t.Fatalf("expected vehicle sentinel at (%d,%d)", x, y)
			}
		}
	}

	reg.Remove(l, a)

	for y := 10; y < 14; y++ {
		for x := 10; x < 12; x++ {
			if l.GetMat(x, y) != landscape.MatSky {
				t.Fatalf("expected sky reverted at (%d,%d) after removing A", x, y)
			}
		}
		for x := 12; x < 16; x++ {
			if l.GetMat(x, y) != landscape.MatVehicle {
				t.Fatalf("expected vehicle still present at (%d,%d) owned by B", x, y)
			}
		}
	}
}

func TestClearRestoresEverything(t *testing.T) {
	l := landscape.New(20, 20, testMats{})
	reg := NewRegistry()
	m := NewMask(4, 4, full4x4())
	reg.Put(l, m, 5, 5)
	reg.Clear(l)
	if l.GetMat(6, 6) != landscape.MatSky {
		t.Fatal("expected landscape fully restored after Clear")
	}
}

func TestRepairReinstatesClobberedPixel(t *testing.T) {
	l := landscape.New(20, 20, testMats{})
	reg := NewRegistry()
	m := NewMask(4, 4, full4x4())
	reg.Put(l, m, 5, 5)

	l.SetPix(6, 6, landscape.Cell{Mat: landscape.MatSky})
	reg.Repair(l, m)
	if l.GetMat(6, 6) != landscape.MatVehicle {
		t.Fatal("expected Repair to reinstate clobbered vehicle pixel")
	}
}
