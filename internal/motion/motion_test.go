package motion

import (
	"testing"

	"github.com/legacyclonk/openworld-core/internal/fixmath"
	"github.com/legacyclonk/openworld-core/internal/shape"
)

type fakeLandscape struct {
	solid map[[2]int]bool
}

func (f *fakeLandscape) GetDensity(x, y int) int {
	if f.solid[[2]int{x, y}] {
		return 100
	}
	return 0
}

func (f *fakeLandscape) GetMat(x, y int) uint8 {
	if f.solid[[2]int{x, y}] {
		return 1
	}
	return 0
}

func TestStepMovesDownByYDir(t *testing.T) {
	lv := &fakeLandscape{solid: map[[2]int]bool{}}
	s := &shape.Shape{Vertices: []shape.Vertex{{X: 0, Y: 0}}}
	b := &Body{X: 50, Y: 50, YDir: fixmath.FromInt(3)}
	Step(lv, s, b)
	if b.Y != 53 {
		t.Fatalf("Y = %d, want 53", b.Y)
	}
}

func TestStepStopsAtFloor(t *testing.T) {
	lv := &fakeLandscape{solid: map[[2]int]bool{}}
	for x := 0; x < 20; x++ {
		lv.solid[[2]int{x, 55}] = true
	}
	s := &shape.Shape{Vertices: []shape.Vertex{{X: 0, Y: 0}}}
	b := &Body{X: 10, Y: 50, YDir: fixmath.FromInt(10)}
	Step(lv, s, b)
	if b.Y >= 55 {
		t.Fatalf("Y = %d, expected to stop before solid floor at 55", b.Y)
	}
	if b.YDir != 0 {
		t.Fatalf("YDir = %v, expected redirect to zero out vertical force on contact", b.YDir)
	}
}

func TestSimFlightSideEffectFree(t *testing.T) {
	lv := &fakeLandscape{solid: map[[2]int]bool{}}
	lv.solid[[2]int{5, 5}] = true
	before := lv.GetDensity(5, 5)
	SimFlight(lv, 0, 0, fixmath.FromInt(1), fixmath.FromInt(1), fixmath.FromInt(0), 0, 100, 10)
	after := lv.GetDensity(5, 5)
	if before != after {
		t.Fatal("SimFlight must not mutate landscape state")
	}
}

func TestStabilizeSnapsSmallResidual(t *testing.T) {
	lv := &fakeLandscape{solid: map[[2]int]bool{}}
	s := &shape.Shape{Vertices: []shape.Vertex{{X: 0, Y: 0}}}
	s.CreateOwnOriginalCopy()
	b := &Body{X: 10, Y: 10, Angle: 2, StableRange: 5, Rotatable: true}
	Stabilize(lv, s, b)
	if b.Angle != 0 {
		t.Fatalf("Angle = %d, want 0 after stabilize", b.Angle)
	}
}
