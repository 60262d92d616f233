package shape

import (
	"testing"

	"github.com/legacyclonk/openworld-core/internal/landscape"
)

type testMats struct{}

func (testMats) Density(mat uint8) int {
	if mat == 1 {
		return 100
	}
	return 0
}
func (testMats) Friction(uint8) int { return 50 }

// TestAttachToGround implements spec scenario S1: a 10x10 dense block at
// (95..104, 100..109) on a 200x200 sky landscape; an 8x8 object with
// vertices at (+-4,+-4), bottom CNAT on the lower two; Attach at (100,90)
// with mask Bottom should land cy=99 with AttachMat set.
func TestAttachToGround(t *testing.T) {
	l := landscape.New(200, 200, testMats{})
	for y := 100; y <= 109; y++ {
		for x := 95; x <= 104; x++ {
			l.SetPix(x, y, landscape.Cell{Mat: 1})
		}
	}
	s := &Shape{
		Vertices: []Vertex{
			{X: -4, Y: -4, CNAT: CNATTop},
			{X: 4, Y: -4, CNAT: CNATTop},
			{X: 4, Y: 4, CNAT: CNATBottom},
			{X: -4, Y: 4, CNAT: CNATBottom},
		},
	}
	cx, cy := 100, 90
	if ok := s.Attach(l, &cx, &cy, CNATBottom); !ok {
		t.Fatal("expected Attach to find ground")
	}
	if cy != 99 {
		t.Fatalf("cy after attach = %d, want 99", cy)
	}
	if s.AttachMat != 1 {
		t.Fatalf("AttachMat = %d, want 1", s.AttachMat)
	}
}

func TestContactCheckSideEffectFree(t *testing.T) {
	l := landscape.New(50, 50, testMats{})
	for x := 0; x < 50; x++ {
		l.SetPix(x, 30, landscape.Cell{Mat: 1})
	}
	s := &Shape{Vertices: []Vertex{{X: 0, Y: 5, CNAT: CNATBottom}}}
	before := l.GetMat(10, 30)
	s.ContactCheck(l, l.GetMat, 10, 24)
	after := l.GetMat(10, 30)
	if before != after {
		t.Fatalf("ContactCheck must not mutate landscape: before=%d after=%d", before, after)
	}
	if s.ContactCNAT&CNATBottom == 0 {
		t.Fatal("expected bottom contact")
	}
}

func TestZeroVertexShapeNoAttach(t *testing.T) {
	l := landscape.New(10, 10, testMats{})
	s := &Shape{}
	cx, cy := 5, 5
	if ok := s.Attach(l, &cx, &cy, CNATBottom); ok {
		t.Fatal("zero-vertex shape must not attach")
	}
}

func TestRotateGrowsToEnclosingCircle(t *testing.T) {
	s := &Shape{Vertices: []Vertex{{X: 4, Y: 0}, {X: -4, Y: 0}, {X: 0, Y: 4}, {X: 0, Y: -4}}}
	s.CreateOwnOriginalCopy()
	s.Rotate(45, true)
	if s.Rect.Wdt < 8 {
		t.Fatalf("expected bounding rect to grow to enclosing circle, got %+v", s.Rect)
	}
}

func TestMultiAttachPicksClosest(t *testing.T) {
	l := landscape.New(50, 50, testMats{})
	for x := 0; x < 50; x++ {
		l.SetPix(x, 20, landscape.Cell{Mat: 1})
	}
	s := &Shape{Vertices: []Vertex{
		{X: -10, Y: -5, CNAT: CNATBottom},
		{X: 10, Y: 5, CNAT: CNATBottom},
	}}
	cx, cy := 20, 10
	if ok := s.Attach(l, &cx, &cy, CNATBottom|CNATMultiAttach); !ok {
		t.Fatal("expected multi-attach to find ground")
	}
}
