package landscape

import "testing"

type testMats struct{}

func (testMats) Density(mat uint8) int {
	if mat == 1 {
		return 100
	}
	return 0
}

func (testMats) Friction(mat uint8) int { return 50 }

func TestOutOfBoundsReadsSky(t *testing.T) {
	l := New(10, 10, testMats{})
	c := l.Pix(-1, -1)
	if c.Mat != MatSky {
		t.Fatalf("out of bounds read = %+v, want sky", c)
	}
	c = l.Pix(100, 100)
	if c.Mat != MatSky {
		t.Fatalf("out of bounds read = %+v, want sky", c)
	}
}

func TestOutOfBoundsWriteDropped(t *testing.T) {
	l := New(10, 10, testMats{})
	l.SetPix(-5, -5, Cell{Mat: 1})
	// no panic, and nothing readable changed
	if l.GetMat(0, 0) != MatSky {
		t.Fatal("write leaked into bounds")
	}
}

func TestPathFreeOpenField(t *testing.T) {
	l := New(50, 50, testMats{})
	if !l.PathFree(0, 0, 40, 40, nil, nil) {
		t.Fatal("expected open path to be free")
	}
}

func TestPathFreeBlockedByWall(t *testing.T) {
	l := New(200, 200, testMats{})
	for y := 50; y < 150; y++ {
		l.SetPix(100, y, Cell{Mat: 1})
	}
	var lastX, lastY int
	free := l.PathFree(50, 100, 150, 100, &lastX, &lastY)
	if free {
		t.Fatal("expected path blocked by wall")
	}
	if lastX >= 100 {
		t.Fatalf("lastFree x = %d, want < 100", lastX)
	}
	if l.GetDensity(lastX, lastY) >= SolidThreshold {
		t.Fatalf("last free point must not itself be solid: (%d,%d)", lastX, lastY)
	}
}

func TestPathFreeIgnoreVehicle(t *testing.T) {
	l := New(50, 50, testMats{})
	for x := 0; x < 50; x++ {
		l.SetPix(x, 25, Cell{Mat: MatVehicle})
	}
	if l.PathFree(0, 25, 49, 25, nil, nil) {
		t.Fatal("vehicle sentinel should block ordinary PathFree")
	}
	if !l.PathFreeIgnoreVehicle(0, 25, 49, 25, nil, nil) {
		t.Fatal("PathFreeIgnoreVehicle should treat vehicle sentinel as passable")
	}
}

func TestSetPixIfMask(t *testing.T) {
	l := New(10, 10, testMats{})
	l.SetPix(5, 5, Cell{Mat: MatVehicle})
	if !l.SetPixIfMask(5, 5, MatVehicle, Cell{Mat: MatSky}) {
		t.Fatal("expected SetPixIfMask to succeed when material matches")
	}
	if l.GetMat(5, 5) != MatSky {
		t.Fatal("expected pixel reverted to sky")
	}
	if l.SetPixIfMask(5, 5, MatVehicle, Cell{Mat: 1}) {
		t.Fatal("expected SetPixIfMask to fail once material no longer matches")
	}
}
