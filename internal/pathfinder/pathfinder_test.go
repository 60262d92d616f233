package pathfinder

import "testing"

func wallWorld() PointFree {
	return func(x, y int) bool {
		if x < 0 || x >= 200 || y < 0 || y >= 200 {
			return false
		}
		if x == 100 && y >= 50 && y <= 150 {
			return false
		}
		return true
	}
}

// TestFindRoutesAroundWall implements spec scenario S6: a straight vertical
// wall forces the path to crawl around one end of it.
func TestFindRoutesAroundWall(t *testing.T) {
	f := NewFinder(wallWorld(), nil)
	waypoints, ok := f.Find(50, 100, 150, 100)
	if !ok {
		t.Fatal("expected a path around the wall")
	}
	if len(waypoints) == 0 {
		t.Fatal("expected at least one waypoint")
	}
	last := waypoints[len(waypoints)-1]
	if last.X != 150 || last.Y != 100 {
		t.Fatalf("final waypoint = (%d,%d), want (150,100)", last.X, last.Y)
	}
	for _, wp := range waypoints {
		if wp.X == 100 && wp.Y > 50 && wp.Y < 150 {
			t.Fatalf("waypoint (%d,%d) crosses the wall", wp.X, wp.Y)
		}
	}
}

func TestFindFailsWhenStartBlocked(t *testing.T) {
	f := NewFinder(wallWorld(), nil)
	if _, ok := f.Find(100, 100, 150, 100); ok {
		t.Fatal("expected failure when start point is solid")
	}
}

func TestFindDirectPathNoObstacle(t *testing.T) {
	open := func(x, y int) bool { return x >= 0 && x < 200 && y >= 0 && y < 200 }
	f := NewFinder(open, nil)
	waypoints, ok := f.Find(10, 10, 20, 10)
	if !ok {
		t.Fatal("expected success on an open field")
	}
	if len(waypoints) != 1 {
		t.Fatalf("expected a single direct waypoint, got %d", len(waypoints))
	}
	if waypoints[0].X != 20 || waypoints[0].Y != 10 {
		t.Fatalf("waypoint = (%d,%d), want (20,10)", waypoints[0].X, waypoints[0].Y)
	}
}
