package shape

// LineChecker is the path-free abstraction LineConnect needs from the
// landscape: an ordinary check and one that ignores the SolidMask vehicle
// sentinel, matching the original's PathFree / PathFreeIgnoreVehicle pair.
type LineChecker interface {
	PathFree(x1, y1, x2, y2 int, lastFreeX, lastFreeY *int) bool
	PathFreeIgnoreVehicle(x1, y1, x2, y2 int, lastFreeX, lastFreeY *int) bool
}

// bendSearchRadii mirrors the nested search the original performs when
// hunting for a bend vertex: try progressively larger discs before giving
// up.
var bendSearchRadii = []int{4, 8, 12}

// LineConnect updates vertex vtx so the segments to its neighbors stay
// path-free, inserting a bend vertex if a straight connection is blocked.
// oldX/oldY is the vertex's previous world position, used to seed the bend
// search around where the line used to run. Returns false only when no
// bend vertex can be found and the straight connection stays blocked even
// while ignoring the vehicle sentinel.
func (s *Shape) LineConnect(lc LineChecker, tx, ty, vtx, ld int, oldX, oldY int) bool {
	if vtx < 0 || vtx >= len(s.Vertices) {
		return false
	}
	s.Vertices[vtx].X = tx
	s.Vertices[vtx].Y = ty

	prev := (vtx - 1 + len(s.Vertices)) % len(s.Vertices)
	next := (vtx + 1) % len(s.Vertices)
	_ = ld

	if lc.PathFree(s.Vertices[prev].X, s.Vertices[prev].Y, tx, ty, nil, nil) &&
		lc.PathFree(tx, ty, s.Vertices[next].X, s.Vertices[next].Y, nil, nil) {
		return true
	}

	for _, radius := range bendSearchRadii {
		if bx, by, ok := findBendVertex(lc, oldX, oldY, tx, ty, radius); ok {
			s.InsertVertex(vtx, Vertex{X: bx, Y: by, CNAT: CNATNone})
			return true
		}
	}

	// Fall back to ignoring the vehicle sentinel before giving up entirely.
	if lc.PathFreeIgnoreVehicle(s.Vertices[prev].X, s.Vertices[prev].Y, tx, ty, nil, nil) &&
		lc.PathFreeIgnoreVehicle(tx, ty, s.Vertices[next].X, s.Vertices[next].Y, nil, nil) {
		return true
	}
	return false
}

// findBendVertex scans the disc of the given radius around the midpoint of
// (oldX,oldY)-(tx,ty) for a point from which both halves of the line are
// path-free.
func findBendVertex(lc LineChecker, oldX, oldY, tx, ty, radius int) (int, int, bool) {
	midX, midY := (oldX+tx)/2, (oldY+ty)/2
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			bx, by := midX+dx, midY+dy
			if lc.PathFree(oldX, oldY, bx, by, nil, nil) && lc.PathFree(bx, by, tx, ty, nil, nil) {
				return bx, by, true
			}
		}
	}
	return 0, 0, false
}
