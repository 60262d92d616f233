// Package shape implements per-object vertex polygons: contact checking,
// attach, line-connect and rotation, grounded in the original engine's
// C4Shape. Unlike the teacher's SAT-based polygon/polygon collider, contact
// here is resolved by sampling landscape density at each vertex, which is
// the model the simulation core actually needs.
package shape

import "github.com/legacyclonk/openworld-core/internal/fixmath"

// CNAT is the contact-normal-and-type bitset used for both vertex hints and
// per-tick contact results.
type CNAT uint8

const (
	CNATNone        CNAT = 0
	CNATLeft        CNAT = 1 << 0
	CNATRight       CNAT = 1 << 1
	CNATTop         CNAT = 1 << 2
	CNATBottom      CNAT = 1 << 3
	CNATCenter      CNAT = 1 << 4
	CNATMultiAttach CNAT = 1 << 5
	CNATNoCollision CNAT = 1 << 6
)

// MaxVertex caps the vertex buffer, mirroring C4D_MaxVertex.
const MaxVertex = 50

// VertexCopyPos is where CreateOwnOriginalCopy stashes the pristine vertex
// buffer so rotation is always reproducible from the canonical pose.
const VertexCopyPos = MaxVertex

// AttachRange bounds how far Attach will nudge a point to find dense
// material, in pixels.
const AttachRange = 10

// Vertex is one shape vertex, relative to the object's position.
type Vertex struct {
	X, Y     int
	CNAT     CNAT
	Friction int
}

// DensityProvider is the pluggable abstraction GetVertexContact samples
// through; satisfied by *landscape.Landscape and by a SolidMask's "as if
// unrotated" view.
type DensityProvider interface {
	GetDensity(x, y int) int
}

// Shape is a bounding rect plus a vertex list, with derived per-tick
// contact state.
type Shape struct {
	Rect fixmath.Rect

	Vertices []Vertex
	// original holds the untransformed vertex buffer (CreateOwnOriginalCopy)
	// so that repeated Rotate calls stay reproducible from the canonical
	// pose instead of drifting through successive rotations.
	original []Vertex

	ContactDensity int // solid threshold override; 0 means use package default
	FireTop        int

	ContactCNAT CNAT
	ContactCount int
	VtxContactCNAT []CNAT
	VtxContactMat  []uint8

	AttachMat  int
	AttachX    int
	AttachY    int
	AttachVtx  int

	lastShift int // scratch: winning offset from the most recent scanAttach call
}

const defaultContactDensity = 50

func (s *Shape) density() int {
	if s.ContactDensity > 0 {
		return s.ContactDensity
	}
	return defaultContactDensity
}

// AddVertex appends a vertex, respecting MaxVertex.
func (s *Shape) AddVertex(v Vertex) bool {
	if len(s.Vertices) >= MaxVertex {
		return false
	}
	s.Vertices = append(s.Vertices, v)
	return true
}

// InsertVertex inserts v at index i.
func (s *Shape) InsertVertex(i int, v Vertex) bool {
	if len(s.Vertices) >= MaxVertex || i < 0 || i > len(s.Vertices) {
		return false
	}
	s.Vertices = append(s.Vertices, Vertex{})
	copy(s.Vertices[i+1:], s.Vertices[i:])
	s.Vertices[i] = v
	return true
}

// RemoveVertex removes the vertex at index i.
func (s *Shape) RemoveVertex(i int) bool {
	if i < 0 || i >= len(s.Vertices) {
		return false
	}
	s.Vertices = append(s.Vertices[:i], s.Vertices[i+1:]...)
	return true
}

// GetVertexX/GetVertexY return the world position of vertex i given the
// object center (cx, cy).
func (s *Shape) GetVertexX(i, cx int) int { return cx + s.Vertices[i].X }
func (s *Shape) GetVertexY(i, cy int) int { return cy + s.Vertices[i].Y }

// GetBottomVertex returns the index of the vertex with the largest Y.
func (s *Shape) GetBottomVertex() int {
	best := -1
	bestY := 0
	for i, v := range s.Vertices {
		if v.Y > bestY || best == -1 {
			bestY = v.Y
			best = i
		}
	}
	return best
}

// CreateOwnOriginalCopy stashes the current vertex buffer as the canonical
// untransformed pose so future Rotate calls are reproducible.
func (s *Shape) CreateOwnOriginalCopy() {
	s.original = make([]Vertex, len(s.Vertices))
	copy(s.original, s.Vertices)
}

// Rotate rotates the vertex buffer by degree around the origin using the
// fixmath trig tables, always starting from the stashed original pose when
// one exists. The bounding rect grows to the enclosing circle, per the
// Open Question decision to preserve collision conservativeness rather
// than shrink to a tighter AABB.
func (s *Shape) Rotate(degree int, updateVertices bool) {
	src := s.Vertices
	if s.original != nil {
		src = s.original
	}
	if !updateVertices {
		return
	}
	sinv := fixmath.Sin(degree)
	cosv := fixmath.Cos(degree)

	out := make([]Vertex, len(src))
	maxR2 := 0
	for i, v := range src {
		fx := fixmath.FromInt(v.X)
		fy := fixmath.FromInt(v.Y)
		nx := fx.Mul(cosv).Sub(fy.Mul(sinv)).ToInt()
		ny := fx.Mul(sinv).Add(fy.Mul(cosv)).ToInt()
		out[i] = Vertex{X: nx, Y: ny, CNAT: v.CNAT, Friction: v.Friction}
		r2 := nx*nx + ny*ny
		if r2 > maxR2 {
			maxR2 = r2
		}
	}
	s.Vertices = out

	// Grow the bounding rect to the enclosing circle (rdia = sqrt(x²+y²)+2)
	// rather than a tighter AABB, preserving collision conservativeness.
	r := isqrtCeil(maxR2) + 2
	s.Rect = fixmath.Rect{X: -r, Y: -r, Wdt: 2 * r, Hgt: 2 * r}
}

func isqrtCeil(v int) int {
	if v <= 0 {
		return 0
	}
	x := 1
	for x*x < v {
		x++
	}
	return x
}

// Stretch scales every vertex by percent/100 (percentage scaling, matching
// the original's Stretch/Jolt operations).
func (s *Shape) Stretch(percent int) {
	for i := range s.Vertices {
		s.Vertices[i].X = s.Vertices[i].X * percent / 100
		s.Vertices[i].Y = s.Vertices[i].Y * percent / 100
	}
}

// Jolt is an alias kept for the original's naming; it performs the same
// percentage scale as Stretch but is invoked on shape deformation events
// rather than explicit resizing.
func (s *Shape) Jolt(percent int) { s.Stretch(percent) }

// GetVertexOutline returns the current vertex list as world-space points
// given the object center.
func (s *Shape) GetVertexOutline(cx, cy int) [][2]int {
	out := make([][2]int, len(s.Vertices))
	for i, v := range s.Vertices {
		out[i] = [2]int{cx + v.X, cy + v.Y}
	}
	return out
}

// GetVertexContact probes a single vertex against an explicit density
// provider, returning true if its density meets the shape's contact
// threshold.
func (s *Shape) GetVertexContact(dp DensityProvider, x, y int) bool {
	return dp.GetDensity(x, y) >= s.density()
}

// ContactCheck samples the four cardinal neighbors of every vertex not
// flagged NoCollision, accumulating VtxContactCNAT/VtxContactMat and the
// aggregate ContactCNAT/ContactCount. It never writes to the landscape.
func (s *Shape) ContactCheck(dp DensityProvider, matAt func(x, y int) uint8, cx, cy int) {
	n := len(s.Vertices)
	s.VtxContactCNAT = make([]CNAT, n)
	s.VtxContactMat = make([]uint8, n)
	s.ContactCNAT = CNATNone
	s.ContactCount = 0

	for i, v := range s.Vertices {
		if v.CNAT&CNATNoCollision != 0 {
			continue
		}
		vx, vy := cx+v.X, cy+v.Y
		var cnat CNAT
		if s.GetVertexContact(dp, vx-1, vy) {
			cnat |= CNATLeft
		}
		if s.GetVertexContact(dp, vx+1, vy) {
			cnat |= CNATRight
		}
		if s.GetVertexContact(dp, vx, vy-1) {
			cnat |= CNATTop
		}
		if s.GetVertexContact(dp, vx, vy+1) {
			cnat |= CNATBottom
		}
		if cnat != CNATNone {
			s.VtxContactCNAT[i] = cnat
			if matAt != nil {
				s.VtxContactMat[i] = matAt(vx, vy)
			}
			s.ContactCNAT |= cnat
			s.ContactCount++
		}
	}
}

// Attach adjusts (cx, cy) by up to AttachRange pixels along the normal
// implied by cnatMask so that any vertex with that CNAT sits directly
// adjacent to dense material. When cnatMask has CNATMultiAttach set, all
// matching vertices are scanned radially in parallel instead of the legacy
// per-vertex first-match strategy.
func (s *Shape) Attach(dp DensityProvider, cx, cy *int, cnatMask CNAT) bool {
	dir := directionFromMask(cnatMask)
	if dir == [2]int{0, 0} {
		return false
	}
	if cnatMask&CNATMultiAttach != 0 {
		return s.attachMulti(dp, cx, cy, cnatMask&^CNATMultiAttach, dir)
	}
	return s.attachLegacy(dp, cx, cy, cnatMask, dir)
}

func directionFromMask(cnatMask CNAT) [2]int {
	switch {
	case cnatMask&CNATBottom != 0:
		return [2]int{0, 1}
	case cnatMask&CNATTop != 0:
		return [2]int{0, -1}
	case cnatMask&CNATLeft != 0:
		return [2]int{-1, 0}
	case cnatMask&CNATRight != 0:
		return [2]int{1, 0}
	default:
		return [2]int{0, 0}
	}
}

// attachLegacy scans vertices in declaration order and stops at the first
// one whose CNAT matches the mask.
func (s *Shape) attachLegacy(dp DensityProvider, cx, cy *int, mask CNAT, dir [2]int) bool {
	for i, v := range s.Vertices {
		if v.CNAT&mask == 0 {
			continue
		}
		if ok, mat := s.scanAttach(dp, *cx+v.X, *cy+v.Y, dir); ok {
			*cx += dir[0] * s.lastShift
			*cy += dir[1] * s.lastShift
			s.AttachMat = mat
			s.AttachVtx = i
			s.AttachX = *cx + v.X
			s.AttachY = *cy + v.Y
			return true
		}
	}
	return false
}

// attachMulti tries every matching vertex and picks the smallest shift,
// per the "radial scan, all matches in parallel" strategy.
func (s *Shape) attachMulti(dp DensityProvider, cx, cy *int, mask CNAT, dir [2]int) bool {
	bestShift := AttachRange + 1
	bestIdx := -1
	bestMat := 0
	for i, v := range s.Vertices {
		if v.CNAT&mask == 0 {
			continue
		}
		if ok, mat := s.scanAttach(dp, *cx+v.X, *cy+v.Y, dir); ok {
			if s.lastShift < bestShift {
				bestShift = s.lastShift
				bestIdx = i
				bestMat = mat
			}
		}
	}
	if bestIdx == -1 {
		return false
	}
	*cx += dir[0] * bestShift
	*cy += dir[1] * bestShift
	s.AttachMat = bestMat
	s.AttachVtx = bestIdx
	s.AttachX = *cx + s.Vertices[bestIdx].X
	s.AttachY = *cy + s.Vertices[bestIdx].Y
	return true
}

func (s *Shape) scanAttach(dp DensityProvider, x, y int, dir [2]int) (bool, int) {
	for shift := 0; shift <= AttachRange; shift++ {
		sx, sy := x+dir[0]*shift, y+dir[1]*shift
		if dp.GetDensity(sx, sy) >= s.density() {
			s.lastShift = shift
			return true, 1
		}
	}
	return false, 0
}
