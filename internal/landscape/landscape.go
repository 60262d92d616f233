// Package landscape implements a dense pixel grid of (material, IFT flag)
// cells: random-access read/write, density queries, and a Bresenham
// path-free test. Out-of-range coordinates always resolve to a sentinel
// empty cell rather than panicking or wrapping.
package landscape

// MaterialTable answers density/friction queries for a material index. It is
// the landscape's only collaborator; the actual material definitions live
// outside this package (scenario-loaded, ≤256 entries).
type MaterialTable interface {
	// Density returns the material's density, used against a solid
	// threshold by PathFree and contact checks. Higher is denser.
	Density(mat uint8) int
	// Friction returns the material's surface friction factor.
	Friction(mat uint8) int
}

// Cell is one landscape pixel.
type Cell struct {
	Mat uint8
	IFT bool // in-foreground-texture
}

// MatSky is the reserved "empty" material; index 0 in the texture map.
const MatSky uint8 = 0

// MatVehicle is the reserved sentinel material SolidMask uses to mark
// pixels it has temporarily overwritten. It never persists across a frame
// boundary and is never assigned by ordinary landscape drawing.
const MatVehicle uint8 = 255

// SolidThreshold is the default density above which PathFree/ContactCheck
// treat a pixel as blocking.
const SolidThreshold = 50

// Landscape is a W×H dense pixel grid, owned by exactly one Section.
type Landscape struct {
	Wdt, Hgt int
	cells    []Cell
	mats     MaterialTable
	Gravity  int // fixed-point constant, section-scoped
}

// New creates a Wdt×Hgt landscape filled with sky.
func New(wdt, hgt int, mats MaterialTable) *Landscape {
	return &Landscape{
		Wdt:   wdt,
		Hgt:   hgt,
		cells: make([]Cell, wdt*hgt),
		mats:  mats,
	}
}

func (l *Landscape) inBounds(x, y int) bool {
	return x >= 0 && x < l.Wdt && y >= 0 && y < l.Hgt
}

// Pix reads the cell at (x, y); out-of-range returns the sentinel empty
// sky cell.
func (l *Landscape) Pix(x, y int) Cell {
	if !l.inBounds(x, y) {
		return Cell{Mat: MatSky}
	}
	return l.cells[y*l.Wdt+x]
}

// SetPix writes a cell; out-of-range writes are silently dropped.
func (l *Landscape) SetPix(x, y int, c Cell) {
	if !l.inBounds(x, y) {
		return
	}
	l.cells[y*l.Wdt+x] = c
}

// SetPixIfMask writes a cell only if the existing material equals match;
// used by SolidMask restore passes that must not clobber pixels another
// mask has since claimed.
func (l *Landscape) SetPixIfMask(x, y int, match uint8, c Cell) bool {
	if !l.inBounds(x, y) {
		return false
	}
	idx := y*l.Wdt + x
	if l.cells[idx].Mat != match {
		return false
	}
	l.cells[idx] = c
	return true
}

// GetMat returns the foreground material at (x, y).
func (l *Landscape) GetMat(x, y int) uint8 {
	return l.Pix(x, y).Mat
}

// GetDensity returns the density of the material at (x, y); out-of-range
// coordinates read as sky (density 0), and the MatVehicle sentinel reads
// as SolidThreshold so other objects collide with a put SolidMask.
func (l *Landscape) GetDensity(x, y int) int {
	mat := l.GetMat(x, y)
	if mat == MatSky {
		return 0
	}
	if mat == MatVehicle {
		return SolidThreshold
	}
	if l.mats == nil {
		return 0
	}
	return l.mats.Density(mat)
}

// DensityProvider abstracts GetDensity so shape/attach code can sample
// either the live landscape or a SolidMask's "as if unrotated" contents.
type DensityProvider interface {
	GetDensity(x, y int) int
}

var _ DensityProvider = (*Landscape)(nil)

// PathFree walks a Bresenham line from (x1,y1) to (x2,y2) and reports
// whether every sampled pixel has density below threshold. When it returns
// false, lastFreeX/lastFreeY (if non-nil) receive the last free point on
// the segment before the first solid sample.
func (l *Landscape) PathFree(x1, y1, x2, y2 int, lastFreeX, lastFreeY *int) bool {
	return l.pathFree(x1, y1, x2, y2, lastFreeX, lastFreeY, SolidThreshold, false)
}

// PathFreeIgnoreVehicle behaves like PathFree but treats MatVehicle as
// passable (density 0), used while a SolidMask is temporarily in place.
func (l *Landscape) PathFreeIgnoreVehicle(x1, y1, x2, y2 int, lastFreeX, lastFreeY *int) bool {
	return l.pathFree(x1, y1, x2, y2, lastFreeX, lastFreeY, SolidThreshold, true)
}

func (l *Landscape) densityIgnoringVehicle(x, y int, ignoreVehicle bool) int {
	mat := l.GetMat(x, y)
	if ignoreVehicle && mat == MatVehicle {
		return 0
	}
	return l.GetDensity(x, y)
}

func (l *Landscape) pathFree(x1, y1, x2, y2 int, lastFreeX, lastFreeY *int, threshold int, ignoreVehicle bool) bool {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	x, y := x1, y1
	lastX, lastY := x1, y1
	for {
		if l.densityIgnoringVehicle(x, y, ignoreVehicle) >= threshold {
			if lastFreeX != nil {
				*lastFreeX = lastX
			}
			if lastFreeY != nil {
				*lastFreeY = lastY
			}
			return false
		}
		lastX, lastY = x, y
		if x == x2 && y == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x == x2 {
				break
			}
			err += dy
			x += sx
		}
		if e2 <= dx {
			if y == y2 {
				break
			}
			err += dx
			y += sy
		}
	}
	if lastFreeX != nil {
		*lastFreeX = lastX
	}
	if lastFreeY != nil {
		*lastFreeY = lastY
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
