package fixmath

// Rect is an axis-aligned pixel rectangle, used both for shape bounding
// boxes and for sector/area queries. Coordinates are plain ints (pixel
// grid), not Fixed: the landscape and sector grids are integer-indexed.
type Rect struct {
	X, Y, Wdt, Hgt int
}

// Contains reports whether (x, y) falls inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Wdt && y >= r.Y && y < r.Y+r.Hgt
}

// Overlap reports whether two rectangles share any pixel.
func (r Rect) Overlap(o Rect) bool {
	return r.X < o.X+o.Wdt && o.X < r.X+r.Wdt &&
		r.Y < o.Y+o.Hgt && o.Y < r.Y+r.Hgt
}

// Intersect returns the overlapping region; ok is false if there is none.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.Wdt, o.X+o.Wdt)
	y1 := min(r.Y+r.Hgt, o.Y+o.Hgt)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}, false
	}
	return Rect{X: x0, Y: y0, Wdt: x1 - x0, Hgt: y1 - y0}, true
}

// Add returns the smallest rectangle containing both r and o.
func (r Rect) Add(o Rect) Rect {
	if o.Wdt == 0 && o.Hgt == 0 {
		return r
	}
	if r.Wdt == 0 && r.Hgt == 0 {
		return o
	}
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.X+r.Wdt, o.X+o.Wdt)
	y1 := max(r.Y+r.Hgt, o.Y+o.Hgt)
	return Rect{X: x0, Y: y0, Wdt: x1 - x0, Hgt: y1 - y0}
}

// Normalize flips negative width/height so X,Y is always the top-left
// corner.
func (r Rect) Normalize() Rect {
	if r.Wdt < 0 {
		r.X += r.Wdt
		r.Wdt = -r.Wdt
	}
	if r.Hgt < 0 {
		r.Y += r.Hgt
		r.Hgt = -r.Hgt
	}
	return r
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
