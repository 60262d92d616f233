// Package pathfinder implements the crawler-based pathfinding driver:
// a set of rays launched in both rotational directions that either find
// a straight line to the goal or crawl along the obstacle boundary until
// one does, grounded in full on
// original_source/src/C4PathFinder.cpp (C4PathFinderRay::Execute's state
// machine and C4PathFinder::Find/Run/AddRay/SplitRay).
package pathfinder

// Tuning constants carried over verbatim from the original driver.
const (
	MaxDepth  = 35
	MaxCrawl  = 800
	MaxRay    = 350
	Threshold = 10
)

// Direction is the rotational sense a ray crawls in.
type Direction int

const (
	DirLeft  Direction = -1
	DirNone  Direction = 0
	DirRight Direction = 1
)

type rayStatus int

const (
	statusLaunch rayStatus = iota
	statusCrawl
	statusStill
	statusFailure
	statusDeleted
)

// crawlAttach names which side of the obstacle a crawling ray is
// following.
type crawlAttach int

const (
	crawlNoAttach crawlAttach = iota
	crawlTop
	crawlRight
	crawlBottom
	crawlLeft
)

// PointFree reports whether (x, y) is passable.
type PointFree func(x, y int) bool

// Zone is a named rectangle that rays can transfer through; entering one
// end and exiting the other counts as two waypoints.
type Zone interface {
	At(x, y int) bool
	// EntryPoint finds the exit point nearest (fromX, fromY) on the side
	// facing (towardX, towardY), returning ok == false if none exists.
	EntryPoint(fromX, fromY, towardX, towardY int) (x, y int, ok bool)
}

// ZoneSet looks up whichever zone (if any) contains a point.
type ZoneSet interface {
	Find(x, y int) Zone
}

// Waypoint is one emitted path segment. Zone is nil for a plain move-to
// waypoint and set for a zone-transfer waypoint.
type Waypoint struct {
	X, Y int
	Zone Zone
}

type ray struct {
	status           rayStatus
	x, y             int // ray origin
	x2, y2           int // ray's current/leading point
	targetX, targetY int
	depth            int
	direction        Direction
	from             *ray
	next             *ray
	useZone          Zone

	crawlAttach      crawlAttach
	crawlStartAttach crawlAttach
	crawlStartX      int
	crawlStartY      int
	crawlLength      int
}

// Finder runs the ray-based search against a landscape abstraction. Level
// scales MaxDepth/MaxCrawl for harder searches (e.g. larger worlds); it is
// clamped to [1, 10].
type Finder struct {
	PointFree            PointFree
	Zones                ZoneSet
	TransferZonesEnabled bool
	Level                int

	firstRay  *ray
	success   bool
	waypoints []Waypoint
}

// NewFinder builds a Finder bound to a passability predicate.
func NewFinder(pointFree PointFree, zones ZoneSet) *Finder {
	return &Finder{PointFree: pointFree, Zones: zones, TransferZonesEnabled: zones != nil, Level: 1}
}

func (f *Finder) level() int {
	if f.Level < 1 {
		return 1
	}
	if f.Level > 10 {
		return 10
	}
	return f.Level
}

// Find searches from (fromX, fromY) to (toX, toY), returning the waypoint
// chain on success. It launches two rays (one per rotational direction)
// and runs them to completion or until the MaxRay budget is exhausted.
func (f *Finder) Find(fromX, fromY, toX, toY int) ([]Waypoint, bool) {
	f.firstRay = nil
	f.success = false
	f.waypoints = nil

	if !f.PointFree(fromX, fromY) || !f.PointFree(toX, toY) {
		return nil, false
	}

	if !f.addRay(fromX, fromY, toX, toY, 0, DirLeft, nil, nil) {
		return nil, false
	}
	if !f.addRay(fromX, fromY, toX, toY, 0, DirRight, nil, nil) {
		return nil, false
	}

	f.run()
	if !f.success {
		return nil, false
	}
	return f.waypoints, true
}

func (f *Finder) run() {
	for !f.success {
		if !f.step() {
			return
		}
	}
}

// step executes every live ray once and reports whether any ray is still
// progressing. It mirrors C4PathFinder::Execute's per-round ray-count cap.
func (f *Finder) step() bool {
	progressed := false
	count := 0
	for r := f.firstRay; r != nil && !f.success; r = r.next {
		if f.execute(r) {
			progressed = true
		}
		count++
	}
	if count >= MaxRay {
		return false
	}
	return progressed
}

func (f *Finder) addRay(fromX, fromY, toX, toY, depth int, dir Direction, from *ray, zone Zone) bool {
	if depth >= MaxDepth*f.level() {
		return false
	}
	r := &ray{
		x: fromX, y: fromY, x2: fromX, y2: fromY,
		targetX: toX, targetY: toY,
		depth: depth, direction: dir, from: from, useZone: zone,
	}
	r.next = f.firstRay
	f.firstRay = r
	return true
}

func (f *Finder) splitRay(r *ray, atX, atY int) bool {
	if r.depth >= MaxDepth*f.level() {
		return false
	}
	nr := &ray{
		status: statusStill,
		x:      r.x, y: r.y, x2: atX, y2: atY,
		targetX: r.targetX, targetY: r.targetY,
		depth: r.depth, direction: r.direction, from: r.from,
	}
	nr.next = f.firstRay
	f.firstRay = nr
	r.from = nr
	r.x, r.y = atX, atY
	return true
}

// execute advances one ray by one state-machine step.
func (f *Finder) execute(r *ray) bool {
	switch r.status {
	case statusLaunch:
		return f.executeLaunch(r)
	case statusCrawl:
		return f.executeCrawl(r)
	default:
		return false
	}
}

func (f *Finder) executeLaunch(r *ray) bool {
	if r.useZone != nil {
		if r.useZone.At(r.targetX, r.targetY) {
			r.x2, r.y2 = r.targetX, r.targetY
			f.setCompletePath(r)
			f.success = true
			r.status = statusStill
			return true
		}
		ex, ey, ok := r.useZone.EntryPoint(r.x2, r.y2, r.targetX, r.targetY)
		if !ok {
			r.status = statusFailure
			return true
		}
		r.x2, r.y2 = ex, ey
		if !f.addRay(r.x2, r.y2, r.targetX, r.targetY, r.depth+1, r.direction, r, nil) {
			r.status = statusFailure
			return true
		}
		r.status = statusStill
		return true
	}

	var zone Zone
	if f.pathFree(&r.x2, &r.y2, r.targetX, r.targetY, &zone) {
		f.setCompletePath(r)
		f.success = true
		r.status = statusStill
		return true
	}
	if zone != nil {
		if !zone.At(r.x, r.y) {
			if ex, ey, ok := zone.EntryPoint(r.x2, r.y2, r.x2, r.y2); ok {
				r.x2, r.y2 = ex, ey
			}
		}
		if !f.addRay(r.x2, r.y2, r.targetX, r.targetY, r.depth+1, r.direction, r, zone) {
			r.status = statusFailure
			return true
		}
		r.status = statusStill
		return true
	}

	r.status = statusCrawl
	r.crawlStartX, r.crawlStartY = r.x2, r.y2
	r.crawlAttach = f.findCrawlAttach(r.x2, r.y2)
	r.crawlLength = 0
	if r.crawlAttach == crawlNoAttach {
		r.crawlAttach = f.findCrawlAttachDiagonal(r.x2, r.y2, r.direction)
	}
	r.crawlStartAttach = r.crawlAttach
	if r.crawlAttach == crawlNoAttach {
		r.status = statusFailure
	}
	return true
}

func (f *Finder) executeCrawl(r *ray) bool {
	lastX, lastY := r.x2, r.y2
	if !f.crawl(r) {
		r.status = statusFailure
		return true
	}
	if r.x2 == r.crawlStartX && r.y2 == r.crawlStartY && r.crawlAttach == r.crawlStartAttach {
		r.status = statusStill
		return true
	}

	if f.TransferZonesEnabled && f.Zones != nil {
		if zone := f.Zones.Find(r.x2, r.y2); zone != nil {
			ex, ey := r.x2, r.y2
			if nx, ny, ok := zone.EntryPoint(ex, ey, r.x2, r.y2); ok {
				r.x2, r.y2 = nx, ny
				if !f.addRay(ex, ey, r.targetX, r.targetY, r.depth+1, r.direction, r, zone) {
					r.status = statusFailure
					return true
				}
				return true
			}
		}
	}

	r.crawlLength++
	if r.crawlLength >= MaxCrawl*f.level() {
		r.status = statusStill
		return true
	}

	bx, by := r.x, r.y
	if !f.pathFree(&bx, &by, r.x2, r.y2, nil) {
		if !f.splitRay(r, lastX, lastY) {
			r.status = statusFailure
			return true
		}
	}

	if r.crawlLength > Threshold {
		ix, iy := r.x2, r.y2
		freeToTarget := f.pathFree(&ix, &iy, r.targetX, r.targetY, nil)
		pastThreshold := distance(ix, iy, r.x2, r.y2) > Threshold &&
			distance(ix, iy, r.crawlStartX, r.crawlStartY) > distance(r.x2, r.y2, r.crawlStartX, r.crawlStartY)
		if freeToTarget || pastThreshold {
			r.status = statusStill
			if !f.addRay(r.x2, r.y2, r.targetX, r.targetY, r.depth+1, DirLeft, r, nil) ||
				!f.addRay(r.x2, r.y2, r.targetX, r.targetY, r.depth+1, DirRight, r, nil) {
				r.status = statusFailure
			}
		}
	}
	return true
}

// pathFree walks a Bresenham line from (*px, *py) to (toX, toY), advancing
// *px/*py to the last free point. If zone is non-nil and the path crosses
// a transfer zone, it stops there and reports the zone.
func (f *Finder) pathFree(px, py *int, toX, toY int, zone *Zone) bool {
	x, y := *px, *py
	dx := abs(toX - x)
	dy := -abs(toY - y)
	sx, sy := 1, 1
	if x > toX {
		sx = -1
	}
	if y > toY {
		sy = -1
	}
	err := dx + dy
	for {
		if !f.PointFree(x, y) {
			return false
		}
		*px, *py = x, y
		if f.TransferZonesEnabled && f.Zones != nil && zone != nil {
			if z := f.Zones.Find(x, y); z != nil {
				*zone = z
				return false
			}
		}
		if x == toX && y == toY {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x == toX {
				break
			}
			err += dy
			x += sx
		}
		if e2 <= dx {
			if y == toY {
				break
			}
			err += dx
			y += sy
		}
	}
	return true
}

func (f *Finder) crawl(r *ray) bool {
	if r.crawlAttach == crawlNoAttach {
		return false
	}
	if r.crawlLength > 0 && !f.isCrawlAttach(r.x2, r.y2, r.crawlAttach) {
		cx, cy := crawlToAttach(r.x2, r.y2, r.crawlAttach)
		r.x2, r.y2 = cx, cy
		r.crawlAttach = turnAttach(r.crawlAttach, -r.direction)
		return f.isCrawlAttach(r.x2, r.y2, r.crawlAttach)
	}

	turned := 0
	for !f.crawlTargetFree(r.x2, r.y2, r.crawlAttach, r.direction) {
		r.crawlAttach = turnAttach(r.crawlAttach, r.direction)
		turned++
		if turned == 4 {
			return false
		}
	}
	r.x2, r.y2 = crawlByAttach(r.x2, r.y2, r.crawlAttach, r.direction)
	return true
}

func (f *Finder) crawlTargetFree(x, y int, attach crawlAttach, dir Direction) bool {
	nx, ny := crawlByAttach(x, y, attach, dir)
	return f.PointFree(nx, ny)
}

func crawlByAttach(x, y int, attach crawlAttach, dir Direction) (int, int) {
	switch attach {
	case crawlTop:
		x += int(dir)
	case crawlBottom:
		x -= int(dir)
	case crawlLeft:
		y -= int(dir)
	case crawlRight:
		y += int(dir)
	}
	return x, y
}

func turnAttach(attach crawlAttach, dir Direction) crawlAttach {
	attach += crawlAttach(dir)
	if attach > crawlLeft {
		attach = crawlTop
	}
	if attach < crawlTop {
		attach = crawlLeft
	}
	return attach
}

func crawlToAttach(x, y int, attach crawlAttach) (int, int) {
	switch attach {
	case crawlTop:
		y--
	case crawlBottom:
		y++
	case crawlLeft:
		x--
	case crawlRight:
		x++
	}
	return x, y
}

func (f *Finder) isCrawlAttach(x, y int, attach crawlAttach) bool {
	nx, ny := crawlToAttach(x, y, attach)
	return !f.PointFree(nx, ny)
}

func (f *Finder) findCrawlAttach(x, y int) crawlAttach {
	switch {
	case !f.PointFree(x, y-1):
		return crawlTop
	case !f.PointFree(x, y+1):
		return crawlBottom
	case !f.PointFree(x-1, y):
		return crawlLeft
	case !f.PointFree(x+1, y):
		return crawlRight
	}
	return crawlNoAttach
}

func (f *Finder) findCrawlAttachDiagonal(x, y int, dir Direction) crawlAttach {
	if dir == DirLeft {
		switch {
		case !f.PointFree(x-1, y-1):
			return crawlTop
		case !f.PointFree(x-1, y+1):
			return crawlLeft
		case !f.PointFree(x+1, y-1):
			return crawlRight
		case !f.PointFree(x+1, y+1):
			return crawlBottom
		}
	}
	if dir == DirRight {
		switch {
		case !f.PointFree(x-1, y-1):
			return crawlLeft
		case !f.PointFree(x-1, y+1):
			return crawlBottom
		case !f.PointFree(x+1, y-1):
			return crawlTop
		case !f.PointFree(x+1, y+1):
			return crawlRight
		}
	}
	return crawlNoAttach
}

// setCompletePath back-shortens the ray chain where a straight shortcut
// exists, then emits the end point of every surviving ray in order from the
// start of the chain, so the last waypoint is the ray that reached the goal.
func (f *Finder) setCompletePath(r *ray) {
	for p := r; p.from != nil; p = p.from {
		for f.checkBackRayShorten(p) {
		}
	}
	var chain []Waypoint
	for p := r; p != nil; p = p.from {
		chain = append(chain, Waypoint{X: p.x2, Y: p.y2, Zone: p.useZone})
	}
	for i := len(chain) - 1; i >= 0; i-- {
		f.waypoints = append(f.waypoints, chain[i])
	}
}

func (f *Finder) checkBackRayShorten(r *ray) bool {
	for p := r.from; p != nil; p = p.from {
		if p.useZone != nil {
			return false
		}
		if p == r.from {
			continue
		}
		x, y := r.x, r.y
		if f.pathFree(&x, &y, p.x, p.y, nil) {
			for p2 := r.from; p2 != p; p2 = p2.from {
				p2.status = statusDeleted
			}
			p.x2, p.y2 = r.x, r.y
			r.from = p
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func distance(x1, y1, x2, y2 int) int {
	dx, dy := x2-x1, y2-y1
	return isqrt(dx*dx + dy*dy)
}

func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
