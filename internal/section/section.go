// Package section implements the per-world-instance aggregator owning
// the landscape, sector index, object list, particle pool, solid mask
// registry, texture map, and message overlay list, grounded in spec §3
// ("Section" glossary entry) and the teacher's single `GameMatchState`
// struct in game.go — generalized from one flat struct of Nakama/
// Physix-go fields into a struct of the deterministic-core subsystems,
// still a single owner threaded through match entry points per the
// "Global mutable state" design note.
package section

import (
	"io"
	"math/rand"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/legacyclonk/openworld-core/internal/config"
	"github.com/legacyclonk/openworld-core/internal/fixmath"
	"github.com/legacyclonk/openworld-core/internal/landscape"
	"github.com/legacyclonk/openworld-core/internal/message"
	"github.com/legacyclonk/openworld-core/internal/motion"
	"github.com/legacyclonk/openworld-core/internal/pathfinder"
	"github.com/legacyclonk/openworld-core/internal/pxs"
	"github.com/legacyclonk/openworld-core/internal/query"
	"github.com/legacyclonk/openworld-core/internal/sector"
	"github.com/legacyclonk/openworld-core/internal/shape"
	"github.com/legacyclonk/openworld-core/internal/solidmask"
	"github.com/legacyclonk/openworld-core/internal/texture"
	"github.com/legacyclonk/openworld-core/internal/value"
)

// objectCount is last-writer-wins across concurrently stepping sections
// (one gauge, not per-section) since Nakama schedules one Section per
// match in its own goroutine rather than exposing a per-match registry.
var objectCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "openworld_section_object_count",
	Help: "Live objects in the most recently stepped section's arena.",
})

// Material is one entry of the material table; names resolve to
// indices for the texture map's Init pass.
type Material struct {
	Name         string
	DensityVal   int
	FrictionVal  int
}

// MaterialTable is a small named-index table satisfying both
// landscape.MaterialTable and texture.MaterialLookup, so a single
// section-level table serves both collaborators.
type MaterialTable struct {
	byIndex []Material
	byName  map[string]int
}

// NewMaterialTable builds a table from an ordered material list;
// index 0 is reserved for sky and should not be reused.
func NewMaterialTable(materials []Material) *MaterialTable {
	t := &MaterialTable{byIndex: materials, byName: make(map[string]int, len(materials))}
	for i, m := range materials {
		t.byName[m.Name] = i
	}
	return t
}

func (t *MaterialTable) Density(mat uint8) int {
	if int(mat) >= len(t.byIndex) {
		return 0
	}
	return t.byIndex[mat].DensityVal
}

func (t *MaterialTable) Friction(mat uint8) int {
	if int(mat) >= len(t.byIndex) {
		return 0
	}
	return t.byIndex[mat].FrictionVal
}

func (t *MaterialTable) MaterialIndex(name string) (int, bool) {
	i, ok := t.byName[name]
	return i, ok
}

// reactionTable answers the pxs package's material-reaction/wind
// queries; a tiny fixed lookup rather than a generic rule engine, since
// §4.G only requires "does material A deactivate in material B".
type reactionTable struct {
	reacts map[[2]uint8]bool
}

func newReactionTable() *reactionTable {
	return &reactionTable{reacts: make(map[[2]uint8]bool)}
}

func (r *reactionTable) AddReaction(landscapeMat, particleMat uint8) {
	r.reacts[[2]uint8{landscapeMat, particleMat}] = true
}

func (r *reactionTable) React(lMat, pMat uint8) bool {
	return r.reacts[[2]uint8{lMat, pMat}]
}

func (r *reactionTable) Wind(x, y int) int { return 0 }

// TransferZone is a named rectangular teleport the pathfinder may route
// a path through (spec glossary "Transfer zone"). It carries a stable
// uuid rather than an array index so a save-game snapshot or a remote
// peer can reference the same zone across a map reload.
type TransferZone struct {
	ID             uuid.UUID
	Name           string
	X0, Y0, X1, Y1 int
}

// NewTransferZone builds a zone covering the inclusive rectangle
// (x0,y0)-(x1,y1).
func NewTransferZone(name string, x0, y0, x1, y1 int) *TransferZone {
	return &TransferZone{ID: uuid.New(), Name: name, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func (z *TransferZone) At(x, y int) bool {
	return x >= z.X0 && x <= z.X1 && y >= z.Y0 && y <= z.Y1
}

// EntryPoint clamps the point nearest (towardX, towardY) onto the
// zone's rectangle; transfer zones are small enough in practice that
// "nearest point on the rect to the target" stands in for the
// original's boundary-walking search.
func (z *TransferZone) EntryPoint(fromX, fromY, towardX, towardY int) (int, int, bool) {
	x := towardX
	if x < z.X0 {
		x = z.X0
	} else if x > z.X1 {
		x = z.X1
	}
	y := towardY
	if y < z.Y0 {
		y = z.Y0
	} else if y > z.Y1 {
		y = z.Y1
	}
	return x, y, true
}

// zoneSet is a flat pathfinder.ZoneSet; a section holds at most a
// handful of transfer zones so linear scan beats indexing.
type zoneSet []*TransferZone

func (zs zoneSet) Find(x, y int) pathfinder.Zone {
	for _, z := range zs {
		if z.At(x, y) {
			return z
		}
	}
	return nil
}

// Object is a live sector-indexed simulation body: a shape, a motion
// state, and an arena handle for script-visible properties. It is the
// one live-object type match.go and input_processor.go allocate
// through, joining components C (shape), D (sector index), E (motion)
// and L (query) instead of leaving them reachable only from their own
// package tests.
type Object struct {
	id     int64
	Shape  *shape.Shape
	Body   *motion.Body
	Handle value.ObjectHandle
	ocf    uint32
	cat    uint32
}

func (o *Object) ID() int64       { return o.id }
func (o *Object) Pos() (x, y int) { return o.Body.X, o.Body.Y }
func (o *Object) OCF() uint32     { return o.ocf }
func (o *Object) Category() uint32 { return o.cat }

// SetOCF/SetCategory let script or spawn code tag an object for later
// query.OCF/query.Category criteria.
func (o *Object) SetOCF(ocf uint32)      { o.ocf = ocf }
func (o *Object) SetCategory(cat uint32) { o.cat = cat }

// SectorPos/SectorShapeRect satisfy sector.Object, letting the sector
// index track and relink this object as motion.Step moves it.
func (o *Object) SectorPos() (x, y int) { return o.Body.X, o.Body.Y }

func (o *Object) SectorShapeRect() fixmath.Rect {
	r := o.Shape.Rect
	return fixmath.Rect{X: o.Body.X + r.X, Y: o.Body.Y + r.Y, Wdt: r.Wdt, Hgt: r.Hgt}
}

// CoversPoint/IntersectsRect/IntersectsLine satisfy query's optional
// shape-narrowing interface, so an AtPoint/AtRect/OnLine criterion
// tests the object's actual footprint rather than its sector cell.
func (o *Object) CoversPoint(x, y int) bool {
	return o.SectorShapeRect().Contains(x, y)
}

func (o *Object) IntersectsRect(r fixmath.Rect) bool {
	return o.SectorShapeRect().Overlap(r)
}

func (o *Object) IntersectsLine(x1, y1, x2, y2 int) bool {
	r := o.SectorShapeRect()
	steps := max(x2-x1, x1-x2, y2-y1, y1-y2)
	for i := 0; i <= steps; i++ {
		x, y := x1, y1
		if steps > 0 {
			x, y = x1+(x2-x1)*i/steps, y1+(y2-y1)*i/steps
		}
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}

// Section aggregates one world instance's live simulation state.
type Section struct {
	InstanceID uuid.UUID
	Config     config.Section
	Landscape  *landscape.Landscape
	Materials  *MaterialTable
	Sectors    *sector.Index
	Particles  *pxs.Pool
	Masks      *solidmask.Registry
	Textures   *texture.Map
	Messages   message.List
	Arena      *value.Arena
	Strings    *value.StringTable
	Pathfinder *pathfinder.Finder
	Zones      []*TransferZone
	Objects    map[int64]*Object

	reactions    *reactionTable
	frame        int64
	nextObjectID int64
}

// New builds a section with an empty sky landscape and wired
// subsystems, ready for a scenario load to populate materials/objects.
func New(cfg config.Section, materials []Material) *Section {
	mats := NewMaterialTable(materials)
	lc := landscape.New(cfg.LandscapeWidth, cfg.LandscapeHeight, mats)
	reactions := newReactionTable()

	s := &Section{
		InstanceID: uuid.New(),
		Config:     cfg,
		Landscape:  lc,
		Materials:  mats,
		Sectors:    sector.New(cfg.LandscapeWidth, cfg.LandscapeHeight),
		Particles:  pxs.NewPool(fixmath.FromInt(1).Div(fixmath.FromInt(4)), rand.Int),
		Masks:      solidmask.NewRegistry(),
		Textures:   texture.New(nil),
		Arena:      &value.Arena{},
		Strings:    &value.StringTable{},
		Objects:    make(map[int64]*Object),
		reactions:  reactions,
	}
	s.Pathfinder = pathfinder.NewFinder(func(x, y int) bool {
		return lc.GetDensity(x, y) < pathfinder.Threshold
	}, nil)
	s.Textures.Init(s.Materials)
	return s
}

// SpawnObject allocates a live Object from a shape template and an
// initial motion body: the one path object creation must go through to
// be simulated by stepObjects and found by Sectors/QueryObjects.
func (s *Section) SpawnObject(tmpl *shape.Shape, body motion.Body) *Object {
	s.nextObjectID++

	sh := &shape.Shape{
		Rect:     tmpl.Rect,
		Vertices: append([]shape.Vertex(nil), tmpl.Vertices...),
	}
	sh.CreateOwnOriginalCopy()

	obj := &Object{
		id:     s.nextObjectID,
		Shape:  sh,
		Body:   &body,
		Handle: s.Arena.Alloc(),
	}
	s.Objects[obj.id] = obj
	s.Sectors.Add(obj)
	return obj
}

// RemoveObject releases an object's sector membership and arena slot.
func (s *Section) RemoveObject(id int64) {
	obj, ok := s.Objects[id]
	if !ok {
		return
	}
	s.Sectors.Remove(obj)
	s.Arena.Free(obj.Handle)
	delete(s.Objects, id)
}

// FindObject looks up a live object by id.
func (s *Section) FindObject(id int64) (*Object, bool) {
	obj, ok := s.Objects[id]
	return obj, ok
}

// stepObjects advances every live object's motion one tick and relinks
// its sector membership, the per-tick half of components D/E that Step
// drives alongside the particle pool and message list.
func (s *Section) stepObjects() {
	for _, obj := range s.Objects {
		motion.Step(s.Landscape, obj.Shape, obj.Body)
		s.Sectors.Update(obj)
	}
}

// QueryObjects runs a query criterion over the section's live objects,
// using the sector index to prune when the criterion carries bounds.
func (s *Section) QueryObjects(c query.Criterion) []query.Object {
	all := make([]query.Object, 0, len(s.Objects))
	for _, obj := range s.Objects {
		all = append(all, obj)
	}
	return query.FindMany(c, all, s)
}

// ObjectsInRect satisfies query.SectorSource, draining the sector
// index's shape lists for the touching cells.
func (s *Section) ObjectsInRect(r fixmath.Rect) []query.Object {
	shapes := sector.NewArea(s.Sectors, r).NextObjectShapes()
	out := make([]query.Object, 0, len(shapes))
	for _, o := range shapes {
		if qo, ok := o.(query.Object); ok {
			out = append(out, qo)
		}
	}
	return out
}

// ObjectIDsInRect is a script/network-facing convenience over
// QueryObjects that doesn't require the caller to import the query
// package's Criterion type.
func (s *Section) ObjectIDsInRect(x, y, w, h int) []int64 {
	objs := s.QueryObjects(query.InRect(x, y, w, h))
	ids := make([]int64, len(objs))
	for i, o := range objs {
		ids[i] = o.ID()
	}
	return ids
}

// AddTransferZone registers a named rectangular teleport and makes it
// visible to the section's pathfinder.
func (s *Section) AddTransferZone(name string, x0, y0, x1, y1 int) *TransferZone {
	z := NewTransferZone(name, x0, y0, x1, y1)
	s.Zones = append(s.Zones, z)
	s.Pathfinder.Zones = zoneSet(s.Zones)
	s.Pathfinder.TransferZonesEnabled = true
	return s.Zones[len(s.Zones)-1]
}

// FindPath runs the crawler pathfinder from (fromX,fromY) to (toX,toY)
// over the section's current landscape and transfer zones.
func (s *Section) FindPath(fromX, fromY, toX, toY int) ([]pathfinder.Waypoint, bool) {
	return s.Pathfinder.Find(fromX, fromY, toX, toY)
}

// AddReaction registers a particle/landscape material reaction pair,
// used while loading scenario material definitions.
func (s *Section) AddReaction(landscapeMat, particleMat uint8) {
	s.reactions.AddReaction(landscapeMat, particleMat)
}

// Reactions exposes the section's reaction table as a pxs.ReactionTable.
func (s *Section) Reactions() pxs.ReactionTable { return s.reactions }

// Frame returns the number of times Step has run on this section.
func (s *Section) Frame() int64 { return s.frame }

// Step advances every live object, the particle pool and the message list
// by one tick; the scheduler (if configured) drives the remaining per-tick
// phases.
func (s *Section) Step() {
	s.frame++
	s.stepObjects()
	for _, h := range s.Particles.Active() {
		pxs.Step(s.Landscape, s.reactions, s.Particles, h)
	}
	s.Particles.SyncClearance()
	s.Messages.Step(s.frame)
	objectCount.Set(float64(s.Arena.Len()))
}

// LoadTextures parses a texture table from r and binds every entry
// against the section's material table, the scenario-load path
// component P needs to leave its table non-empty.
func (s *Section) LoadTextures(r io.Reader) error {
	if err := s.Textures.Load(r); err != nil {
		return err
	}
	s.Textures.Init(s.Materials)
	return nil
}
