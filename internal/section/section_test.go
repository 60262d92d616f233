package section

import (
	"strings"
	"testing"

	"github.com/legacyclonk/openworld-core/internal/config"
	"github.com/legacyclonk/openworld-core/internal/fixmath"
	"github.com/legacyclonk/openworld-core/internal/landscape"
	"github.com/legacyclonk/openworld-core/internal/motion"
	"github.com/legacyclonk/openworld-core/internal/query"
	"github.com/legacyclonk/openworld-core/internal/shape"
)

func testPlayerShape() *shape.Shape {
	s := &shape.Shape{Rect: fixmath.Rect{X: -10, Y: -10, Wdt: 20, Hgt: 20}}
	s.AddVertex(shape.Vertex{X: -10, Y: -10, CNAT: shape.CNATTop | shape.CNATLeft})
	s.AddVertex(shape.Vertex{X: 10, Y: -10, CNAT: shape.CNATTop | shape.CNATRight})
	s.AddVertex(shape.Vertex{X: 10, Y: 10, CNAT: shape.CNATBottom | shape.CNATRight})
	s.AddVertex(shape.Vertex{X: -10, Y: 10, CNAT: shape.CNATBottom | shape.CNATLeft})
	s.CreateOwnOriginalCopy()
	return s
}

func testMaterials() []Material {
	return []Material{
		{Name: "Sky"},
		{Name: "Earth", DensityVal: 100, FrictionVal: 50},
		{Name: "Water", DensityVal: 20, FrictionVal: 10},
	}
}

func TestNewSectionWiresSubsystems(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 64
	cfg.LandscapeHeight = 64

	s := New(cfg, testMaterials())
	if s.Landscape == nil || s.Sectors == nil || s.Particles == nil || s.Masks == nil {
		t.Fatal("expected all subsystems to be non-nil after New")
	}
	if idx, ok := s.Materials.MaterialIndex("Earth"); !ok || idx != 1 {
		t.Fatalf("MaterialIndex(Earth) = %d, %v, want 1, true", idx, ok)
	}
}

func TestStepDeactivatesReactingParticle(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 64
	cfg.LandscapeHeight = 64
	s := New(cfg, testMaterials())

	s.Landscape.SetPix(50, 52, landscape.Cell{Mat: 2}) // Water cell acts as "lava" stand-in
	s.AddReaction(2, 2)                                // water particle reacts with water landscape (stand-in rule)

	s.Particles.New(2, fixmath.FromInt(50), fixmath.FromInt(50), 0, fixmath.FromInt(1))
	before := s.Particles.FreeCount()

	s.Step()
	s.Step()
	s.Step()

	after := s.Particles.FreeCount()
	if after < before {
		t.Fatalf("expected free count to never decrease from stepping, got %d -> %d", before, after)
	}
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 200
	cfg.LandscapeHeight = 200
	s := New(cfg, testMaterials())

	for y := 50; y <= 150; y++ {
		s.Landscape.SetPix(100, y, landscape.Cell{Mat: 1}) // Earth: dense, blocks the ray
	}

	waypoints, ok := s.FindPath(50, 100, 150, 100)
	if !ok {
		t.Fatal("expected a path around the wall")
	}
	if len(waypoints) == 0 {
		t.Fatal("expected at least one waypoint")
	}
	last := waypoints[len(waypoints)-1]
	if last.X != 150 || last.Y != 100 {
		t.Fatalf("last waypoint = (%d,%d), want (150,100)", last.X, last.Y)
	}
}

func TestTransferZoneRegistersWithPathfinder(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 64
	cfg.LandscapeHeight = 64
	s := New(cfg, testMaterials())

	z := s.AddTransferZone("portal", 10, 10, 20, 20)
	if z.ID.String() == "" {
		t.Fatal("expected transfer zone to get a non-empty uuid")
	}
	if !s.Pathfinder.TransferZonesEnabled {
		t.Fatal("expected adding a transfer zone to enable transfer zones on the pathfinder")
	}
	if s.Pathfinder.Zones.Find(15, 15) == nil {
		t.Fatal("expected (15,15) to be inside the registered zone")
	}
}

func TestSpawnObjectIsSteppedAndSectorIndexed(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 200
	cfg.LandscapeHeight = 200
	s := New(cfg, testMaterials())

	obj := s.SpawnObject(testPlayerShape(), motion.Body{X: 50, Y: 50, XDir: fixmath.FromInt(3)})
	if !s.Arena.Valid(obj.Handle) {
		t.Fatal("expected SpawnObject to allocate a valid arena handle")
	}

	s.Step()

	if obj.Body.X != 53 {
		t.Fatalf("expected motion.Step to advance X by 3 px/tick, got %d", obj.Body.X)
	}

	sec := s.Sectors.SectorAt(obj.Body.X, obj.Body.Y)
	if len(sec.Objects()) != 1 {
		t.Fatalf("expected Sectors.Update to relink the object into its new sector, got %d objects", len(sec.Objects()))
	}

	hits := s.ObjectIDsInRect(0, 0, 200, 200)
	if len(hits) != 1 || hits[0] != obj.ID() {
		t.Fatalf("ObjectIDsInRect = %v, want [%d]", hits, obj.ID())
	}

	s.RemoveObject(obj.ID())
	if s.Arena.Valid(obj.Handle) {
		t.Fatal("expected RemoveObject to free the arena handle")
	}
	if hits := s.ObjectIDsInRect(0, 0, 200, 200); len(hits) != 0 {
		t.Fatalf("expected no objects after RemoveObject, got %v", hits)
	}
}

func TestQueryObjectsFiltersByCategory(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 200
	cfg.LandscapeHeight = 200
	s := New(cfg, testMaterials())

	a := s.SpawnObject(testPlayerShape(), motion.Body{X: 10, Y: 10})
	a.SetCategory(1)
	b := s.SpawnObject(testPlayerShape(), motion.Body{X: 20, Y: 20})
	b.SetCategory(2)

	matches := s.QueryObjects(query.Category(1))
	if len(matches) != 1 || matches[0].ID() != a.ID() {
		t.Fatalf("QueryObjects(Category(1)) = %v, want only object %d", matches, a.ID())
	}
}

func TestLoadTexturesBindsMaterials(t *testing.T) {
	cfg := config.Default()
	cfg.LandscapeWidth = 64
	cfg.LandscapeHeight = 64
	s := New(cfg, testMaterials())

	r := strings.NewReader("1=Earth-dirt01\n2=Water-water01\n")
	if err := s.LoadTextures(r); err != nil {
		t.Fatalf("LoadTextures: %v", err)
	}
	entry, ok := s.Textures.At(1)
	if !ok || entry.MaterialIdx != 1 {
		t.Fatalf("Textures.At(1) = %+v, %v, want bound entry for Earth (idx 1)", entry, ok)
	}
}
