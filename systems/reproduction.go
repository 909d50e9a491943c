package systems

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// ReproductionSystem spawns offspring from parents with surplus energy and
// replenishes producers at a fixed rate. The parent pays the full
// reproduction threshold and keeps its post-deduction energy; each child
// starts with an even share of the threshold.
type ReproductionSystem struct {
	filter    ecs.Filter3[components.SpeciesTag, components.Position, components.Energy]
	energyMap *ecs.Map1[components.Energy]
	world     *ecs.World
	spawn     SpawnFunc
	rng       *rand.Rand

	respawnDebt float64 // fractional producers owed to the map
}

// parentInfo snapshots an eligible parent found during the scan.
type parentInfo struct {
	entity ecs.Entity
	kind   components.Kind
	pos    mgl32.Vec2
}

// NewReproductionSystem creates a reproduction system.
func NewReproductionSystem(w *ecs.World, spawn SpawnFunc, rng *rand.Rand) *ReproductionSystem {
	return &ReproductionSystem{
		filter:    *ecs.NewFilter3[components.SpeciesTag, components.Position, components.Energy](w),
		energyMap: ecs.NewMap1[components.Energy](w),
		world:     w,
		spawn:     spawn,
		rng:       rng,
	}
}

// Update runs reproduction and replenishment for one tick of dt seconds.
// It returns the children born per species kind and the number of
// producers replenished.
func (s *ReproductionSystem) Update(dt float32) (born [3]int, replenished int) {
	cfg := config.Cfg()
	threshold := float32(cfg.Breeding.FoodToReproduce)

	// Scan for eligible parents first; spawning while the query is open
	// would mutate the store mid-iteration.
	var parents []parentInfo

	query := s.filter.Query()
	for query.Next() {
		tag, pos, energy := query.Get()
		if energy.Value >= threshold {
			parents = append(parents, parentInfo{
				entity: query.Entity(),
				kind:   tag.Kind,
				pos:    pos.V,
			})
		}
	}

	for _, p := range parents {
		born[p.kind] += s.reproduce(p, threshold, cfg)
	}

	replenished = s.replenish(dt, cfg)
	return born, replenished
}

// reproduce deducts the threshold from the parent and spawns a litter at
// the parent's position, each child seeded with an even share.
func (s *ReproductionSystem) reproduce(p parentInfo, threshold float32, cfg *config.Config) int {
	energy := s.energyMap.Get(p.entity)
	if energy.Value < threshold {
		return 0
	}
	energy.Value -= threshold

	span := cfg.Breeding.ChildrenMax - cfg.Breeding.ChildrenMin + 1
	children := cfg.Breeding.ChildrenMin + s.rng.Intn(span)
	share := threshold / float32(children+1)

	for i := 0; i < children; i++ {
		s.spawn(p.kind, p.pos.X(), p.pos.Y(), share)
	}
	return children
}

// replenish spawns producers at random positions at the configured rate.
// The fractional remainder carries between ticks, so the rate is exact in
// expectation rather than truncated per tick.
func (s *ReproductionSystem) replenish(dt float32, cfg *config.Config) int {
	s.respawnDebt += float64(dt) * cfg.Breeding.PlantRespawnRate

	n := int(s.respawnDebt)
	if n == 0 {
		return 0
	}
	s.respawnDebt -= float64(n)

	half := cfg.Derived.HalfExtent32
	initial := float32(cfg.Species.Producer.InitialEnergy)
	for i := 0; i < n; i++ {
		x := (s.rng.Float32()*2 - 1) * half
		z := (s.rng.Float32()*2 - 1) * half
		s.spawn(components.KindProducer, x, z, initial)
	}
	return n
}
