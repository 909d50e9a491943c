package sim

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

const dt = float32(1.0 / 60.0)

// emptyWorld is a config override that disables seeding and replenishment
// so tests control the population exactly.
const emptyWorld = `
species:
  producer: {seed: 0}
  herbivore: {seed: 0}
  carnivore: {seed: 0}
breeding:
  plant_respawn_rate: 0
`

// initConfig loads the embedded defaults merged with a YAML override.
func initConfig(t *testing.T, override string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	config.MustInit(path)
}

func newTestSim(t *testing.T, override string) *Sim {
	t.Helper()
	initConfig(t, override)
	return New(Options{Seed: 1})
}

func TestSeededPopulationCounts(t *testing.T) {
	config.MustInit("")
	s := New(Options{Seed: 1})

	counts := s.PopulationCounts()
	cfg := config.Cfg()
	if counts[components.KindProducer] != cfg.Species.Producer.Seed {
		t.Errorf("expected %d producers, got %d", cfg.Species.Producer.Seed, counts[components.KindProducer])
	}
	if counts[components.KindHerbivore] != cfg.Species.Herbivore.Seed {
		t.Errorf("expected %d herbivores, got %d", cfg.Species.Herbivore.Seed, counts[components.KindHerbivore])
	}
	if counts[components.KindCarnivore] != cfg.Species.Carnivore.Seed {
		t.Errorf("expected %d carnivores, got %d", cfg.Species.Carnivore.Seed, counts[components.KindCarnivore])
	}
}

func TestStarvationTimeline(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	// Energy 40 at -3/s hits zero at ~13.3s; health 100 then drains at
	// 20/s, so death lands at ~18.3s.
	herb := s.Spawn(components.KindHerbivore, 0, 0, 40)
	healthMap := ecs.NewMap1[components.Health](s.world)
	energyMap := ecs.NewMap1[components.Energy](s.world)

	var died float64
	for s.SimTime() < 25 {
		s.Step(dt)
		if !s.world.Alive(herb) {
			died = s.SimTime()
			break
		}
		if h := healthMap.Get(herb).Value; h < 0 || h > 100 {
			t.Fatalf("health out of range at t=%.2f: %f", s.SimTime(), h)
		}
		if e := energyMap.Get(herb).Value; e < 0 {
			t.Fatalf("energy went negative at t=%.2f: %f", s.SimTime(), e)
		}
	}

	if died == 0 {
		t.Fatal("herbivore never starved")
	}
	if died < 18.0 || died > 18.7 {
		t.Errorf("expected death at ~18.3s, got %.2fs", died)
	}
	if got := s.PopulationCounts(); got[components.KindHerbivore] != 0 {
		t.Error("despawned herbivore still counted")
	}
}

func TestProducerReproductionAtThreshold(t *testing.T) {
	s := newTestSim(t, emptyWorld)
	cfg := config.Cfg()

	parent := s.Spawn(components.KindProducer, 3, -4, 40)
	energyMap := ecs.NewMap1[components.Energy](s.world)
	posMap := ecs.NewMap1[components.Position](s.world)
	tagMap := ecs.NewMap1[components.SpeciesTag](s.world)

	// Energy 40 at +2/s crosses the 100 threshold after ~30s.
	for s.SimTime() < 35 && s.PopulationCounts()[components.KindProducer] == 1 {
		s.Step(dt)
	}

	counts := s.PopulationCounts()
	children := counts[components.KindProducer] - 1
	if children == 0 {
		t.Fatal("producer never reproduced")
	}
	if s.SimTime() < 29.5 {
		t.Errorf("reproduced too early, at %.2fs", s.SimTime())
	}
	if children < cfg.Breeding.ChildrenMin || children > cfg.Breeding.ChildrenMax {
		t.Fatalf("child count %d outside [%d,%d]", children, cfg.Breeding.ChildrenMin, cfg.Breeding.ChildrenMax)
	}

	// Parent keeps its post-deduction energy: just past threshold minus
	// the full threshold.
	parentEnergy := energyMap.Get(parent).Value
	if parentEnergy < 0 || parentEnergy > 1 {
		t.Errorf("expected parent energy just above zero after deduction, got %f", parentEnergy)
	}

	// Children spawn at the parent's position with an even share.
	share := float32(cfg.Breeding.FoodToReproduce) / float32(children+1)
	parentPos := posMap.Get(parent).V

	query := s.statFilter.Query()
	for query.Next() {
		e := query.Entity()
		if e == parent {
			continue
		}
		if tagMap.Get(e).Kind != components.KindProducer {
			t.Errorf("child has wrong species %v", tagMap.Get(e).Kind)
		}
		if got := energyMap.Get(e).Value; math.Abs(float64(got-share)) > 1e-3 {
			t.Errorf("expected child energy %f, got %f", share, got)
		}
		if posMap.Get(e).V != parentPos {
			t.Errorf("expected child at parent position %v, got %v", parentPos, posMap.Get(e).V)
		}
	}
}

func TestFeedingConsumesInRange(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	carn := s.Spawn(components.KindCarnivore, 0, 0, 40)
	herb := s.Spawn(components.KindHerbivore, 2, 0, 40)

	energyMap := ecs.NewMap1[components.Energy](s.world)
	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	if s.world.Alive(herb) {
		t.Fatal("herbivore within eat radius should have been consumed")
	}
	if targetMap.Get(carn).Set() {
		t.Error("carnivore target should be cleared after consumption")
	}

	// One tick of drain on both sides, then a 0.9 retention transfer of
	// the herbivore's ~40 energy.
	gain := energyMap.Get(carn).Value - 40
	if gain < 35 || gain > 36.2 {
		t.Errorf("expected energy gain near 36, got %f", gain)
	}
}

func TestFeedingStarvedPreyNeverDrainsEater(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	carn := s.Spawn(components.KindCarnivore, 0, 0, 40)
	herb := s.Spawn(components.KindHerbivore, 2, 0, 40)

	energyMap := ecs.NewMap1[components.Energy](s.world)
	// Force the prey deep into deficit, as if it had been starving for a
	// long stretch; the floor must hold so the transfer cannot go negative.
	energyMap.Get(herb).Value = -10

	s.Step(dt)

	if s.world.Alive(herb) {
		t.Fatal("prey in eat range should have been consumed")
	}
	// The eater pays its own drain for the tick but must never lose
	// energy to the meal itself.
	after := energyMap.Get(carn).Value
	if after < 40-1 {
		t.Errorf("eater lost energy by feeding: before=40 after=%f", after)
	}
}

func TestFeedingSkipsOutOfRange(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	carn := s.Spawn(components.KindCarnivore, 0, 0, 40)
	herb := s.Spawn(components.KindHerbivore, 10, 0, 40)

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	if !s.world.Alive(herb) {
		t.Fatal("herbivore outside eat radius must not be consumed")
	}
	// Still hunted, just not caught yet.
	if got := targetMap.Get(carn).Entity; got != herb {
		t.Errorf("expected carnivore to keep hunting, target=%v", got)
	}
}

func TestTargetingPicksNearestHealthy(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	herb := s.Spawn(components.KindHerbivore, 0, 0, 40)
	s.Spawn(components.KindProducer, 10, 0, 40)
	near := s.Spawn(components.KindProducer, 5, 0, 40)

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	if got := targetMap.Get(herb).Entity; got != near {
		t.Errorf("expected nearest producer as target, got %v", got)
	}
}

func TestTargetingRespectsSenseRadius(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	herb := s.Spawn(components.KindHerbivore, 0, 0, 40)
	s.Spawn(components.KindProducer, 40, 0, 40) // outside the 25 sense radius

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	if targetMap.Get(herb).Set() {
		t.Error("producer outside sense radius must not be targeted")
	}
}

func TestTargetingNeverTargetsConsumers(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	herb := s.Spawn(components.KindHerbivore, 0, 0, 40)
	other := s.Spawn(components.KindHerbivore, 4, 4, 40)
	carn := s.Spawn(components.KindCarnivore, -8, 0, 40)

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	// No producers in range: herbivores must stay targetless even with
	// other species nearby.
	if targetMap.Get(herb).Set() {
		t.Errorf("herbivore targeted %v, want none", targetMap.Get(herb).Entity)
	}
	// The carnivore hunts a herbivore, never the other carnivore class.
	got := targetMap.Get(carn).Entity
	if got != herb && got != other {
		t.Errorf("carnivore should target a herbivore, got %v", got)
	}
}

func TestTargetingFallsBackToLinearScan(t *testing.T) {
	s := newTestSim(t, emptyWorld)
	s.targeting.SetProvider(nil)

	herb := s.Spawn(components.KindHerbivore, 0, 0, 40)
	s.Spawn(components.KindProducer, 10, 0, 40)
	near := s.Spawn(components.KindProducer, 5, 0, 40)
	far := s.Spawn(components.KindHerbivore, -30, 0, 40)

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	// Without a spatial index the system scans every entity; selection
	// must not change.
	if got := targetMap.Get(herb).Entity; got != near {
		t.Errorf("expected nearest producer as target, got %v", got)
	}
	if targetMap.Get(far).Set() {
		t.Error("producer outside sense radius must not be targeted in the scan path")
	}
}

func TestSeparationFallsBackToLinearScan(t *testing.T) {
	s := newTestSim(t, emptyWorld)
	s.movement.SetProvider(nil)

	a := s.Spawn(components.KindHerbivore, 0, 0, 40)
	b := s.Spawn(components.KindHerbivore, 1, 0, 40)
	c := s.Spawn(components.KindCarnivore, 20, 20, 40)

	velMap := ecs.NewMap1[components.Velocity](s.world)

	s.Step(dt)

	va := velMap.Get(a).V
	vb := velMap.Get(b).V
	if va.X() >= 0 || vb.X() <= 0 {
		t.Errorf("expected entities pushed apart, got %v and %v", va, vb)
	}
	if s.world.Alive(c) && velMap.Get(c).V.Len() != 0 {
		t.Error("isolated entity must see no separation force in the scan path")
	}
}

func TestTargetingLineOfSight(t *testing.T) {
	s := newTestSim(t, emptyWorld+`
world:
  obstacles:
    - {x: 5, z: 0, radius: 2}
sensing:
  line_of_sight: true
`)

	herb := s.Spawn(components.KindHerbivore, 0, 0, 40)
	s.Spawn(components.KindProducer, 10, 0, 40)            // nearer, behind the obstacle
	visible := s.Spawn(components.KindProducer, 0, 12, 40) // farther, clear view

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)

	if got := targetMap.Get(herb).Entity; got != visible {
		t.Errorf("expected the visible producer as target, got %v", got)
	}
}

func TestMovementVelocityNeverExceedsMaxSpeed(t *testing.T) {
	s := newTestSim(t, emptyWorld)
	maxSpeed := config.Cfg().Derived.MaxSpeed32

	herb := s.Spawn(components.KindHerbivore, -20, 3, 200)
	s.Spawn(components.KindProducer, 0, 0, 40)
	velMap := ecs.NewMap1[components.Velocity](s.world)

	for i := 0; i < 240 && s.world.Alive(herb); i++ {
		s.Step(dt)
		if speed := velMap.Get(herb).V.Len(); speed > maxSpeed*1.0001 {
			t.Fatalf("velocity %f exceeds max speed %f at tick %d", speed, maxSpeed, i)
		}
	}
}

func TestSeparationWithinRadius(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	a := s.Spawn(components.KindHerbivore, 0, 0, 40)
	b := s.Spawn(components.KindHerbivore, 1, 0, 40)
	velMap := ecs.NewMap1[components.Velocity](s.world)

	s.Step(dt)

	va := velMap.Get(a).V
	vb := velMap.Get(b).V
	if va.Len() == 0 || vb.Len() == 0 {
		t.Fatal("expected nonzero mutual repulsion within separation radius")
	}
	if va.X() >= 0 || vb.X() <= 0 {
		t.Errorf("expected entities pushed apart, got %v and %v", va, vb)
	}
}

func TestSeparationOutsideRadius(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	a := s.Spawn(components.KindHerbivore, 0, 0, 40)
	b := s.Spawn(components.KindHerbivore, 10, 0, 40)
	velMap := ecs.NewMap1[components.Velocity](s.world)

	s.Step(dt)

	if velMap.Get(a).V.Len() != 0 || velMap.Get(b).V.Len() != 0 {
		t.Error("expected zero separation contribution beyond the radius")
	}
}

func TestVitalsIdempotentAtZeroDt(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	entities := []ecs.Entity{
		s.Spawn(components.KindProducer, 0, 0, 40),
		s.Spawn(components.KindHerbivore, 5, 5, 0), // starving
		s.Spawn(components.KindCarnivore, -5, 5, 40),
	}

	healthMap := ecs.NewMap1[components.Health](s.world)
	energyMap := ecs.NewMap1[components.Energy](s.world)

	type vitals struct{ health, energy float32 }
	before := make([]vitals, len(entities))
	for i, e := range entities {
		before[i] = vitals{healthMap.Get(e).Value, energyMap.Get(e).Value}
	}

	s.vitals.Update(0)
	s.vitals.Update(0)

	for i, e := range entities {
		if healthMap.Get(e).Value != before[i].health {
			t.Errorf("entity %d health changed with dt=0", i)
		}
		if energyMap.Get(e).Value != before[i].energy {
			t.Errorf("entity %d energy changed with dt=0", i)
		}
	}
}

func TestDyingEntityRemovedSameTick(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	doomed := s.Spawn(components.KindHerbivore, 0, 0, 0)
	healthMap := ecs.NewMap1[components.Health](s.world)
	healthMap.Get(doomed).Value = 0.01

	s.Step(dt)

	if s.world.Alive(doomed) {
		t.Fatal("entity at zero health must despawn in the same tick")
	}
	if got := s.PopulationCounts(); got[components.KindHerbivore] != 0 {
		t.Error("dead entity still visible to queries")
	}
}

func TestReplenishmentCarriesFraction(t *testing.T) {
	s := newTestSim(t, `
species:
  producer: {seed: 0}
  herbivore: {seed: 0}
  carnivore: {seed: 0}
breeding:
  plant_respawn_rate: 0.5
`)

	// At 0.5 producers/s the first replenishment lands at ~2 simulated
	// seconds and the second at ~4; the fractional remainder must carry
	// across ticks rather than being truncated away.
	for i := 0; i < 125; i++ {
		s.Step(dt)
	}
	if got := s.PopulationCounts()[components.KindProducer]; got != 1 {
		t.Fatalf("expected 1 producer after ~2s, got %d", got)
	}

	for i := 0; i < 120; i++ {
		s.Step(dt)
	}
	if got := s.PopulationCounts()[components.KindProducer]; got != 2 {
		t.Fatalf("expected 2 producers after ~4s, got %d", got)
	}
}

func TestStaleTargetSelfCorrects(t *testing.T) {
	s := newTestSim(t, emptyWorld)

	carn := s.Spawn(components.KindCarnivore, 0, 0, 40)
	herb := s.Spawn(components.KindHerbivore, 10, 0, 40)

	targetMap := ecs.NewMap1[components.Target](s.world)

	s.Step(dt)
	if targetMap.Get(carn).Entity != herb {
		t.Fatal("setup: expected carnivore hunting herbivore")
	}

	// Kill the prey out from under the predator.
	s.despawn(herb)
	s.Step(dt)

	if s.world.Alive(carn) {
		if tgt := targetMap.Get(carn); tgt.Set() && !s.world.Alive(tgt.Entity) {
			t.Error("stale target left pointing at a despawned entity")
		}
	}
}
