// Package sim owns the simulation context: the entity store, the spatial
// index, the per-tick system pipeline and the replenishment clock.
package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/systems"
	"github.com/pthm-cable/meadow/telemetry"
)

// Options configures a new simulation.
type Options struct {
	Seed int64     // RNG seed (0 = time-based)
	Sink ProxySink // visual proxy sink (nil = NopSink)
}

// Sim is the simulation context. It is single-owner for the duration of a
// tick: systems run strictly sequentially and share the store without
// locking.
type Sim struct {
	world *ecs.World
	rng   *rand.Rand

	mapper *ecs.Map7[
		components.SpeciesTag,
		components.Health,
		components.Energy,
		components.Position,
		components.Velocity,
		components.Target,
		components.VisualProxy,
	]
	allFilter *ecs.Filter4[
		components.SpeciesTag,
		components.Position,
		components.Velocity,
		components.VisualProxy,
	]
	statFilter *ecs.Filter2[components.SpeciesTag, components.Energy]
	tagMap     *ecs.Map1[components.SpeciesTag]
	proxyMap   *ecs.Map1[components.VisualProxy]

	grid      *systems.SpatialGrid
	vitals    *systems.VitalsSystem
	targeting *systems.TargetingSystem
	movement  *systems.MovementSystem
	feeding   *systems.FeedingSystem
	breeding  *systems.ReproductionSystem
	registry  *systems.SystemRegistry

	sink      ProxySink
	collector *telemetry.Collector
	perf      *phaseTimer

	tick    int64
	simTime float64
}

// New creates a simulation from the loaded configuration and seeds the
// initial population.
func New(opts Options) *Sim {
	cfg := config.Cfg()

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}

	world := ecs.NewWorld()

	s := &Sim{
		world: world,
		rng:   rand.New(rand.NewSource(seed)),
		mapper: ecs.NewMap7[
			components.SpeciesTag,
			components.Health,
			components.Energy,
			components.Position,
			components.Velocity,
			components.Target,
			components.VisualProxy,
		](world),
		allFilter: ecs.NewFilter4[
			components.SpeciesTag,
			components.Position,
			components.Velocity,
			components.VisualProxy,
		](world),
		statFilter: ecs.NewFilter2[components.SpeciesTag, components.Energy](world),
		tagMap:     ecs.NewMap1[components.SpeciesTag](world),
		proxyMap:   ecs.NewMap1[components.VisualProxy](world),
		sink:       sink,
		collector:  telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		perf:       newPhaseTimer(),
		registry:   systems.NewSystemRegistry(),
	}

	s.grid = systems.NewSpatialGrid(cfg.Derived.HalfExtent32, float32(cfg.World.GridCellSize))
	obstacles := make([]systems.Obstacle, 0, len(cfg.World.Obstacles))
	for _, ob := range cfg.World.Obstacles {
		obstacles = append(obstacles, systems.Obstacle{
			X:      float32(ob.X),
			Z:      float32(ob.Z),
			Radius: float32(ob.Radius),
		})
	}
	s.grid.SetObstacles(obstacles)

	s.vitals = systems.NewVitalsSystem(world, s.despawn)
	s.targeting = systems.NewTargetingSystem(world)
	s.targeting.SetProvider(s.grid)
	s.movement = systems.NewMovementSystem(world)
	s.movement.SetProvider(s.grid)
	s.feeding = systems.NewFeedingSystem(world, s.despawn)
	s.breeding = systems.NewReproductionSystem(world, s.Spawn, s.rng)

	s.seedPopulation()

	return s
}

// Step advances the simulation by dt seconds, running the systems in their
// fixed order.
func (s *Sim) Step(dt float32) {
	s.timed("spatialGrid", func() { s.rebuildGrid() })
	s.timed("vitals", func() { s.vitals.Update(dt) })
	s.timed("targeting", func() { s.targeting.Update() })
	s.timed("movement", func() { s.movement.Update(dt) })
	s.timed("feeding", func() {
		s.collector.RecordKills(s.feeding.Update())
	})
	s.timed("reproduction", func() {
		born, replenished := s.breeding.Update(dt)
		for kind, n := range born {
			s.collector.RecordBirths(components.Kind(kind), n)
		}
		s.collector.RecordReplenish(replenished)
	})
	s.timed("proxySync", func() { s.syncProxies() })

	s.tick++
	s.simTime += float64(dt)
}

// timed runs fn and records its duration under the given system id.
func (s *Sim) timed(id string, fn func()) {
	start := time.Now()
	fn()
	s.perf.Record(id, time.Since(start))
}

// rebuildGrid refreshes the spatial index from current positions.
func (s *Sim) rebuildGrid() {
	s.grid.Clear()

	query := s.allFilter.Query()
	for query.Next() {
		_, pos, _, _ := query.Get()
		s.grid.Insert(query.Entity(), pos.V.X(), pos.V.Y())
	}
}

// despawn removes an entity, destroying its visual proxy first. Removal is
// immediate: later systems in the same tick never observe the id.
func (s *Sim) despawn(e ecs.Entity) {
	kind := s.tagMap.Get(e).Kind
	s.sink.Destroy(s.proxyMap.Get(e).Handle)
	s.world.RemoveEntity(e)
	s.collector.RecordDeath(kind)
}

// syncProxies pushes position and smoothed facing to every visual proxy.
func (s *Sim) syncProxies() {
	smoothing := float32(config.Cfg().Steering.HeadingSmoothing)

	query := s.allFilter.Query()
	for query.Next() {
		_, pos, vel, proxy := query.Get()

		if vel.V.LenSqr() > 1e-6 {
			want := float32(math.Atan2(float64(vel.V.Y()), float64(vel.V.X())))
			proxy.Heading += smoothing * wrapAngle(want-proxy.Heading)
			proxy.Heading = wrapAngle(proxy.Heading)
		}

		s.sink.Move(proxy.Handle, pos.V.X(), pos.V.Y(), proxy.Heading)
	}
}

// wrapAngle wraps an angle to [-pi, pi].
func wrapAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// Tick returns the number of completed ticks.
func (s *Sim) Tick() int64 {
	return s.tick
}

// SimTime returns the accumulated simulated seconds.
func (s *Sim) SimTime() float64 {
	return s.simTime
}

// World exposes the entity store for inspection.
func (s *Sim) World() *ecs.World {
	return s.world
}

// PopulationCounts returns live entity counts indexed by species kind.
func (s *Sim) PopulationCounts() [3]int {
	var counts [3]int
	query := s.statFilter.Query()
	for query.Next() {
		tag, _ := query.Get()
		counts[tag.Kind]++
	}
	return counts
}

// ShouldFlushStats reports whether a stats window has completed.
func (s *Sim) ShouldFlushStats() bool {
	return s.collector.ShouldFlush(s.simTime)
}

// FlushStats samples population and energy distributions, folds in the
// window's event counters and starts a new window.
func (s *Sim) FlushStats() telemetry.WindowStats {
	var stats telemetry.WindowStats
	stats.WindowEndTick = s.tick

	var counts [3]int
	var herbEnergy, carnEnergy []float64

	query := s.statFilter.Query()
	for query.Next() {
		tag, energy := query.Get()
		counts[tag.Kind]++
		switch tag.Kind {
		case components.KindHerbivore:
			herbEnergy = append(herbEnergy, float64(energy.Value))
		case components.KindCarnivore:
			carnEnergy = append(carnEnergy, float64(energy.Value))
		}
	}

	stats.Producers = counts[components.KindProducer]
	stats.Herbivores = counts[components.KindHerbivore]
	stats.Carnivores = counts[components.KindCarnivore]

	herb := telemetry.Summarize(herbEnergy)
	stats.HerbEnergyMean, stats.HerbEnergyP10, stats.HerbEnergyP50, stats.HerbEnergyP90 = herb.Mean, herb.P10, herb.P50, herb.P90
	carn := telemetry.Summarize(carnEnergy)
	stats.CarnEnergyMean, stats.CarnEnergyP10, stats.CarnEnergyP50, stats.CarnEnergyP90 = carn.Mean, carn.P10, carn.P50, carn.P90

	s.collector.Flush(s.simTime, &stats)
	return stats
}

// PerfRecords returns per-system timing rows for the current window.
func (s *Sim) PerfRecords() []telemetry.PerfRecord {
	total := s.perf.Total()
	records := make([]telemetry.PerfRecord, 0, len(s.registry.IDs()))
	for _, id := range s.registry.IDs() {
		avg := s.perf.Avg(id)
		pct := float64(0)
		if total > 0 {
			pct = float64(avg) / float64(total) * 100
		}
		records = append(records, telemetry.PerfRecord{
			WindowEndTick: s.tick,
			System:        s.registry.GetName(id),
			AvgMicros:     float64(avg.Microseconds()),
			Percent:       pct,
		})
	}
	return records
}
