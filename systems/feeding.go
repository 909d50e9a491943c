package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// FeedingSystem consumes targets within eat range: the eater gains a
// retention fraction of the target's energy, the target is despawned, and
// the eater's target link is cleared. A consumed id is never referenced
// again within the tick.
type FeedingSystem struct {
	filter    ecs.Filter3[components.Position, components.Energy, components.Target]
	posMap    *ecs.Map1[components.Position]
	energyMap *ecs.Map1[components.Energy]
	targetMap *ecs.Map1[components.Target]
	world     *ecs.World
	despawn   DespawnFunc
}

// feedEvent records one in-range eater/target pair found during the scan.
type feedEvent struct {
	eater  ecs.Entity
	target ecs.Entity
}

// NewFeedingSystem creates a feeding system.
func NewFeedingSystem(w *ecs.World, despawn DespawnFunc) *FeedingSystem {
	return &FeedingSystem{
		filter:    *ecs.NewFilter3[components.Position, components.Energy, components.Target](w),
		posMap:    ecs.NewMap1[components.Position](w),
		energyMap: ecs.NewMap1[components.Energy](w),
		targetMap: ecs.NewMap1[components.Target](w),
		world:     w,
		despawn:   despawn,
	}
}

// Update processes one feeding pass and returns the number of kills.
func (s *FeedingSystem) Update() int {
	cfg := config.Cfg()
	eatRadiusSq := float32(cfg.Feeding.EatRadius * cfg.Feeding.EatRadius)
	diminish := float32(cfg.Feeding.DiminishFactor)
	maxEnergy := cfg.Derived.MaxEnergy32

	// First pass: find in-range pairs. Consumption happens after the
	// query completes; the store must not change mid-iteration.
	var events []feedEvent

	query := s.filter.Query()
	for query.Next() {
		pos, _, target := query.Get()

		if !target.Set() {
			continue
		}
		if !s.world.Alive(target.Entity) {
			// Stale link from an earlier death this tick.
			target.Entity = ecs.Entity{}
			continue
		}

		delta := s.posMap.Get(target.Entity).V.Sub(pos.V)
		if delta.LenSqr() > eatRadiusSq {
			continue
		}

		events = append(events, feedEvent{eater: query.Entity(), target: target.Entity})
	}

	// Second pass: consume. The same prey can appear in several events;
	// the first eater wins and the rest see a dead target.
	kills := 0
	for _, ev := range events {
		if !s.world.Alive(ev.eater) || !s.world.Alive(ev.target) {
			if s.world.Alive(ev.eater) {
				s.targetMap.Get(ev.eater).Entity = ecs.Entity{}
			}
			continue
		}

		gain := s.energyMap.Get(ev.target).Value * diminish
		eaterEnergy := s.energyMap.Get(ev.eater)
		eaterEnergy.Value += gain
		if eaterEnergy.Value > maxEnergy {
			eaterEnergy.Value = maxEnergy
		}

		s.targetMap.Get(ev.eater).Entity = ecs.Entity{}
		s.despawn(ev.target)
		kills++
	}
	return kills
}
