package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// TargetingSystem acquires the nearest valid target per species pairing:
// herbivores hunt producers, carnivores hunt herbivores. Producers never
// hunt. The search is bounded by the sense radius through the spatial
// provider; without a provider it falls back to a linear scan and loses
// only the radius culling.
type TargetingSystem struct {
	filter    ecs.Filter3[components.SpeciesTag, components.Position, components.Target]
	tagMap    *ecs.Map1[components.SpeciesTag]
	posMap    *ecs.Map1[components.Position]
	healthMap *ecs.Map1[components.Health]
	world     *ecs.World
	provider  Provider

	scratch []Neighbor // reused across queries
}

// NewTargetingSystem creates a targeting system.
func NewTargetingSystem(w *ecs.World) *TargetingSystem {
	return &TargetingSystem{
		filter:    *ecs.NewFilter3[components.SpeciesTag, components.Position, components.Target](w),
		tagMap:    ecs.NewMap1[components.SpeciesTag](w),
		posMap:    ecs.NewMap1[components.Position](w),
		healthMap: ecs.NewMap1[components.Health](w),
		world:     w,
	}
}

// SetProvider sets the spatial query provider. A nil provider enables the
// linear-scan fallback.
func (s *TargetingSystem) SetProvider(p Provider) {
	s.provider = p
}

// prey returns the species class hunted by k, and whether k hunts at all.
func prey(k components.Kind) (components.Kind, bool) {
	switch k {
	case components.KindHerbivore:
		return components.KindProducer, true
	case components.KindCarnivore:
		return components.KindHerbivore, true
	}
	return 0, false
}

// Update rewrites every hunter's target with the nearest live, healthy
// candidate of its prey species, or clears it when none is in range.
func (s *TargetingSystem) Update() {
	cfg := config.Cfg()
	radius := float32(cfg.Sensing.SenseRadius)
	needLOS := cfg.Sensing.LineOfSight

	query := s.filter.Query()
	for query.Next() {
		tag, pos, target := query.Get()

		preyKind, hunts := prey(tag.Kind)
		if !hunts {
			continue
		}

		best := s.nearest(query.Entity(), pos.V.X(), pos.V.Y(), radius, preyKind, needLOS)
		target.Entity = best
	}
}

// nearest returns the closest live candidate of the wanted kind within
// radius of (x, z), or the zero entity. Ties resolve to the first found.
func (s *TargetingSystem) nearest(self ecs.Entity, x, z, radius float32, want components.Kind, needLOS bool) ecs.Entity {
	var best ecs.Entity
	maxSq := radius * radius
	bestSq := maxSq

	consider := func(e ecs.Entity, distSq float32) {
		if distSq > maxSq {
			return
		}
		if best != (ecs.Entity{}) && distSq >= bestSq {
			return
		}
		if !s.world.Alive(e) {
			return
		}
		if s.tagMap.Get(e).Kind != want {
			return
		}
		if s.healthMap.Get(e).Value <= 0 {
			return
		}
		if needLOS && s.provider != nil {
			p := s.posMap.Get(e)
			if !s.provider.LineOfSight(x, z, p.V.X(), p.V.Y()) {
				return
			}
		}
		best = e
		bestSq = distSq
	}

	if s.provider != nil {
		s.scratch = s.provider.Nearby(s.scratch[:0], x, z, radius, self)
		for _, n := range s.scratch {
			consider(n.E, n.DistSq)
		}
		return best
	}

	// Fallback: linear scan over everything holding a position and tag.
	// Distances still use the squared ground-plane metric.
	scan := s.filter.Query()
	for scan.Next() {
		e := scan.Entity()
		if e == self {
			continue
		}
		_, p, _ := scan.Get()
		dx := p.V.X() - x
		dz := p.V.Y() - z
		consider(e, dx*dx+dz*dz)
	}
	return best
}
