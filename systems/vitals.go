package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// DespawnFunc removes an entity, its components and its visual proxy from
// the world. Provided by the simulation context; removal is effective
// immediately so later systems in the same tick never observe the id.
type DespawnFunc func(e ecs.Entity)

// SpawnFunc creates a new entity of the given kind at a position with the
// given starting energy. Provided by the simulation context.
type SpawnFunc func(kind components.Kind, x, z, energy float32) ecs.Entity

// VitalsSystem applies passive energy drift and health regeneration or
// starvation, and despawns entities whose health reaches zero. It runs
// first in the tick so no later system sees a dead entity.
type VitalsSystem struct {
	filter  ecs.Filter3[components.Health, components.Energy, components.VisualProxy]
	despawn DespawnFunc
}

// NewVitalsSystem creates a vitals system.
func NewVitalsSystem(w *ecs.World, despawn DespawnFunc) *VitalsSystem {
	return &VitalsSystem{
		filter:  *ecs.NewFilter3[components.Health, components.Energy, components.VisualProxy](w),
		despawn: despawn,
	}
}

// Update advances vitals by dt seconds and returns the number of deaths.
func (s *VitalsSystem) Update(dt float32) int {
	cfg := config.Cfg()
	maxHealth := cfg.Derived.MaxHealth32
	maxEnergy := cfg.Derived.MaxEnergy32
	regen := float32(cfg.Vitals.HealthRegen)
	starve := float32(cfg.Vitals.HealthStarve)

	// Collect the dead during iteration; structural changes wait until
	// the query has been fully consumed.
	var dead []ecs.Entity

	query := s.filter.Query()
	for query.Next() {
		health, energy, _ := query.Get()

		energy.Value += energy.RegenRate * dt
		if energy.Value > maxEnergy {
			energy.Value = maxEnergy
		} else if energy.Value < 0 {
			energy.Value = 0
		}

		if energy.Value <= 0 {
			health.Value += starve * dt
		} else {
			health.Value += regen * dt
		}

		if health.Value > maxHealth {
			health.Value = maxHealth
		} else if health.Value < 0 {
			health.Value = 0
		}

		if health.Value <= 0 {
			dead = append(dead, query.Entity())
		}
	}

	for _, e := range dead {
		s.despawn(e)
	}
	return len(dead)
}
