package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// Spawn creates a new entity of the given kind at (x, z) with the given
// starting energy and full default health, and requests its visual proxy.
func (s *Sim) Spawn(kind components.Kind, x, z, energy float32) ecs.Entity {
	cfg := config.Cfg()
	params := cfg.Params(uint8(kind))

	handle := s.sink.Create(kind, x, z)

	tag := components.SpeciesTag{Kind: kind}
	health := components.Health{Value: cfg.Derived.MaxHealth32}
	food := components.Energy{
		Value:     energy,
		RegenRate: float32(params.RegenRate),
	}
	pos := components.Position{V: mgl32.Vec2{x, z}}
	vel := components.Velocity{}
	target := components.Target{}
	proxy := components.VisualProxy{
		Handle:  handle,
		Heading: s.rng.Float32() * (2 * math.Pi),
	}

	return s.mapper.NewEntity(&tag, &health, &food, &pos, &vel, &target, &proxy)
}

// SpawnDefault creates an entity with its species' configured initial
// energy.
func (s *Sim) SpawnDefault(kind components.Kind, x, z float32) ecs.Entity {
	return s.Spawn(kind, x, z, float32(config.Cfg().Params(uint8(kind)).InitialEnergy))
}

// seedPopulation creates the configured starting population at random map
// positions.
func (s *Sim) seedPopulation() {
	cfg := config.Cfg()
	half := cfg.Derived.HalfExtent32

	seed := func(kind components.Kind, count int) {
		for i := 0; i < count; i++ {
			x := (s.rng.Float32()*2 - 1) * half
			z := (s.rng.Float32()*2 - 1) * half
			s.SpawnDefault(kind, x, z)
		}
	}

	seed(components.KindProducer, cfg.Species.Producer.Seed)
	seed(components.KindHerbivore, cfg.Species.Herbivore.Seed)
	seed(components.KindCarnivore, cfg.Species.Carnivore.Seed)
}
