// Package components defines ECS components for the simulation.
package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
)

// Kind classifies an entity into one of the three species classes.
type Kind uint8

const (
	KindProducer  Kind = iota // rooted food source, never moves
	KindHerbivore             // eats producers
	KindCarnivore             // eats herbivores
)

// String returns the lowercase species name.
func (k Kind) String() string {
	switch k {
	case KindProducer:
		return "producer"
	case KindHerbivore:
		return "herbivore"
	case KindCarnivore:
		return "carnivore"
	}
	return "unknown"
}

// Consumer reports whether this kind burns energy and hunts for food.
func (k Kind) Consumer() bool {
	return k == KindHerbivore || k == KindCarnivore
}

// SpeciesTag holds the entity's species class. Exactly one per entity,
// immutable after spawn.
type SpeciesTag struct {
	Kind Kind
}

// Health is the entity's hit points, clamped to [0, MaxHealth] every tick.
// An entity whose health reaches 0 is despawned the same tick.
type Health struct {
	Value float32
}

// Energy is the entity's food reserve. RegenRate is fixed at spawn:
// positive for producers (photosynthesis), negative for consumers
// (metabolic drain).
type Energy struct {
	Value     float32
	RegenRate float32 // per second, signed
}

// Position is the entity's ground-plane location. The vertical axis is
// display-only and never enters simulation math.
type Position struct {
	V mgl32.Vec2
}

// Velocity is the entity's ground-plane velocity, magnitude capped at
// the configured max speed.
type Velocity struct {
	V mgl32.Vec2
}

// Target is an optional reference to another live entity being hunted or
// foraged. The zero Entity means no target. Any system finding a stale
// reference treats it as absent.
type Target struct {
	Entity ecs.Entity
}

// Set reports whether a target reference is present. It says nothing
// about liveness; callers still check the world.
func (t Target) Set() bool {
	return t.Entity != ecs.Entity{}
}

// VisualProxy links the entity to its external rendering object.
// Handle is opaque to the core; Heading is the smoothed facing angle
// (radians) pushed to the proxy each tick.
type VisualProxy struct {
	Handle  uint64
	Heading float32
}
