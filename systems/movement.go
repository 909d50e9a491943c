package systems

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/meadow/components"
	"github.com/pthm-cable/meadow/config"
)

// MovementSystem applies boids-style steering (seek + same-species
// separation + soft boundary containment) to herbivores and carnivores
// and integrates velocity and position. Producers never move.
type MovementSystem struct {
	filter   ecs.Filter4[components.SpeciesTag, components.Position, components.Velocity, components.Target]
	tagMap   *ecs.Map1[components.SpeciesTag]
	posMap   *ecs.Map1[components.Position]
	world    *ecs.World
	provider Provider

	scratch []Neighbor
}

// NewMovementSystem creates a movement system.
func NewMovementSystem(w *ecs.World) *MovementSystem {
	return &MovementSystem{
		filter: *ecs.NewFilter4[components.SpeciesTag, components.Position, components.Velocity, components.Target](w),
		tagMap: ecs.NewMap1[components.SpeciesTag](w),
		posMap: ecs.NewMap1[components.Position](w),
		world:  w,
	}
}

// SetProvider sets the spatial query provider used for the separation
// neighbor scan. Without one, separation degrades to a linear scan.
func (s *MovementSystem) SetProvider(p Provider) {
	s.provider = p
}

// Update advances movement by dt seconds.
func (s *MovementSystem) Update(dt float32) {
	cfg := config.Cfg()
	maxSpeed := cfg.Derived.MaxSpeed32
	half := cfg.Derived.HalfExtent32
	sepRadius := float32(cfg.Steering.SeparationRadius)
	sepForce := float32(cfg.Steering.SeparationForce)
	padding := float32(cfg.Steering.BoundsPadding)
	boundsForce := float32(cfg.Steering.BoundsForce)

	query := s.filter.Query()
	for query.Next() {
		tag, pos, vel, target := query.Get()

		if !tag.Kind.Consumer() {
			continue
		}

		var force mgl32.Vec2
		force = force.Add(s.seek(pos.V, vel.V, target, maxSpeed))
		force = force.Add(s.separation(query.Entity(), tag.Kind, pos.V, sepRadius).Mul(sepForce))
		force = force.Add(containment(pos.V, half, padding).Mul(boundsForce))

		vel.V = clampVec(vel.V.Add(force.Mul(dt)), maxSpeed)
		pos.V = pos.V.Add(vel.V.Mul(dt))
	}
}

// seek steers toward the target's position at max speed. A missing or
// stale target yields no force.
func (s *MovementSystem) seek(pos, vel mgl32.Vec2, target *components.Target, maxSpeed float32) mgl32.Vec2 {
	if !target.Set() || !s.world.Alive(target.Entity) {
		return mgl32.Vec2{}
	}

	to := s.posMap.Get(target.Entity).V.Sub(pos)
	if to.LenSqr() == 0 {
		return mgl32.Vec2{}
	}

	desired := to.Normalize().Mul(maxSpeed)
	return clampVec(desired.Sub(vel), maxSpeed)
}

// separation accumulates an inverse-distance-weighted push away from every
// same-species neighbor within radius.
func (s *MovementSystem) separation(self ecs.Entity, kind components.Kind, pos mgl32.Vec2, radius float32) mgl32.Vec2 {
	var sum mgl32.Vec2

	repel := func(dx, dz, distSq float32) {
		// Push from neighbor toward self, weighted by 1/distance.
		dist := float32(math.Sqrt(float64(distSq)))
		w := 1 / max32(0.001, dist)
		sum = sum.Add(mgl32.Vec2{-dx * w, -dz * w})
	}

	if s.provider != nil {
		s.scratch = s.provider.Nearby(s.scratch[:0], pos.X(), pos.Y(), radius, self)
		for _, n := range s.scratch {
			if !s.world.Alive(n.E) || s.tagMap.Get(n.E).Kind != kind {
				continue
			}
			repel(n.DX, n.DZ, n.DistSq)
		}
		return sum
	}

	radiusSq := radius * radius
	scan := s.filter.Query()
	for scan.Next() {
		e := scan.Entity()
		if e == self {
			continue
		}
		otherTag, otherPos, _, _ := scan.Get()
		if otherTag.Kind != kind {
			continue
		}
		dx := otherPos.V.X() - pos.X()
		dz := otherPos.V.Y() - pos.Y()
		distSq := dx*dx + dz*dz
		if distSq <= radiusSq {
			repel(dx, dz, distSq)
		}
	}
	return sum
}

// containment returns a unit inward push when the position is within
// padding of any map edge, and the zero vector inside all margins.
func containment(pos mgl32.Vec2, half, padding float32) mgl32.Vec2 {
	var push mgl32.Vec2

	if pos.X() < -half+padding {
		push[0] += 1
	} else if pos.X() > half-padding {
		push[0] -= 1
	}
	if pos.Y() < -half+padding {
		push[1] += 1
	} else if pos.Y() > half-padding {
		push[1] -= 1
	}

	if push.LenSqr() == 0 {
		return push
	}
	return push.Normalize()
}

// clampVec limits the magnitude of v to maxLen.
func clampVec(v mgl32.Vec2, maxLen float32) mgl32.Vec2 {
	lenSq := v.LenSqr()
	if lenSq <= maxLen*maxLen {
		return v
	}
	return v.Mul(maxLen / float32(math.Sqrt(float64(lenSq))))
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
