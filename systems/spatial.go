// Package systems provides the per-tick ECS systems of the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"
)

// Neighbor holds a nearby entity with precomputed spatial data.
// This avoids recomputing deltas and distances at every call site.
type Neighbor struct {
	E      ecs.Entity
	DX, DZ float32 // Delta from query origin
	DistSq float32 // Squared distance (avoid sqrt in hot path)
}

// Provider is the spatial query contract consumed by targeting, movement
// and feeding. Nearby appends candidates within radius of (x, z) to dst
// and returns the updated slice. LineOfSight reports whether the segment
// between two points is unobstructed.
//
// Systems degrade to a linear scan over the entity store when no
// provider is configured; they lose radius culling but not correctness.
type Provider interface {
	Nearby(dst []Neighbor, x, z, radius float32, exclude ecs.Entity) []Neighbor
	LineOfSight(ax, az, bx, bz float32) bool
}

// Obstacle is a solid circle that blocks line of sight.
type Obstacle struct {
	X, Z   float32
	Radius float32
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid over
// the bounded map [-half, +half]². Positions are captured at insert time;
// the grid is rebuilt at the start of every tick, so lookups may return
// ids despawned earlier in the same tick. Callers treat those as stale.
type SpatialGrid struct {
	cellSize  float32
	cols      int
	half      float32
	cells     [][]gridEntry
	obstacles []Obstacle
}

type gridEntry struct {
	e    ecs.Entity
	x, z float32
}

// NewSpatialGrid creates a spatial grid covering a square map of the given
// half extent.
func NewSpatialGrid(half, cellSize float32) *SpatialGrid {
	cols := int(2*half/cellSize) + 1

	cells := make([][]gridEntry, cols*cols)
	for i := range cells {
		cells[i] = make([]gridEntry, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		half:     half,
		cells:    cells,
	}
}

// SetObstacles replaces the obstacle set used for line-of-sight tests.
func (g *SpatialGrid) SetObstacles(obs []Obstacle) {
	g.obstacles = obs
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, z float32) {
	idx := g.cellIndex(x, z)
	g.cells[idx] = append(g.cells[idx], gridEntry{e: e, x: x, z: z})
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// Nearby finds entities within radius of (x, z) and appends them to dst
// (up to MaxQueryResults). Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) Nearby(dst []Neighbor, x, z, radius float32, exclude ecs.Entity) []Neighbor {
	cellRadius := int(radius/g.cellSize) + 1

	centerCol := g.axisIndex(x)
	centerRow := g.axisIndex(z)

	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.cols {
				continue
			}

			for _, entry := range g.cells[row*g.cols+col] {
				if entry.e == exclude {
					continue
				}

				dx := entry.x - x
				dz := entry.z - z
				distSq := dx*dx + dz*dz

				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: entry.e, DX: dx, DZ: dz, DistSq: distSq})
					if len(dst) >= MaxQueryResults {
						return dst
					}
				}
			}
		}
	}

	return dst
}

// LineOfSight reports whether the segment from (ax, az) to (bx, bz) avoids
// every obstacle circle. An empty obstacle set always has line of sight.
func (g *SpatialGrid) LineOfSight(ax, az, bx, bz float32) bool {
	for _, ob := range g.obstacles {
		if segmentHitsCircle(ax, az, bx, bz, ob.X, ob.Z, ob.Radius) {
			return false
		}
	}
	return true
}

// segmentHitsCircle tests the segment AB against a circle by projecting the
// circle center onto the segment and comparing the closest distance.
func segmentHitsCircle(ax, az, bx, bz, cx, cz, r float32) bool {
	abx := bx - ax
	abz := bz - az
	acx := cx - ax
	acz := cz - az

	lenSq := abx*abx + abz*abz
	t := float32(0)
	if lenSq > 0 {
		t = (acx*abx + acz*abz) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	dx := acx - t*abx
	dz := acz - t*abz
	return dx*dx+dz*dz <= r*r
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, z float32) int {
	return g.axisIndex(z)*g.cols + g.axisIndex(x)
}

// axisIndex maps a world axis coordinate to a clamped column/row index.
func (g *SpatialGrid) axisIndex(v float32) int {
	i := int((v + g.half) / g.cellSize)
	if i < 0 {
		i = 0
	} else if i >= g.cols {
		i = g.cols - 1
	}
	return i
}
