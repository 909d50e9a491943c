package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
)

func TestGridNearbyRadiusCulling(t *testing.T) {
	w := ecs.NewWorld()
	grid := NewSpatialGrid(50, 10)

	near := w.NewEntity()
	far := w.NewEntity()
	grid.Insert(near, 3, 4)
	grid.Insert(far, 30, 0)

	got := grid.Nearby(nil, 0, 0, 10, ecs.Entity{})

	if len(got) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(got))
	}
	if got[0].E != near {
		t.Error("expected the near entity")
	}
	if math.Abs(float64(got[0].DistSq-25)) > 1e-4 {
		t.Errorf("expected distSq 25, got %f", got[0].DistSq)
	}
	if got[0].DX != 3 || got[0].DZ != 4 {
		t.Errorf("expected delta (3,4), got (%f,%f)", got[0].DX, got[0].DZ)
	}
}

func TestGridNearbyExcludesSelf(t *testing.T) {
	w := ecs.NewWorld()
	grid := NewSpatialGrid(50, 10)

	self := w.NewEntity()
	other := w.NewEntity()
	grid.Insert(self, 0, 0)
	grid.Insert(other, 1, 0)

	got := grid.Nearby(nil, 0, 0, 5, self)

	if len(got) != 1 || got[0].E != other {
		t.Fatalf("expected only the other entity, got %d results", len(got))
	}
}

func TestGridClearEmptiesCells(t *testing.T) {
	w := ecs.NewWorld()
	grid := NewSpatialGrid(50, 10)

	grid.Insert(w.NewEntity(), 0, 0)
	grid.Clear()

	if got := grid.Nearby(nil, 0, 0, 50, ecs.Entity{}); len(got) != 0 {
		t.Errorf("expected empty grid after Clear, got %d results", len(got))
	}
}

func TestGridHandlesEdgePositions(t *testing.T) {
	w := ecs.NewWorld()
	grid := NewSpatialGrid(50, 10)

	// Corners and slightly out-of-bounds positions must not panic and
	// must still be findable.
	corner := w.NewEntity()
	outside := w.NewEntity()
	grid.Insert(corner, -50, -50)
	grid.Insert(outside, 55, 55)

	if got := grid.Nearby(nil, -50, -50, 2, ecs.Entity{}); len(got) != 1 {
		t.Errorf("expected corner entity, got %d results", len(got))
	}
	if got := grid.Nearby(nil, 52, 52, 6, ecs.Entity{}); len(got) != 1 {
		t.Errorf("expected out-of-bounds entity, got %d results", len(got))
	}
}

func TestLineOfSightBlockedByObstacle(t *testing.T) {
	grid := NewSpatialGrid(50, 10)
	grid.SetObstacles([]Obstacle{{X: 5, Z: 0, Radius: 2}})

	if grid.LineOfSight(0, 0, 10, 0) {
		t.Error("segment through the obstacle should be blocked")
	}
	if !grid.LineOfSight(0, 5, 10, 5) {
		t.Error("segment passing beside the obstacle should be clear")
	}
	if !grid.LineOfSight(10, 0, 20, 0) {
		t.Error("segment entirely past the obstacle should be clear")
	}
}

func TestLineOfSightNoObstacles(t *testing.T) {
	grid := NewSpatialGrid(50, 10)
	if !grid.LineOfSight(-40, -40, 40, 40) {
		t.Error("empty obstacle set should always have line of sight")
	}
}

func TestSegmentHitsCircle(t *testing.T) {
	cases := []struct {
		name                   string
		ax, az, bx, bz         float32
		cx, cz, r              float32
		hit                    bool
	}{
		{"through center", 0, 0, 10, 0, 5, 0, 1, true},
		{"grazes inside", 0, 0, 10, 0, 5, 0.5, 1, true},
		{"passes clear", 0, 0, 10, 0, 5, 3, 1, false},
		{"circle behind start", 2, 0, 10, 0, 0, 0, 1, false},
		{"circle past end", 0, 0, 4, 0, 10, 0, 1, false},
		{"endpoint inside", 0, 0, 5, 0, 5, 0, 1, true},
		{"degenerate segment inside", 3, 0, 3, 0, 3, 0, 1, true},
	}

	for _, tc := range cases {
		got := segmentHitsCircle(tc.ax, tc.az, tc.bx, tc.bz, tc.cx, tc.cz, tc.r)
		if got != tc.hit {
			t.Errorf("%s: expected hit=%v, got %v", tc.name, tc.hit, got)
		}
	}
}
