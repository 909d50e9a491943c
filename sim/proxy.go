package sim

import "github.com/pthm-cable/meadow/components"

// ProxySink is the external visual proxy factory and sink. The core
// requests one proxy per spawn, one destruction per despawn, and pushes
// position and smoothed facing once per tick. It never reads proxy state
// back.
type ProxySink interface {
	// Create makes a proxy for a newly spawned entity and returns its
	// opaque handle. Size and color are the sink's to derive from kind.
	Create(kind components.Kind, x, z float32) uint64
	// Destroy releases the proxy for a despawned entity.
	Destroy(handle uint64)
	// Move pushes the current position and facing angle (radians) to
	// the proxy.
	Move(handle uint64, x, z, heading float32)
}

// NopSink discards all proxy traffic. Used in headless mode and tests.
type NopSink struct{}

func (NopSink) Create(components.Kind, float32, float32) uint64 { return 0 }
func (NopSink) Destroy(uint64)                                  {}
func (NopSink) Move(uint64, float32, float32, float32)          {}
