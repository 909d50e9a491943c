package systems

// SystemInfo describes a simulation system for logging and perf display.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this system does
	Category    string // Grouping (e.g., "core", "lifecycle")
}

// SystemRegistry holds metadata about all systems.
// This centralizes system naming so the HUD and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known systems in tick order.
// Update this when adding new systems.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: "spatialGrid", Name: "Spatial Grid", Description: "Rebuilds the neighbor lookup grid", Category: "core"})
	r.Register(SystemInfo{ID: "vitals", Name: "Vitals", Description: "Energy drift, health regen/starvation, death", Category: "lifecycle"})
	r.Register(SystemInfo{ID: "targeting", Name: "Targeting", Description: "Nearest-target acquisition per species pairing", Category: "ai"})
	r.Register(SystemInfo{ID: "movement", Name: "Movement", Description: "Steering forces and integration", Category: "physics"})
	r.Register(SystemInfo{ID: "feeding", Name: "Feeding", Description: "Proximity consumption and energy transfer", Category: "lifecycle"})
	r.Register(SystemInfo{ID: "reproduction", Name: "Reproduction", Description: "Offspring spawning and producer replenishment", Category: "lifecycle"})
	r.Register(SystemInfo{ID: "proxySync", Name: "Proxy Sync", Description: "Pushes positions and facing to visual proxies", Category: "visual"})
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns system info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered systems in tick order.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// IDs returns all system IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
