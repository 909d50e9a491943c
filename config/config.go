// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Vitals    VitalsConfig    `yaml:"vitals"`
	Sensing   SensingConfig   `yaml:"sensing"`
	Steering  SteeringConfig  `yaml:"steering"`
	Feeding   FeedingConfig   `yaml:"feeding"`
	Breeding  BreedingConfig  `yaml:"breeding"`
	Species   SpeciesConfig   `yaml:"species"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds world dimensions and the spatial index parameters.
// The map spans [-half_extent, +half_extent] on both ground-plane axes.
type WorldConfig struct {
	HalfExtent   float64          `yaml:"half_extent"`
	GridCellSize float64          `yaml:"grid_cell_size"`
	Obstacles    []ObstacleConfig `yaml:"obstacles"`
}

// ObstacleConfig is a solid circular obstacle blocking line of sight.
type ObstacleConfig struct {
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	Radius float64 `yaml:"radius"`
}

// VitalsConfig holds health and energy drift parameters.
type VitalsConfig struct {
	MaxHealth    float64 `yaml:"max_health"`
	HealthRegen  float64 `yaml:"health_regen"`  // per second while fed
	HealthStarve float64 `yaml:"health_starve"` // per second while starving (negative)
	MaxEnergy    float64 `yaml:"max_energy"`    // soft energy cap
}

// SensingConfig holds target acquisition parameters.
type SensingConfig struct {
	SenseRadius float64 `yaml:"sense_radius"`
	LineOfSight bool    `yaml:"line_of_sight"` // require unobstructed view of targets
}

// SteeringConfig holds movement and steering parameters.
type SteeringConfig struct {
	MaxSpeed         float64 `yaml:"max_speed"`
	SeparationRadius float64 `yaml:"separation_radius"`
	SeparationForce  float64 `yaml:"separation_force"`
	BoundsPadding    float64 `yaml:"bounds_padding"`
	BoundsForce      float64 `yaml:"bounds_force"`
	HeadingSmoothing float64 `yaml:"heading_smoothing"` // facing lerp factor per tick, [0,1]
}

// FeedingConfig holds consumption parameters.
type FeedingConfig struct {
	EatRadius      float64 `yaml:"eat_radius"`
	DiminishFactor float64 `yaml:"diminish_factor"` // fraction of prey energy retained
}

// BreedingConfig holds reproduction and replenishment parameters.
type BreedingConfig struct {
	FoodToReproduce  float64 `yaml:"food_to_reproduce"`
	ChildrenMin      int     `yaml:"children_min"`
	ChildrenMax      int     `yaml:"children_max"`
	PlantRespawnRate float64 `yaml:"plant_respawn_rate"` // producers per second
}

// SpeciesConfig holds per-species spawn parameters.
type SpeciesConfig struct {
	Producer  SpeciesParams `yaml:"producer"`
	Herbivore SpeciesParams `yaml:"herbivore"`
	Carnivore SpeciesParams `yaml:"carnivore"`
}

// SpeciesParams describes one species class.
type SpeciesParams struct {
	Seed          int      `yaml:"seed"`           // initial population
	RegenRate     float64  `yaml:"regen_rate"`     // energy per second, signed
	InitialEnergy float64  `yaml:"initial_energy"` // starting energy at spawn
	Size          float64  `yaml:"size"`           // visual proxy size
	Color         [3]uint8 `yaml:"color"`          // visual proxy RGB
}

// TelemetryConfig holds stats collection settings.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // seconds per stats window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	HalfExtent32 float32 // World.HalfExtent as float32
	MaxSpeed32   float32
	MaxHealth32  float32
	MaxEnergy32  float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Invalid configuration
// is rejected here; the simulation refuses to run on bad tunables.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks the tunables for values that would make per-tick behavior
// undefined. All violations are fatal at startup.
func (c *Config) Validate() error {
	if c.World.HalfExtent <= 0 {
		return fmt.Errorf("config: world.half_extent must be positive, got %v", c.World.HalfExtent)
	}
	if c.World.GridCellSize <= 0 {
		return fmt.Errorf("config: world.grid_cell_size must be positive, got %v", c.World.GridCellSize)
	}
	if c.Vitals.MaxHealth <= 0 {
		return fmt.Errorf("config: vitals.max_health must be positive, got %v", c.Vitals.MaxHealth)
	}
	if c.Vitals.HealthStarve >= 0 {
		return fmt.Errorf("config: vitals.health_starve must be negative, got %v", c.Vitals.HealthStarve)
	}
	if c.Sensing.SenseRadius <= 0 {
		return fmt.Errorf("config: sensing.sense_radius must be positive, got %v", c.Sensing.SenseRadius)
	}
	if c.Steering.MaxSpeed <= 0 {
		return fmt.Errorf("config: steering.max_speed must be positive, got %v", c.Steering.MaxSpeed)
	}
	if c.Feeding.EatRadius <= 0 {
		return fmt.Errorf("config: feeding.eat_radius must be positive, got %v", c.Feeding.EatRadius)
	}
	if c.Feeding.DiminishFactor <= 0 || c.Feeding.DiminishFactor > 1 {
		return fmt.Errorf("config: feeding.diminish_factor must be in (0,1], got %v", c.Feeding.DiminishFactor)
	}
	if c.Breeding.FoodToReproduce <= 0 {
		return fmt.Errorf("config: breeding.food_to_reproduce must be positive, got %v", c.Breeding.FoodToReproduce)
	}
	if c.Breeding.ChildrenMin < 0 || c.Breeding.ChildrenMax < c.Breeding.ChildrenMin {
		return fmt.Errorf("config: breeding children range [%d,%d] is inverted",
			c.Breeding.ChildrenMin, c.Breeding.ChildrenMax)
	}
	if c.Breeding.PlantRespawnRate < 0 {
		return fmt.Errorf("config: breeding.plant_respawn_rate must not be negative, got %v", c.Breeding.PlantRespawnRate)
	}
	if c.Species.Producer.RegenRate <= 0 {
		return fmt.Errorf("config: producer regen_rate must be positive, got %v", c.Species.Producer.RegenRate)
	}
	if c.Species.Herbivore.RegenRate >= 0 || c.Species.Carnivore.RegenRate >= 0 {
		return fmt.Errorf("config: consumer regen_rate must be negative, got %v / %v",
			c.Species.Herbivore.RegenRate, c.Species.Carnivore.RegenRate)
	}
	for i, ob := range c.World.Obstacles {
		if ob.Radius <= 0 {
			return fmt.Errorf("config: obstacle %d radius must be positive, got %v", i, ob.Radius)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.HalfExtent32 = float32(c.World.HalfExtent)
	c.Derived.MaxSpeed32 = float32(c.Steering.MaxSpeed)
	c.Derived.MaxHealth32 = float32(c.Vitals.MaxHealth)
	c.Derived.MaxEnergy32 = float32(c.Vitals.MaxEnergy)
}

// Params returns the spawn parameters for a species kind index
// (0=producer, 1=herbivore, 2=carnivore).
func (c *Config) Params(kind uint8) *SpeciesParams {
	switch kind {
	case 1:
		return &c.Species.Herbivore
	case 2:
		return &c.Species.Carnivore
	default:
		return &c.Species.Producer
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
