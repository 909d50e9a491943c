// Package telemetry collects windowed population statistics and writes
// them as CSV for offline analysis.
package telemetry

import "github.com/pthm-cable/meadow/components"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowSec float64

	windowStart float64 // sim seconds at window start

	births      [3]int
	deaths      [3]int
	kills       int
	replenished int
}

// NewCollector creates a stats collector with the given window length in
// simulation seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 10
	}
	return &Collector{windowSec: windowSec}
}

// RecordBirths records n reproduction birth events for a species kind.
func (c *Collector) RecordBirths(kind components.Kind, n int) {
	c.births[kind] += n
}

// RecordDeath records a death event (starvation or predation).
func (c *Collector) RecordDeath(kind components.Kind) {
	c.deaths[kind]++
}

// RecordKills records n successful consumptions.
func (c *Collector) RecordKills(n int) {
	c.kills += n
}

// RecordReplenish records n producers spawned by replenishment.
func (c *Collector) RecordReplenish(n int) {
	c.replenished += n
}

// ShouldFlush reports whether the current window is complete.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStart >= c.windowSec
}

// Flush fills the event fields of stats, resets the counters and starts a
// new window. Population and energy fields are the caller's to fill.
func (c *Collector) Flush(simTime float64, stats *WindowStats) {
	stats.SimTimeSec = simTime
	stats.ProducerBirths = c.births[components.KindProducer]
	stats.HerbivoreBirths = c.births[components.KindHerbivore]
	stats.CarnivoreBirths = c.births[components.KindCarnivore]
	stats.ProducerDeaths = c.deaths[components.KindProducer]
	stats.HerbivoreDeaths = c.deaths[components.KindHerbivore]
	stats.CarnivoreDeaths = c.deaths[components.KindCarnivore]
	stats.Kills = c.kills
	stats.Replenished = c.replenished

	c.births = [3]int{}
	c.deaths = [3]int{}
	c.kills = 0
	c.replenished = 0
	c.windowStart = simTime
}
