package sim

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/meadow/telemetry"
)

// LogStats emits one structured record summarizing a completed stats
// window.
func (s *Sim) LogStats(stats telemetry.WindowStats) {
	slog.Info("window stats",
		"tick", stats.WindowEndTick,
		"sim_time", stats.SimTimeSec,
		"producers", stats.Producers,
		"herbivores", stats.Herbivores,
		"carnivores", stats.Carnivores,
		"births", stats.ProducerBirths+stats.HerbivoreBirths+stats.CarnivoreBirths,
		"deaths", stats.ProducerDeaths+stats.HerbivoreDeaths+stats.CarnivoreDeaths,
		"kills", stats.Kills,
		"replenished", stats.Replenished,
		"herb_energy_mean", stats.HerbEnergyMean,
		"carn_energy_mean", stats.CarnEnergyMean,
	)
}

// LogPerf emits per-system timing averages for the current window.
func (s *Sim) LogPerf() {
	total := s.perf.Total()
	attrs := []any{"tick", s.tick, "total", total.Round(time.Microsecond).String()}
	for _, name := range s.perf.SortedNames() {
		attrs = append(attrs, name, s.perf.Avg(name).Round(time.Microsecond).String())
	}
	slog.Info("perf", attrs...)
}
