package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowEndTick int64   `csv:"window_end"`
	SimTimeSec    float64 `csv:"sim_time"`

	// Population counts at window end
	Producers  int `csv:"producers"`
	Herbivores int `csv:"herbivores"`
	Carnivores int `csv:"carnivores"`

	// Events during window
	ProducerBirths  int `csv:"producer_births"`
	HerbivoreBirths int `csv:"herbivore_births"`
	CarnivoreBirths int `csv:"carnivore_births"`
	ProducerDeaths  int `csv:"producer_deaths"`
	HerbivoreDeaths int `csv:"herbivore_deaths"`
	CarnivoreDeaths int `csv:"carnivore_deaths"`
	Kills           int `csv:"kills"`
	Replenished     int `csv:"replenished"`

	// Energy distribution (sampled at window end)
	HerbEnergyMean float64 `csv:"herb_energy_mean"`
	HerbEnergyP10  float64 `csv:"herb_energy_p10"`
	HerbEnergyP50  float64 `csv:"herb_energy_p50"`
	HerbEnergyP90  float64 `csv:"herb_energy_p90"`

	CarnEnergyMean float64 `csv:"carn_energy_mean"`
	CarnEnergyP10  float64 `csv:"carn_energy_p10"`
	CarnEnergyP50  float64 `csv:"carn_energy_p50"`
	CarnEnergyP90  float64 `csv:"carn_energy_p90"`
}

// EnergySummary condenses an energy sample into mean and percentiles.
type EnergySummary struct {
	Mean, P10, P50, P90 float64
}

// Summarize computes the energy summary for a sample. The sample slice is
// sorted in place. An empty sample yields zeros.
func Summarize(sample []float64) EnergySummary {
	if len(sample) == 0 {
		return EnergySummary{}
	}
	sort.Float64s(sample)
	return EnergySummary{
		Mean: stat.Mean(sample, nil),
		P10:  stat.Quantile(0.10, stat.Empirical, sample, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sample, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sample, nil),
	}
}
