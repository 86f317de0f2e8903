package benders

import (
	"math"

	"github.com/elektrokombinacija/itags-scheduler/internal/algo"
)

// MakespanSummary reports the stochastic makespan distribution fitted to
// the selected scenarios' evaluated makespans (SPEC_FULL.md §4.4
// "Outputs": "an aggregated value (mean/tail)"), moment-matched to a
// LogNormal the same way internal/scenario fits the travel-time
// multiplier itself.
type MakespanSummary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Mode   float64 `json:"mode"`
	P90    float64 `json:"p90"`
	P95    float64 `json:"p95"`
}

// fitMakespanDistribution moment-matches a LogNormal to a set of
// per-scenario makespans. Needs at least two samples to estimate a
// spread; a single sample degenerates to a point distribution (zero
// std).
func fitMakespanDistribution(values []float64) algo.LogNormalDist {
	n := float64(len(values))
	if n == 0 {
		return algo.LogNormalDist{}
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= n

	std := 0.0
	if n > 1 {
		var sumSq float64
		for _, v := range values {
			d := v - mean
			sumSq += d * d
		}
		std = math.Sqrt(sumSq / (n - 1))
	}
	return algo.NewLogNormalFromMeanStd(mean, std)
}

// summarizeMakespans fits the selected scenarios' makespan distribution
// and reports its summary statistics.
func summarizeMakespans(values []float64) MakespanSummary {
	dist := fitMakespanDistribution(values)
	return MakespanSummary{
		Mean:   dist.Mean(),
		Std:    dist.Std(),
		Median: dist.Median(),
		Mode:   dist.Mode(),
		P90:    dist.Quantile(0.90),
		P95:    dist.Quantile(0.95),
	}
}

// DeadlineRisk reports the fitted makespan distribution's probability of
// finishing by deadline and the density there, the two numbers a caller
// needs to judge both how likely a deadline is to be met and how
// sensitive that likelihood is to moving the deadline.
type DeadlineRisk struct {
	Deadline              float64 `json:"deadline"`
	ProbabilityWithinTime float64 `json:"probability_within_time"`
	DensityAtDeadline     float64 `json:"density_at_deadline"`
}

// deadlineRisk evaluates the fitted makespan distribution at deadline.
func deadlineRisk(values []float64, deadline float64) DeadlineRisk {
	dist := fitMakespanDistribution(values)
	return DeadlineRisk{
		Deadline:              deadline,
		ProbabilityWithinTime: dist.CDF(deadline),
		DensityAtDeadline:     dist.PDF(deadline),
	}
}
