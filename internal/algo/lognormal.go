// Package algo provides the log-normal distribution used to model
// multiplicative travel-time noise for scenario sampling (see
// internal/scenario): if a nominal travel duration is d, a sampled
// scenario's actual duration is d * X for X ~ LogNormal(mu, sigma), which
// keeps durations positive and right-skewed the way real travel delays are.
package algo

import (
	"math"
	"math/rand"
)

// LogNormalDist represents a LogNormal distribution.
// If X ~ LogNormal(μ, σ), then ln(X) ~ Normal(μ, σ).
type LogNormalDist struct {
	Mu    float64 // Location parameter (mean of ln(X))
	Sigma float64 // Scale parameter (std dev of ln(X))
}

// NewLogNormalFromMeanStd creates a LogNormal from the mean and std of the
// multiplier X itself (not ln(X)) — the parameterization a caller picking a
// "mean 1.0, std 0.25" travel-time multiplier actually wants to write down.
func NewLogNormalFromMeanStd(mean, std float64) LogNormalDist {
	if mean <= 0 || std < 0 {
		return LogNormalDist{Mu: 0, Sigma: 0}
	}

	// Derive μ and σ from E[X] and Var[X]
	// E[X] = exp(μ + σ²/2)
	// Var[X] = exp(2μ + σ²)(exp(σ²) - 1)
	variance := std * std
	sigma2 := math.Log(1 + variance/(mean*mean))
	sigma := math.Sqrt(sigma2)
	mu := math.Log(mean) - sigma2/2

	return LogNormalDist{Mu: mu, Sigma: sigma}
}

// Mean returns E[X] for X ~ LogNormal(μ, σ).
func (d LogNormalDist) Mean() float64 {
	return math.Exp(d.Mu + d.Sigma*d.Sigma/2)
}

// Variance returns Var[X].
func (d LogNormalDist) Variance() float64 {
	sigma2 := d.Sigma * d.Sigma
	return math.Exp(2*d.Mu+sigma2) * (math.Exp(sigma2) - 1)
}

// Std returns standard deviation.
func (d LogNormalDist) Std() float64 {
	return math.Sqrt(d.Variance())
}

// Median returns the median of the distribution.
func (d LogNormalDist) Median() float64 {
	return math.Exp(d.Mu)
}

// Mode returns the mode (most likely value).
func (d LogNormalDist) Mode() float64 {
	return math.Exp(d.Mu - d.Sigma*d.Sigma)
}

// Sample generates a random sample from the distribution.
func (d LogNormalDist) Sample(rng *rand.Rand) float64 {
	// Generate Normal(μ, σ) then exponentiate
	normal := rng.NormFloat64()*d.Sigma + d.Mu
	return math.Exp(normal)
}

// PDF returns the probability density at x.
func (d LogNormalDist) PDF(x float64) float64 {
	if x <= 0 {
		return 0
	}

	lnX := math.Log(x)
	z := (lnX - d.Mu) / d.Sigma

	return math.Exp(-z*z/2) / (x * d.Sigma * math.Sqrt(2*math.Pi))
}

// CDF returns P(X <= x).
func (d LogNormalDist) CDF(x float64) float64 {
	if x <= 0 {
		return 0
	}

	z := (math.Log(x) - d.Mu) / d.Sigma
	return normalCDF(z)
}

// Quantile returns x such that P(X <= x) = p.
func (d LogNormalDist) Quantile(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return math.Inf(1)
	}

	z := normalQuantile(p)
	return math.Exp(d.Mu + d.Sigma*z)
}

// normalCDF computes the standard normal CDF using the error function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt(2)))
}

// normalQuantile computes the inverse standard normal CDF (probit function).
// Uses Abramowitz and Stegun approximation.
func normalQuantile(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	if p >= 1 {
		return math.Inf(1)
	}
	if p == 0.5 {
		return 0
	}

	// Rational approximation for lower region
	if p < 0.5 {
		return -rationalApproxForNormalQuantile(math.Sqrt(-2 * math.Log(p)))
	}
	return rationalApproxForNormalQuantile(math.Sqrt(-2 * math.Log(1-p)))
}

func rationalApproxForNormalQuantile(t float64) float64 {
	// Coefficients from Abramowitz and Stegun
	c := []float64{2.515517, 0.802853, 0.010328}
	d := []float64{1.432788, 0.189269, 0.001308}

	return t - (c[0]+c[1]*t+c[2]*t*t)/(1+d[0]*t+d[1]*t*t+d[2]*t*t*t)
}
