package domain

import "math"

// Abramowitz & Stegun 7.1.26 rational approximation coefficients.
const (
	cdfA1 = 0.254829592
	cdfA2 = -0.284496736
	cdfA3 = 1.421413741
	cdfA4 = -1.453152027
	cdfA5 = 1.061405429
	cdfP  = 0.3275911
)

// NormalCDF approximates the standard normal cumulative distribution
// function as 0.5*(1+sign(x)*y) with y = 1 - poly(t)*exp(-x²/2) and
// t = 1/(1+p*|x|). Every declaration decision is made against this exact
// curve, so it must not change between releases. Inputs beyond ±8 are
// clamped: the tails are saturated well past any z-score this engine
// produces.
func NormalCDF(x float64) float64 {
	if x < -8 {
		return 0
	}
	if x > 8 {
		return 1
	}

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	ax := math.Abs(x)

	t := 1 / (1 + cdfP*ax)
	y := 1 - (((((cdfA5*t+cdfA4)*t)+cdfA3)*t+cdfA2)*t+cdfA1)*t*math.Exp(-ax*ax/2)

	return 0.5 * (1 + sign*y)
}

// ZTestResult holds the outcome of a two-proportion z-test.
type ZTestResult struct {
	ZScore float64
	PValue float64
}

// TwoProportionZTest runs a pooled two-proportion z-test: n1/n2 are
// trials, x1/x2 successes. Zero pooled variance resolves to p=1, never an
// error: the engine fails closed toward not declaring a winner.
func TwoProportionZTest(n1, x1, n2, x2 int64) ZTestResult {
	if n1 == 0 || n2 == 0 {
		return ZTestResult{ZScore: 0, PValue: 1}
	}

	pooled := float64(x1+x2) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 {
		return ZTestResult{ZScore: 0, PValue: 1}
	}

	z := (float64(x1)/float64(n1) - float64(x2)/float64(n2)) / se
	p := 2 * (1 - NormalCDF(math.Abs(z)))

	return ZTestResult{ZScore: z, PValue: p}
}

// CompletionRate returns completions/views as a percentage rounded to two
// decimals, 0 when there are no views.
func CompletionRate(views, completions int64) float64 {
	if views == 0 {
		return 0
	}
	return math.Round(float64(completions)/float64(views)*10000) / 100
}
