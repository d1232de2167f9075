package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ConversionMetrics summarizes a single variant's conversion performance
type ConversionMetrics struct {
	Rate                   float64 `json:"rate"`
	StandardError          float64 `json:"standard_error"`
	ConfidenceIntervalLow  float64 `json:"confidence_interval_low"`
	ConfidenceIntervalHigh float64 `json:"confidence_interval_high"`
}

// SignificanceResult is the outcome of a two-sample comparison
type SignificanceResult struct {
	TStatistic       float64 `json:"t_statistic"`
	DegreesOfFreedom float64 `json:"degrees_of_freedom"`
	PValue           float64 `json:"p_value"`
	EffectSize       float64 `json:"effect_size"`
	Significant      bool    `json:"significant"`
}

// z-score for a two-sided 95% interval
const z95 = 1.96

// Conversion computes rate, standard error and a 95% confidence interval
// for conversions out of exposures. Zero exposures yields the zero
// result rather than an error: absence of data is representable.
func Conversion(conversions, exposures int) ConversionMetrics {
	if exposures <= 0 {
		return ConversionMetrics{}
	}

	rate := float64(conversions) / float64(exposures)
	se := math.Sqrt(rate * (1 - rate) / float64(exposures))

	return ConversionMetrics{
		Rate:                   rate,
		StandardError:          se,
		ConfidenceIntervalLow:  math.Max(0, rate-z95*se),
		ConfidenceIntervalHigh: math.Min(1, rate+z95*se),
	}
}

// Welch performs Welch's two-sample t-test for unequal variances.
// Degrees of freedom come from the Welch-Satterthwaite equation and the
// two-tailed p-value from the exact Student's t CDF. Significant is
// pValue < alpha; pass 0.05 when the experiment has no configured
// significance level.
func Welch(meanA, sdA float64, nA int, meanB, sdB float64, nB int, alpha float64) SignificanceResult {
	if nA < 2 || nB < 2 {
		return SignificanceResult{PValue: 1}
	}

	fnA, fnB := float64(nA), float64(nB)
	varA, varB := sdA*sdA, sdB*sdB

	se := math.Sqrt(varA/fnA + varB/fnB)
	if se == 0 {
		// identical constant samples carry no evidence either way
		return SignificanceResult{PValue: 1}
	}

	t := (meanB - meanA) / se

	// Welch-Satterthwaite degrees of freedom
	df := math.Pow(varA/fnA+varB/fnB, 2) /
		(math.Pow(varA/fnA, 2)/(fnA-1) + math.Pow(varB/fnB, 2)/(fnB-1))

	p := tTestPValue(t, df)

	// Cohen's d with pooled standard deviation
	pooledSD := math.Sqrt(((fnA-1)*varA + (fnB-1)*varB) / (fnA + fnB - 2))
	d := 0.0
	if pooledSD > 0 {
		d = (meanB - meanA) / pooledSD
	}

	return SignificanceResult{
		TStatistic:       t,
		DegreesOfFreedom: df,
		PValue:           p,
		EffectSize:       d,
		Significant:      p < alpha,
	}
}

// tTestPValue computes the two-tailed p-value for a t-statistic
func tTestPValue(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - tDist.CDF(math.Abs(t)))
	// guard against floating error pushing past the bounds
	return math.Min(1, math.Max(0, p))
}

// RequiredSampleSize returns the per-variant sample size for a classic
// two-proportion test: baseline is the assumed control conversion rate,
// mde the minimum detectable relative effect, alpha the significance
// level and power the target power. The result is a planning aid, not a
// gate; tests may be stopped early.
func RequiredSampleSize(baseline, mde, alpha, power float64) int {
	if baseline <= 0 || baseline >= 1 || mde <= 0 || alpha <= 0 || alpha >= 1 || power <= 0 || power >= 1 {
		return 0
	}

	p1 := baseline
	p2 := p1 * (1 + mde)
	if p2 >= 1 {
		p2 = 0.999
	}
	pBar := (p1 + p2) / 2

	zAlpha := distuv.UnitNormal.Quantile(1 - alpha/2)
	zBeta := distuv.UnitNormal.Quantile(power)

	numerator := math.Pow(
		zAlpha*math.Sqrt(2*pBar*(1-pBar))+zBeta*math.Sqrt(p1*(1-p1)+p2*(1-p2)),
		2,
	)

	return int(math.Ceil(numerator / math.Pow(p2-p1, 2)))
}
