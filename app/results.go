package app

import (
	"context"
	"fmt"
	"math"

	"gosplit/domain/core"
	"gosplit/domain/experiment"
	"gosplit/domain/stats"
)

// GetResults computes live results for a running experiment or final
// results for a completed one. An experiment with no participants yields
// a zero-count result with no winner; absence of data is representable,
// not an error.
func (c *Core) GetResults(ctx context.Context, testID core.TestID) (*experiment.Results, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	exp, ok := c.snap.Tests[testID]
	if !ok {
		return nil, core.NewNotFoundError("experiment", testID.String())
	}
	return c.computeLocked(exp), nil
}

// computeLocked aggregates the event log into per-variant metrics,
// winner determination, guardrail checks and a recommendation. The
// caller must hold c.mu (read or write); the computation itself never
// mutates the snapshot.
func (c *Core) computeLocked(exp *experiment.Experiment) *experiment.Results {
	now := c.now()
	testEvents := make([]*experiment.Event, 0)
	for _, ev := range c.snap.Events {
		if ev.TestID == exp.ID {
			testEvents = append(testEvents, ev)
		}
	}

	// exposures and per-metric conversion counts per variant
	exposures := make(map[core.VariantID]int)
	conversions := make(map[core.VariantID]map[string]int)
	metricValues := make(map[core.VariantID]map[string][]float64)
	for _, v := range exp.Variants {
		conversions[v.ID] = make(map[string]int)
		metricValues[v.ID] = make(map[string][]float64)
	}
	for _, ev := range testEvents {
		switch ev.Type {
		case experiment.EventExposure:
			exposures[ev.VariantID]++
		default:
			conversions[ev.VariantID][ev.Name]++
			metricValues[ev.VariantID][ev.Name] = append(metricValues[ev.VariantID][ev.Name], ev.Value)
		}
	}

	control := exp.Control()
	tracked := exp.Metrics.TrackedMetrics()
	alpha := exp.Statistical.SignificanceLevel
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	results := &experiment.Results{
		TestID:       exp.ID,
		DurationDays: durationDays(exp, now),
		ComputedAt:   now,
	}
	results.ParticipantCount = len(c.snap.Participants[exp.ID])

	variantResults := make([]experiment.VariantResult, 0, len(exp.Variants))
	for _, v := range exp.Variants {
		vr := experiment.VariantResult{
			VariantID: v.ID,
			Name:      v.Name,
			IsControl: v.IsControl,
			Metrics:   make(map[string]experiment.MetricResult, len(tracked)),
		}

		for _, metric := range tracked {
			mr := metricResultFor(v.ID, metric, exposures, conversions)

			if !v.IsControl {
				cm := metricResultFor(control.ID, metric, exposures, conversions)
				sig := compareProportions(cm, mr, alpha)
				mr.PValue = sig.PValue
				mr.Confidence = (1 - sig.PValue) * 100
				mr.SignificantlyDifferent = sig.Significant
				if cm.Value > 0 {
					mr.ImprovementPct = (mr.Value - cm.Value) / cm.Value * 100
				}
			}

			vr.Metrics[metric] = mr
		}
		variantResults = append(variantResults, vr)
	}
	results.Variants = variantResults

	results.Winner = pickWinner(variantResults, exp.Metrics.Primary)
	results.Recommendations = append(results.Recommendations,
		guardrailWarnings(exp, exposures, conversions, metricValues)...)
	results.Summary = summarize(exp, results)

	return results
}

// metricResultFor builds the count-and-rate cell for one variant/metric
func metricResultFor(variantID core.VariantID, metric string, exposures map[core.VariantID]int, conversions map[core.VariantID]map[string]int) experiment.MetricResult {
	exp := exposures[variantID]
	conv := conversions[variantID][metric]
	cm := stats.Conversion(conv, exp)
	return experiment.MetricResult{
		Exposures:              exp,
		Conversions:            conv,
		Value:                  cm.Rate,
		StandardError:          cm.StandardError,
		ConfidenceIntervalLow:  cm.ConfidenceIntervalLow,
		ConfidenceIntervalHigh: cm.ConfidenceIntervalHigh,
		PValue:                 1,
	}
}

// compareProportions runs Welch's t-test on two conversion proportions,
// treating each exposure as a Bernoulli observation.
func compareProportions(control, treatment experiment.MetricResult, alpha float64) stats.SignificanceResult {
	sdC := bernoulliSD(control.Value)
	sdT := bernoulliSD(treatment.Value)
	return stats.Welch(control.Value, sdC, control.Exposures, treatment.Value, sdT, treatment.Exposures, alpha)
}

func bernoulliSD(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return math.Sqrt(p * (1 - p))
}

// pickWinner selects the non-control variant with the largest positive,
// significant improvement on the primary metric.
func pickWinner(variants []experiment.VariantResult, primary string) *experiment.Winner {
	var winner *experiment.Winner
	for _, vr := range variants {
		if vr.IsControl {
			continue
		}
		mr, ok := vr.Metrics[primary]
		if !ok || !mr.SignificantlyDifferent || mr.ImprovementPct <= 0 {
			continue
		}
		if winner == nil || mr.ImprovementPct > winner.Improvement {
			winner = &experiment.Winner{
				VariantID:   vr.VariantID,
				Confidence:  mr.Confidence,
				Improvement: mr.ImprovementPct,
				Metric:      primary,
			}
		}
	}
	return winner
}

// guardrailWarnings evaluates every configured guardrail against every
// variant. A violation becomes a textual warning; it never suppresses
// other recommendations, including a winner on the primary metric.
func guardrailWarnings(exp *experiment.Experiment, exposures map[core.VariantID]int, conversions map[core.VariantID]map[string]int, metricValues map[core.VariantID]map[string][]float64) []string {
	var warnings []string
	for _, g := range exp.Metrics.Guardrails {
		for _, v := range exp.Variants {
			value, ok := guardrailValue(v.ID, g.Metric, exp, exposures, conversions, metricValues)
			if !ok {
				continue
			}
			if guardrailViolated(value, g) {
				warnings = append(warnings, fmt.Sprintf(
					"guardrail violation: variant %q has %s = %.4f (%s %.4f)",
					v.Name, g.Metric, value, g.Operator, g.Threshold))
			}
		}
	}
	return warnings
}

// guardrailValue resolves the observed value for a guardrail metric on a
// variant: conversion rate when the metric is tracked, mean event value
// otherwise.
func guardrailValue(variantID core.VariantID, metric string, exp *experiment.Experiment, exposures map[core.VariantID]int, conversions map[core.VariantID]map[string]int, metricValues map[core.VariantID]map[string][]float64) (float64, bool) {
	if exp.Metrics.IsConversionMetric(metric) {
		if exposures[variantID] == 0 {
			return 0, false
		}
		return stats.Conversion(conversions[variantID][metric], exposures[variantID]).Rate, true
	}
	values := metricValues[variantID][metric]
	if len(values) == 0 {
		return 0, false
	}
	return stats.Mean(values), true
}

// guardrailViolated reports whether the observed value crosses the
// guardrail's threshold in the configured direction.
func guardrailViolated(value float64, g experiment.Guardrail) bool {
	switch g.Operator {
	case experiment.OpGreaterThan:
		return value > g.Threshold
	case experiment.OpLessThan:
		return value < g.Threshold
	case experiment.OpEqual:
		return value == g.Threshold
	default:
		return false
	}
}

// summarize applies the recommendation decision table
func summarize(exp *experiment.Experiment, results *experiment.Results) experiment.StatisticalSummary {
	summary := experiment.StatisticalSummary{
		Recommendation: experiment.RecommendInconclusive,
	}

	if w := results.Winner; w != nil {
		summary.IsStatisticallySignificant = true
		summary.ConfidenceLevel = w.Confidence
		summary.Effect = w.Improvement

		switch {
		case w.Confidence > 95 && w.Improvement > 5:
			summary.Recommendation = experiment.RecommendImplementWinner
		default:
			summary.Recommendation = experiment.RecommendInconclusive
		}
		return summary
	}

	if results.ParticipantCount < exp.Statistical.MinimumSampleSize {
		summary.Recommendation = experiment.RecommendContinueTest
	}
	return summary
}

// durationDays measures the experiment's runtime in days, using the end
// date for completed experiments and now otherwise.
func durationDays(exp *experiment.Experiment, now core.Timestamp) float64 {
	if exp.StartDate.IsZero() {
		return 0
	}
	end := now
	if exp.EndDate != nil {
		end = *exp.EndDate
	}
	return end.Time().Sub(exp.StartDate.Time()).Hours() / 24
}
