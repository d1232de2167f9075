package stats

import (
	"github.com/montanaflynn/stats"
)

// Mean returns the arithmetic mean, 0 for an empty sample
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// SampleStdDev returns the sample standard deviation, 0 for n < 2
func SampleStdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return 0
	}
	return sd
}
