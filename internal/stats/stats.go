// Package stats computes the summary block the driver reports at the
// end of a run: per-epoch latency samples reduced to
// count/total/min/max/median/average/stddev.
package stats

import (
	"math"
	"sort"
	"time"
)

// Statistics summarizes a set of latency samples.
type Statistics struct {
	Count     int
	Total     time.Duration
	Minimum   time.Duration
	Maximum   time.Duration
	Average   time.Duration
	Median    time.Duration
	Deviation time.Duration
}

// Observation is the first-seen/last-seen pair the driver records for
// one epoch: first-seen is when the pipeline first touched that
// epoch's capability, last-seen is the most recent touch.
type Observation struct {
	First time.Time
	Last  time.Time
}

// FromObservations computes Statistics the way the driver's latency
// report does: per-epoch latency is Last-First for that epoch, but the
// reported Total is the wall span between the earliest First and the
// latest Last across every observation — not the sum of latencies,
// since epoch observations can overlap in time.
func FromObservations(obs []Observation) Statistics {
	if len(obs) == 0 {
		return Statistics{}
	}
	min, max := obs[0].First, obs[0].Last
	latencies := make([]time.Duration, len(obs))
	for i, o := range obs {
		if o.First.Before(min) {
			min = o.First
		}
		if o.Last.After(max) {
			max = o.Last
		}
		latencies[i] = o.Last.Sub(o.First)
	}
	s := FromDurations(latencies)
	s.Total = max.Sub(min)
	return s
}

// FromDurations reduces a set of duration samples to the summary
// fields, with Total as the plain sum — used by FromObservations
// before its Total gets overwritten with the wall span.
func FromDurations(samples []time.Duration) Statistics {
	if len(samples) == 0 {
		return Statistics{}
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	min, max := sorted[0], sorted[0]
	for _, d := range sorted {
		total += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	count := len(sorted)
	average := total / time.Duration(count)

	var sqDiff float64
	for _, d := range sorted {
		diff := float64(d - average)
		sqDiff += diff * diff
	}
	deviation := time.Duration(math.Sqrt(sqDiff / float64(count)))

	median := sorted[count/2]

	return Statistics{
		Count:     count,
		Total:     total,
		Minimum:   min,
		Maximum:   max,
		Average:   average,
		Median:    median,
		Deviation: deviation,
	}
}
