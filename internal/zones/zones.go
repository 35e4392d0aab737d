// Package zones accumulates high-speed running per interval.
package zones

import (
	"math"
	"sort"
	"time"

	"matchfeatures/internal/telemetry"
	"matchfeatures/internal/window"
)

// Zone is a speed band.
type Zone int

const (
	BelowZone5 Zone = iota
	Zone5
	Zone6
)

// Default speed thresholds in m/s.
const (
	DefaultZone5 = 5.41
	DefaultZone6 = 6.94
)

// DefaultSampleDelta is the nominal per-sample duration of a 100 Hz export.
const DefaultSampleDelta = 10 * time.Millisecond

// Thresholds are the lower bounds of zone 5 and zone 6.
type Thresholds struct {
	Zone5 float64
	Zone6 float64
}

// Classify places a speed into a zone. NaN and negative speeds are below zone 5.
func (t Thresholds) Classify(speed float64) Zone {
	switch {
	case math.IsNaN(speed) || speed < t.Zone5:
		return BelowZone5
	case speed < t.Zone6:
		return Zone5
	default:
		return Zone6
	}
}

// Totals are the zone sums of one interval.
type Totals struct {
	Zone5Distance float64
	Zone5Time     float64
	Zone6Distance float64
	Zone6Time     float64
}

// Add accumulates o into t.
func (t *Totals) Add(o Totals) {
	t.Zone5Distance += o.Zone5Distance
	t.Zone5Time += o.Zone5Time
	t.Zone6Distance += o.Zone6Distance
	t.Zone6Time += o.Zone6Time
}

// Distance is the zone 5 plus zone 6 distance.
func (t Totals) Distance() float64 {
	return t.Zone5Distance + t.Zone6Distance
}

// Aggregator sums zone distance and time. Every sample counts for SampleDelta
// regardless of the gap to its neighbours.
type Aggregator struct {
	Thresholds  Thresholds
	SampleDelta time.Duration
}

// Sum accumulates the samples without looking at their timestamps.
func (a Aggregator) Sum(samples []telemetry.Sample) Totals {
	dt := a.SampleDelta.Seconds()
	var out Totals
	for _, s := range samples {
		if !s.HasSpeed {
			continue
		}
		switch a.Thresholds.Classify(s.Speed) {
		case Zone5:
			out.Zone5Distance += s.Speed * dt
			out.Zone5Time += dt
		case Zone6:
			out.Zone6Distance += s.Speed * dt
			out.Zone6Time += dt
		}
	}
	return out
}

// Aggregate returns one Totals per interval, in interval order. samples must
// be sorted by time.
func (a Aggregator) Aggregate(samples []telemetry.Sample, intervals []window.Interval) []Totals {
	out := make([]Totals, len(intervals))
	for i, iv := range intervals {
		out[i] = a.Sum(Within(samples, iv))
	}
	return out
}

// Within returns the sub-slice of time-sorted samples inside iv.
func Within(samples []telemetry.Sample, iv window.Interval) []telemetry.Sample {
	lo := sort.Search(len(samples), func(i int) bool { return !samples[i].Time.Before(iv.Start) })
	end := iv.End()
	hi := sort.Search(len(samples), func(i int) bool { return !samples[i].Time.Before(end) })
	if lo >= hi {
		return nil
	}
	return samples[lo:hi]
}
