package zones

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"matchfeatures/internal/telemetry"
	"matchfeatures/internal/window"
)

var base = time.Date(2024, 9, 14, 20, 0, 0, 0, time.UTC)

func sample(offset time.Duration, speed float64) telemetry.Sample {
	return telemetry.Sample{Time: base.Add(offset), Lat: 32.7, Lon: 35.0, Speed: speed, HasSpeed: true}
}

func defaultAggregator() Aggregator {
	return Aggregator{Thresholds: Thresholds{Zone5: DefaultZone5, Zone6: DefaultZone6}, SampleDelta: DefaultSampleDelta}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassify(t *testing.T) {
	th := Thresholds{Zone5: DefaultZone5, Zone6: DefaultZone6}
	cases := []struct {
		speed float64
		want  Zone
	}{
		{0, BelowZone5},
		{-1, BelowZone5},
		{math.NaN(), BelowZone5},
		{5.40, BelowZone5},
		{5.41, Zone5},
		{6.93, Zone5},
		{6.94, Zone6},
		{9.5, Zone6},
	}
	for _, c := range cases {
		if got := th.Classify(c.speed); got != c.want {
			t.Errorf("Classify(%v) = %d, want %d", c.speed, got, c.want)
		}
	}
}

func TestSumUsesNominalDelta(t *testing.T) {
	agg := defaultAggregator()
	// The gap between samples is ignored; each counts for 10ms.
	samples := []telemetry.Sample{
		sample(0, 6.0),
		sample(time.Second, 7.0),
		sample(2*time.Second, 3.0),
		{Time: base.Add(3 * time.Second), Speed: 8.0},
	}
	got := agg.Sum(samples)
	if !approx(got.Zone5Distance, 0.06) || !approx(got.Zone5Time, 0.01) {
		t.Fatalf("zone 5 = %+v", got)
	}
	if !approx(got.Zone6Distance, 0.07) || !approx(got.Zone6Time, 0.01) {
		t.Fatalf("zone 6 = %+v (missing speed must not count)", got)
	}
}

func TestAggregateByInterval(t *testing.T) {
	agg := defaultAggregator()
	intervals := []window.Interval{
		{Start: base, Duration: time.Minute},
		{Start: base.Add(time.Minute), Duration: time.Minute},
	}
	samples := []telemetry.Sample{
		sample(59*time.Second, 6.0),
		sample(time.Minute, 6.0),
		sample(90*time.Second, 7.0),
		sample(2*time.Minute, 7.0),
	}
	got := agg.Aggregate(samples, intervals)
	if len(got) != 2 {
		t.Fatalf("expected 2 totals, got %d", len(got))
	}
	if !approx(got[0].Zone5Distance, 0.06) || got[0].Zone6Time != 0 {
		t.Fatalf("first interval = %+v", got[0])
	}
	if !approx(got[1].Zone5Distance, 0.06) || !approx(got[1].Zone6Distance, 0.07) {
		t.Fatalf("second interval = %+v (sample at the end bound is excluded)", got[1])
	}
}

func TestAggregatePreservesWholeMatchDistance(t *testing.T) {
	agg := defaultAggregator()
	var samples []telemetry.Sample
	for i := 0; i < 3000; i++ {
		speed := float64(i%9) + 0.25
		samples = append(samples, sample(time.Duration(i)*100*time.Millisecond, speed))
	}
	w := window.New(window.Options{Interval: 45 * time.Second}, zerolog.Nop())
	intervals := window.Collect(w.Intervals(window.Halves{FirstStart: base, FirstEnd: base.Add(5 * time.Minute)}))

	var interval float64
	for _, tot := range agg.Aggregate(samples, intervals) {
		interval += tot.Distance()
	}

	var whole float64
	for _, s := range samples {
		if s.Speed >= DefaultZone5 {
			whole += s.Speed * DefaultSampleDelta.Seconds()
		}
	}
	if math.Abs(interval-whole) > 1e-6 {
		t.Fatalf("interval sum %f differs from whole-match sum %f", interval, whole)
	}
}

func TestCountAccelerations(t *testing.T) {
	mk := func(ms int, speed, ax float64) telemetry.Sample {
		return telemetry.Sample{
			Time: base.Add(time.Duration(ms) * time.Millisecond), Speed: speed, HasSpeed: true,
			AccelX: ax, HasAccel: true,
		}
	}
	samples := []telemetry.Sample{
		mk(0, 3.0, 4.0),
		mk(10, 3.5, 0.1),
		mk(20, 4.0, 0.1),
		mk(30, 4.5, 0.1),
		mk(40, 9.0, 5.0),
		mk(40, 9.0, 5.0),
		mk(50, 5.0, 0.1),
		mk(60, 4.0, 0.1),
	}
	acc, dec := AccelCounter{Threshold: DefaultAccelThreshold, Lookahead: 5}.Count(samples)
	if acc != 1 || dec != 1 {
		t.Fatalf("expected 1 acceleration and 1 deceleration, got %d/%d", acc, dec)
	}
}
