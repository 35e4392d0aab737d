package zones

import (
	"math"
	"time"

	"matchfeatures/internal/telemetry"
)

// DefaultAccelThreshold is the acceleration magnitude in m/s² that marks an effort.
const DefaultAccelThreshold = 3.0

// AccelCounter classifies high-magnitude accelerometer readings into
// accelerations and decelerations by the trend of the following speeds.
type AccelCounter struct {
	Threshold float64
	Lookahead int
}

type accelPoint struct {
	magnitude float64
	speed     float64
}

// Count returns the number of accelerations and decelerations in samples.
// Samples sharing the same millisecond are averaged first.
func (c AccelCounter) Count(samples []telemetry.Sample) (accelerations, decelerations int) {
	points := c.collapse(samples)
	for i, p := range points {
		if p.magnitude < c.Threshold || math.IsNaN(p.speed) {
			continue
		}
		end := min(len(points), i+1+c.Lookahead)
		higher, lower := 0, 0
		for _, next := range points[i+1 : end] {
			switch {
			case next.speed > p.speed:
				higher++
			case next.speed < p.speed:
				lower++
			}
		}
		switch {
		case higher > lower:
			accelerations++
		case lower > higher:
			decelerations++
		}
	}
	return accelerations, decelerations
}

func (c AccelCounter) collapse(samples []telemetry.Sample) []accelPoint {
	var (
		points                []accelPoint
		current               time.Time
		n, nSpeed             int
		sx, sy, sz, sumSpeeds float64
	)
	flush := func() {
		if n == 0 {
			return
		}
		x, y, z := sx/float64(n), sy/float64(n), sz/float64(n)
		speed := math.NaN()
		if nSpeed > 0 {
			speed = sumSpeeds / float64(nSpeed)
		}
		points = append(points, accelPoint{magnitude: math.Sqrt(x*x + y*y + z*z), speed: speed})
	}

	for _, s := range samples {
		if !s.HasAccel {
			continue
		}
		ms := s.Time.Truncate(time.Millisecond)
		if n > 0 && !ms.Equal(current) {
			flush()
			n, nSpeed = 0, 0
			sx, sy, sz, sumSpeeds = 0, 0, 0, 0
		}
		current = ms
		n++
		sx += s.AccelX
		sy += s.AccelY
		sz += s.AccelZ
		if s.HasSpeed {
			nSpeed++
			sumSpeeds += s.Speed
		}
	}
	flush()
	return points
}
