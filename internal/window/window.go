// Package window slices a match into fixed-length, half-aware intervals.
package window

import (
	"iter"
	"time"

	"github.com/rs/zerolog"
)

// Half identifies the half an interval belongs to.
type Half int

const (
	FirstHalf  Half = 1
	SecondHalf Half = 2
)

// Halves carries the four half boundaries of a match.
type Halves struct {
	FirstStart  time.Time
	FirstEnd    time.Time
	SecondStart time.Time
	SecondEnd   time.Time
}

// Interval is a half-open [Start, Start+Duration) bucket.
type Interval struct {
	Start    time.Time
	Duration time.Duration
	Half     Half
}

// End returns the exclusive end of the interval.
func (iv Interval) End() time.Time {
	return iv.Start.Add(iv.Duration)
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End())
}

// Options tune windower behaviour.
type Options struct {
	Interval time.Duration
}

// Windower produces the interval grid of a match.
type Windower struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Windower.
func New(opts Options, logger zerolog.Logger) *Windower {
	return &Windower{opts: opts, logger: logger.With().Str("component", "window").Logger()}
}

// Intervals yields the intervals of the first half followed by those of the
// second half. The last interval of each half ends exactly at the half end.
// A half whose end is not after its start yields nothing.
func (w *Windower) Intervals(h Halves) iter.Seq[Interval] {
	return func(yield func(Interval) bool) {
		if w.opts.Interval <= 0 {
			w.logger.Warn().Dur("interval", w.opts.Interval).Msg("non-positive interval; no windows produced")
			return
		}
		if !w.half(FirstHalf, h.FirstStart, h.FirstEnd, yield) {
			return
		}
		w.half(SecondHalf, h.SecondStart, h.SecondEnd, yield)
	}
}

func (w *Windower) half(half Half, start, end time.Time, yield func(Interval) bool) bool {
	if !end.After(start) {
		w.logger.Debug().Int("half", int(half)).Time("start", start).Time("end", end).Msg("empty half")
		return true
	}
	for current := start; current.Before(end); current = current.Add(w.opts.Interval) {
		next := current.Add(w.opts.Interval)
		if next.After(end) {
			next = end
		}
		if !yield(Interval{Start: current, Duration: next.Sub(current), Half: half}) {
			return false
		}
	}
	return true
}

// Collect materialises the interval sequence.
func Collect(seq iter.Seq[Interval]) []Interval {
	var out []Interval
	for iv := range seq {
		out = append(out, iv)
	}
	return out
}
