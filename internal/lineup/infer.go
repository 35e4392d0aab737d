package lineup

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// LatePolicy decides what happens to a candidate whose streak would run past
// the last bucket.
type LatePolicy string

const (
	// LateStrict skips candidates without a full streak of buckets left.
	LateStrict LatePolicy = "strict"
	// LateTruncate accepts a shorter streak that lasts until the last bucket.
	LateTruncate LatePolicy = "truncate"
)

// Substitution is an inferred or reported player change.
type Substitution struct {
	Out string
	In  string
	At  time.Time
}

// Options tune the inferrer.
type Options struct {
	Size   int
	Streak int
	Late   LatePolicy
}

// Inferrer detects substitutions from per-bucket distance rankings. Its
// output is a heuristic estimate.
type Inferrer struct {
	opts   Options
	logger zerolog.Logger
}

// NewInferrer constructs an Inferrer.
func NewInferrer(opts Options, logger zerolog.Logger) *Inferrer {
	if opts.Size <= 0 {
		opts.Size = 10
	}
	if opts.Streak <= 0 {
		opts.Streak = 3
	}
	if opts.Late == "" {
		opts.Late = LateStrict
	}
	return &Inferrer{opts: opts, logger: logger.With().Str("component", "lineup").Logger()}
}

// Infer walks the buckets in order. A player outside the current lineup who
// has never played enters after ranking in the top Size for Streak
// consecutive buckets, replacing the first lineup member, by id, missing
// from the current bucket's top. At most one change is made per bucket.
func (in *Inferrer) Infer(buckets []Bucket, lineup []string) []Substitution {
	current := make(map[string]bool, len(lineup))
	played := make(map[string]bool, len(lineup))
	for _, id := range lineup {
		current[id] = true
		played[id] = true
	}

	tops := make([]map[string]bool, len(buckets))
	for i, b := range buckets {
		tops[i] = make(map[string]bool, in.opts.Size)
		for _, id := range b.Top(in.opts.Size) {
			tops[i][id] = true
		}
	}

	var subs []Substitution
	for i, b := range buckets {
		candidates := make([]string, 0)
		for id := range tops[i] {
			if !current[id] && !played[id] {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		slices.Sort(candidates)

		for _, candidate := range candidates {
			if !in.holdsStreak(tops, i, candidate) {
				continue
			}
			out, ok := firstMissing(current, tops[i])
			if !ok {
				continue
			}
			subs = append(subs, Substitution{Out: out, In: candidate, At: b.Start})
			delete(current, out)
			current[candidate] = true
			played[candidate] = true
			in.logger.Debug().Str("out", out).Str("in", candidate).Time("at", b.Start).Msg("substitution inferred")
			break
		}
	}
	return subs
}

func (in *Inferrer) holdsStreak(tops []map[string]bool, i int, player string) bool {
	end := i + in.opts.Streak
	if end > len(tops) {
		if in.opts.Late != LateTruncate {
			return false
		}
		end = len(tops)
	}
	for j := i; j < end; j++ {
		if !tops[j][player] {
			return false
		}
	}
	return true
}

func firstMissing(current, top map[string]bool) (string, bool) {
	var out string
	found := false
	for id := range current {
		if top[id] {
			continue
		}
		if !found || id < out {
			out = id
			found = true
		}
	}
	return out, found
}
