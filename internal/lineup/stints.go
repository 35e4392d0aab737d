package lineup

import (
	"slices"
	"time"

	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/telemetry"
)

// MissingPolicy decides what happens to a match without a published lineup.
type MissingPolicy string

const (
	// MissingSkip skips the match.
	MissingSkip MissingPolicy = "skip"
	// MissingAllPlayers counts every player file for the whole match.
	MissingAllPlayers MissingPolicy = "all_players"
)

// Stint is the span [From, To) a player spent on the pitch.
type Stint struct {
	From time.Time
	To   time.Time
}

// Trim returns the samples inside the stint. samples must be sorted by time.
func (s Stint) Trim(samples []telemetry.Sample) []telemetry.Sample {
	byTime := func(x telemetry.Sample, t time.Time) int { return x.Time.Compare(t) }
	lo, _ := slices.BinarySearchFunc(samples, s.From, byTime)
	hi, _ := slices.BinarySearchFunc(samples, s.To, byTime)
	if hi <= lo {
		return nil
	}
	return samples[lo:hi]
}

// StintOf returns the time playerID spent on the pitch and false when the
// player never came on. A nil actual treats every player as playing the whole
// match. Red cards end a stint at the dismissal.
func StintOf(actual *Actual, info matchmeta.MatchInfo, playerID string) (Stint, bool) {
	stint := Stint{From: info.FirstHalfStart, To: info.SecondHalfEnd}

	if actual != nil {
		out := -1
		if i := slices.IndexFunc(actual.Subs, func(s ReportedSub) bool { return s.Out == playerID }); i >= 0 {
			out = actual.Subs[i].Minute
		}
		if !slices.Contains(actual.Lineup, playerID) {
			i := slices.IndexFunc(actual.Subs, func(s ReportedSub) bool { return s.In == playerID })
			if i < 0 {
				return Stint{}, false
			}
			stint.From = info.MinuteToClock(actual.Subs[i].Minute)
		}
		if out >= 0 {
			stint.To = info.MinuteToClock(out)
		}
	}

	for _, card := range info.RedCards {
		if card.PlayerID == playerID && card.At.Before(stint.To) {
			stint.To = card.At
		}
	}
	return stint, true
}
