// Package xpoints estimates expected points from shot xG by Monte Carlo
// simulation.
package xpoints

import (
	"cmp"
	"errors"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"matchfeatures/internal/events"
)

// ErrNoTeams is returned for event logs that do not name both teams.
var ErrNoTeams = errors.New("xpoints: event log does not name home and away teams")

// Model is a goal-scoring model.
type Model string

const (
	// Binomial draws one Bernoulli goal per possession.
	Binomial Model = "Binomial"
	// Poisson draws the goal count from the summed possession probabilities.
	Poisson Model = "Poisson"
)

// Models lists the models in output order.
var Models = []Model{Binomial, Poisson}

// Outcome holds result probabilities from the home side's point of view.
type Outcome struct {
	HomeWin float64
	Draw    float64
	AwayWin float64
}

// ExpectedPoints returns 3*win + draw for team.
func ExpectedPoints(team, home string, o Outcome) float64 {
	if team == home {
		return 3*o.HomeWin + o.Draw
	}
	return 3*o.AwayWin + o.Draw
}

type possessionKey struct {
	possession string
	team       string
}

// PossessionProbabilities returns per team the scoring probability of each
// possession, 1 - Π(1 - xG) over its shots, ordered by possession number.
func PossessionProbabilities(records []events.Record) map[string][]float64 {
	miss := make(map[possessionKey]float64)
	var keys []possessionKey
	for _, rec := range records {
		k := possessionKey{possession: rec.Possession, team: rec.Team}
		if _, ok := miss[k]; !ok {
			miss[k] = 1
			keys = append(keys, k)
		}
		miss[k] *= 1 - rec.XG.InexactFloat64()
	}

	slices.SortFunc(keys, func(a, b possessionKey) int {
		if c := comparePossession(a.possession, b.possession); c != 0 {
			return c
		}
		return cmp.Compare(a.team, b.team)
	})

	out := make(map[string][]float64)
	for _, k := range keys {
		out[k.team] = append(out[k.team], 1-miss[k])
	}
	return out
}

func comparePossession(a, b string) int {
	ai, aerr := strconv.ParseFloat(a, 64)
	bi, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}

// Simulate runs both models. All binomial draws come before the Poisson ones
// so a seeded rng reproduces the same outcomes.
func Simulate(pHome, pAway []float64, runs int, rng *rand.Rand) (binomial, poisson Outcome) {
	if runs <= 0 {
		return Outcome{}, Outcome{}
	}

	homeB := make([]int, runs)
	awayB := make([]int, runs)
	for i := range runs {
		homeB[i] = bernoulliGoals(pHome, rng)
	}
	for i := range runs {
		awayB[i] = bernoulliGoals(pAway, rng)
	}
	binomial = tally(homeB, awayB)

	lambdaHome, lambdaAway := sum(pHome), sum(pAway)
	homeP := make([]int, runs)
	awayP := make([]int, runs)
	for i := range runs {
		homeP[i] = poissonDraw(lambdaHome, rng)
	}
	for i := range runs {
		awayP[i] = poissonDraw(lambdaAway, rng)
	}
	poisson = tally(homeP, awayP)
	return binomial, poisson
}

func bernoulliGoals(ps []float64, rng *rand.Rand) int {
	goals := 0
	for _, p := range ps {
		if rng.Float64() < p {
			goals++
		}
	}
	return goals
}

// poissonDraw uses Knuth's multiplication method; match xG totals are small.
func poissonDraw(lambda float64, rng *rand.Rand) int {
	if lambda <= 0 {
		return 0
	}
	limit := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func tally(home, away []int) Outcome {
	var o Outcome
	n := float64(len(home))
	for i := range home {
		switch {
		case home[i] > away[i]:
			o.HomeWin++
		case home[i] < away[i]:
			o.AwayWin++
		default:
			o.Draw++
		}
	}
	o.HomeWin /= n
	o.Draw /= n
	o.AwayWin /= n
	return o
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

// MatchResult is the simulated outcome of one match.
type MatchResult struct {
	Home     string
	Away     string
	Binomial Outcome
	Poisson  Outcome
}

// Outcome returns the outcome under model.
func (r MatchResult) Outcome(model Model) Outcome {
	if model == Poisson {
		return r.Poisson
	}
	return r.Binomial
}

// Simulator runs seeded match simulations.
type Simulator struct {
	Runs int
	Seed uint64
}

// Match simulates one match from its event log. Every call starts from the
// same seed.
func (s Simulator) Match(records []events.Record) (MatchResult, error) {
	home, away, ok := events.Teams(records)
	if !ok {
		return MatchResult{}, ErrNoTeams
	}
	probs := PossessionProbabilities(records)
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed))
	binomial, poisson := Simulate(probs[home], probs[away], s.Runs, rng)
	return MatchResult{Home: home, Away: away, Binomial: binomial, Poisson: poisson}, nil
}
