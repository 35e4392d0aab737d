package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"matchfeatures/internal/events"
	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/xpoints"
)

func (a *App) simulator() xpoints.Simulator {
	return xpoints.Simulator{Runs: a.Config.Simulation.Runs, Seed: a.Config.Simulation.Seed}
}

// shotFilter applies the configured shot-type filters without the team filter,
// which would hide the opponent's chances.
func (a *App) shotFilter() events.Filter {
	return events.Filter{
		ExcludePenalties: a.Config.Events.ExcludePenalties,
		OpenPlayOnly:     a.Config.Events.OpenPlayOnly,
	}
}

func (a *App) simulateEventFile(path string) (xpoints.MatchResult, error) {
	records, err := events.ReadFile(path)
	if err != nil {
		return xpoints.MatchResult{}, err
	}
	res, err := a.simulator().Match(a.shotFilter().Apply(records))
	if err != nil {
		return xpoints.MatchResult{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return res, nil
}

func selectModels(name string) ([]xpoints.Model, error) {
	if name == "" {
		return xpoints.Models, nil
	}
	for _, m := range xpoints.Models {
		if strings.EqualFold(string(m), name) {
			return []xpoints.Model{m}, nil
		}
	}
	return nil, fmt.Errorf("unknown model %q", name)
}

// Simulate estimates win/draw/loss probabilities for one match, or a full
// expected-points table for a season of event logs.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	models, err := selectModels(opts.Model)
	if err != nil {
		return err
	}
	if opts.Match != "" {
		return a.simulateMatch(opts.Match, models)
	}
	if opts.Season == "" {
		return fmt.Errorf("either a match or --season is required")
	}
	return a.simulateSeason(ctx, opts, models)
}

func (a *App) simulateMatch(arg string, models []xpoints.Model) error {
	path := arg
	if !strings.EqualFold(filepath.Ext(arg), ".csv") {
		date, err := matchmeta.MatchDate(arg)
		if err != nil {
			return err
		}
		path = events.Path(a.Config.Paths.EventsRoot, a.season(date), arg)
	}

	res, err := a.simulateEventFile(path)
	if err != nil {
		return err
	}

	w := a.Stdout
	fmt.Fprintf(w, "\n%s vs %s  |  runs: %d  |  seed: %d\n\n", res.Home, res.Away, a.Config.Simulation.Runs, a.Config.Simulation.Seed)
	table := newTable(w)
	table.Header("MODEL", "HOME WIN", "DRAW", "AWAY WIN", "HOME XPTS", "AWAY XPTS")
	for _, m := range models {
		o := res.Outcome(m)
		table.Append(
			string(m),
			pct(o.HomeWin),
			pct(o.Draw),
			pct(o.AwayWin),
			fmt.Sprintf("%.2f", xpoints.ExpectedPoints(res.Home, res.Home, o)),
			fmt.Sprintf("%.2f", xpoints.ExpectedPoints(res.Away, res.Home, o)),
		)
	}
	table.Render()
	return nil
}

func (a *App) simulateSeason(ctx context.Context, opts SimulateOptions, models []xpoints.Model) error {
	dir := filepath.Join(a.Config.Paths.EventsRoot, opts.Season)
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no event logs under %s", dir)
	}

	var standings map[string]xpoints.Standing
	if opts.Standings != "" {
		f, err := os.Open(opts.Standings)
		if err != nil {
			return fmt.Errorf("open standings: %w", err)
		}
		standings, err = xpoints.ReadStandings(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read standings: %w", err)
		}
	}

	results := make([]xpoints.MatchResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := a.simulateEventFile(path)
		if err != nil {
			failed++
			a.Logger.Error().Err(err).Str("file", filepath.Base(path)).Msg("simulation failed")
			continue
		}
		results = append(results, res)
	}
	a.Logger.Info().Int("matches", len(results)).Int("failed", failed).Str("season", opts.Season).Msg("season simulated")

	w := a.Stdout
	for _, m := range models {
		fmt.Fprintf(w, "\n%s model, season %s\n", m, opts.Season)
		table := newTable(w)
		table.Header("TEAM", "GAMES", "XPTS", "XPTS/G", "PRED", "PTS", "POS", "PTS DIFF", "POS DIFF")
		for _, row := range xpoints.SeasonTable(results, m, standings) {
			pts, pos, ptsDiff, posDiff := "", "", "", ""
			if row.Actual != nil {
				pts = strconv.Itoa(row.Actual.Points)
				pos = strconv.Itoa(row.Actual.Position)
			}
			if d, ok := row.PtsDiff(); ok {
				ptsDiff = fmt.Sprintf("%+.2f", d)
			}
			if d, ok := row.PosDiff(); ok {
				posDiff = fmt.Sprintf("%+d", d)
			}
			table.Append(
				row.Team,
				strconv.Itoa(row.Games),
				fmt.Sprintf("%.2f", row.TotalXPts),
				fmt.Sprintf("%.2f", row.XPtsPerGame),
				strconv.Itoa(row.PredPos),
				pts, pos, ptsDiff, posDiff,
			)
		}
		table.Render()
	}

	if failed > 0 {
		return fmt.Errorf("%d event logs could not be simulated", failed)
	}
	return nil
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", 100*v)
}
