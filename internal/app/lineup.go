package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"matchfeatures/internal/lineup"
	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/roster"
	"matchfeatures/internal/telemetry"
)

// fixStep thins GPS samples to one position fix per second.
const fixStep = time.Second

// Lineup infers the starting eleven and substitutions of a match from player
// running distance and prints them next to the published data when present.
func (a *App) Lineup(ctx context.Context, opts LineupOptions) error {
	m, err := a.resolveMatch(opts.Match)
	if err != nil {
		return err
	}
	logger := a.Logger.With().Str("match", m.ID).Logger()

	var info *matchmeta.MatchInfo
	if catalog, err := a.loadCatalog(); err != nil {
		logger.Warn().Err(err).Msg("metadata unavailable; using every fix")
	} else if mi, err := catalog.Lookup(m.ID); err != nil {
		logger.Warn().Err(err).Msg("metadata unavailable; using every fix")
	} else {
		info = &mi
	}

	files, skipped, err := telemetry.ListMatchFiles(m.Dir)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		logger.Warn().Str("file", name).Msg("unexpected player file name; skipped")
	}

	resolver := roster.Resolver{Policy: roster.UnknownPolicy(a.Config.Features.UnknownPositionPolicy)}
	var fixes []lineup.Fix
	for _, pf := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		role, ok := resolver.Resolve(pf.Position)
		if !ok || role == roster.Goalkeeper {
			continue
		}
		samples, err := telemetry.ReadFile(pf)
		if err != nil {
			return err
		}
		if info != nil {
			samples = duringMatch(samples, *info)
		}
		fixes = append(fixes, lineup.FixesFromSamples(pf.PlayerID, samples, fixStep)...)
	}
	if len(fixes) == 0 {
		return fmt.Errorf("no outfield position fixes for %s", m.ID)
	}

	cfg := a.Config.Lineup
	starting := lineup.FindLineup(fixes, cfg.LineupWindow, cfg.Size)
	buckets := lineup.BucketDistances(fixes, cfg.Bucket)
	inferrer := lineup.NewInferrer(lineup.Options{
		Size:   cfg.Size,
		Streak: cfg.Streak,
		Late:   lineup.LatePolicy(cfg.LatePolicy),
	}, a.Logger)
	subs := inferrer.Infer(buckets, starting)

	actual, err := lineup.LoadActual(a.Config.Paths.LineupsRoot, m.Season, m.ID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Msg("published lineup unreadable")
	}
	if err != nil {
		actual = nil
	}

	w := a.Stdout
	fmt.Fprintf(w, "\nMatch: %s  |  Season: %s  |  Buckets: %d\n", m.ID, m.Season, len(buckets))
	if actual != nil {
		fmt.Fprintln(w, "Published lineup data found; inferred lists below are heuristic.")
	}

	fmt.Fprintln(w, "\nStarting lineup")
	table := newTable(w)
	table.Header("#", "INFERRED", "PUBLISHED")
	rows := len(starting)
	if actual != nil {
		rows = max(rows, len(actual.Lineup))
	}
	for i := range rows {
		table.Append(fmt.Sprint(i+1), at(starting, i), publishedAt(actual, i))
	}
	table.Render()

	fmt.Fprintln(w, "\nSubstitutions")
	table = newTable(w)
	table.Header("SOURCE", "TIME", "OUT", "IN")
	for _, s := range subs {
		table.Append("inferred", s.At.Format(time.TimeOnly), s.Out, s.In)
	}
	if actual != nil && info != nil {
		for _, s := range actual.Substitutions(*info) {
			table.Append("published", s.At.Format(time.TimeOnly), s.Out, s.In)
		}
	}
	table.Render()

	if info != nil && len(info.RedCards) > 0 {
		cards := make([]string, 0, len(info.RedCards))
		for _, rc := range info.RedCards {
			cards = append(cards, rc.PlayerID+" "+rc.At.Format(time.TimeOnly))
		}
		fmt.Fprintf(w, "\nRed cards: %s\n", strings.Join(cards, ", "))
	}
	return nil
}

func duringMatch(samples []telemetry.Sample, info matchmeta.MatchInfo) []telemetry.Sample {
	out := samples[:0:0]
	for _, s := range samples {
		if !s.Time.Before(info.FirstHalfStart) && s.Time.Before(info.SecondHalfEnd) {
			out = append(out, s)
		}
	}
	return out
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}

func publishedAt(actual *lineup.Actual, i int) string {
	if actual == nil {
		return ""
	}
	return at(actual.Lineup, i)
}
