package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"matchfeatures/internal/config"
	"matchfeatures/internal/events"
	"matchfeatures/internal/features"
	"matchfeatures/internal/lineup"
	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/metrics"
	"matchfeatures/internal/roster"
	"matchfeatures/internal/storage"
	"matchfeatures/internal/telemetry"
	"matchfeatures/internal/window"
	"matchfeatures/internal/zones"
)

// ErrMissingInput marks a match that lacks one of its input files.
var ErrMissingInput = errors.New("service: missing input")

// Match identifies one match folder.
type Match struct {
	ID     string
	Season string
	Dir    string
}

// Result summarises a processed match.
type Result struct {
	MatchID      string
	OutputPath   string
	Intervals    int
	Players      int
	SkippedFiles []string
	TotalXG      string
	Table        *features.Table
}

// Deps are the shared collaborators of a pipeline.
type Deps struct {
	Catalog *matchmeta.Catalog
	Store   storage.FeatureStore
	Metrics *metrics.Recorder
	RunID   string
}

// Pipeline turns the raw inputs of a match into its feature table.
type Pipeline struct {
	catalog    *matchmeta.Catalog
	store      storage.FeatureStore
	metrics    *metrics.Recorder
	runID      string
	windower   *window.Windower
	aggregator zones.Aggregator
	accel      *zones.AccelCounter
	resolver   roster.Resolver
	filter     events.Filter
	eventsRoot string
	lineups    string
	missing    lineup.MissingPolicy
	outputDir  string
	precision  int
	logger     zerolog.Logger
}

// New constructs a pipeline from configuration.
func New(cfg *config.Config, deps Deps, logger zerolog.Logger) *Pipeline {
	p := &Pipeline{
		catalog: deps.Catalog,
		store:   deps.Store,
		metrics: deps.Metrics,
		runID:   deps.RunID,
		windower: window.New(window.Options{
			Interval: cfg.Features.Interval,
		}, logger),
		aggregator: zones.Aggregator{
			Thresholds:  zones.Thresholds{Zone5: cfg.Features.Zone5Threshold, Zone6: cfg.Features.Zone6Threshold},
			SampleDelta: cfg.Features.SampleDelta,
		},
		resolver: roster.Resolver{Policy: roster.UnknownPolicy(cfg.Features.UnknownPositionPolicy)},
		filter: events.Filter{
			Team:             cfg.Events.Team,
			ExcludePenalties: cfg.Events.ExcludePenalties,
			OpenPlayOnly:     cfg.Events.OpenPlayOnly,
		},
		eventsRoot: cfg.Paths.EventsRoot,
		lineups:    cfg.Paths.LineupsRoot,
		missing:    lineup.MissingPolicy(cfg.Features.MissingLineupPolicy),
		outputDir:  cfg.Paths.OutputDir,
		precision:  cfg.Features.Precision,
		logger:     logger.With().Str("component", "service").Logger(),
	}
	if cfg.Features.Accelerations {
		p.accel = &zones.AccelCounter{Threshold: cfg.Features.AccelThreshold, Lookahead: cfg.Features.AccelLookahead}
	}
	return p
}

// OutputPath returns where the feature file of m is written.
func (p *Pipeline) OutputPath(m Match) string {
	dir := m.Dir
	if p.outputDir != "" {
		dir = filepath.Join(p.outputDir, m.Season, m.ID)
	}
	return filepath.Join(dir, features.FileName(m.ID))
}

// ProcessMatch runs the full chain for one match. Steps run sequentially.
func (p *Pipeline) ProcessMatch(ctx context.Context, m Match) (res Result, err error) {
	started := time.Now()
	logger := p.logger.With().Str("match", m.ID).Logger()
	defer func() {
		status := metrics.StatusOK
		switch {
		case errors.Is(err, ErrMissingInput):
			status = metrics.StatusSkipped
		case err != nil:
			status = metrics.StatusFailed
		}
		p.metrics.Match(status, res.Intervals, time.Since(started))
	}()

	if p.catalog == nil {
		return Result{}, fmt.Errorf("%w: match metadata not loaded", ErrMissingInput)
	}
	info, err := p.catalog.Lookup(m.ID)
	if err != nil {
		if errors.Is(err, matchmeta.ErrMatchNotFound) {
			return Result{}, fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		return Result{}, fmt.Errorf("match metadata: %w", err)
	}

	eventPath := events.Path(p.eventsRoot, m.Season, m.ID)
	if _, statErr := os.Stat(eventPath); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: event log %s", ErrMissingInput, eventPath)
		}
		return Result{}, fmt.Errorf("stat event log: %w", statErr)
	}
	records, err := events.ReadFile(eventPath)
	if err != nil {
		return Result{}, err
	}

	actual, err := lineup.LoadActual(p.lineups, m.Season, m.ID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("published lineup: %w", err)
		}
		if p.missing != lineup.MissingAllPlayers {
			return Result{}, fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		logger.Warn().Err(err).Msg("no published lineup; every player file counts for the whole match")
		actual = nil
	}

	intervals := window.Collect(p.windower.Intervals(window.Halves{
		FirstStart:  info.FirstHalfStart,
		FirstEnd:    info.FirstHalfEnd,
		SecondStart: info.SecondHalfStart,
		SecondEnd:   info.SecondHalfEnd,
	}))

	files, skipped, err := telemetry.ListMatchFiles(m.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		return Result{}, err
	}
	for _, name := range skipped {
		logger.Warn().Str("file", name).Msg("unexpected player file name; skipped")
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%w: no player files in %s", ErrMissingInput, m.Dir)
	}

	var (
		rows    []features.RoleRow
		players int
	)
	for _, pf := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		role, ok := p.resolver.Resolve(pf.Position)
		if !ok {
			logger.Debug().Str("player", pf.PlayerID).Msg("unknown position; player skipped")
			continue
		}
		if !roster.Known(pf.Position) {
			logger.Debug().Str("player", pf.PlayerID).Str("role", role.String()).Msg("unknown position mapped by policy")
		}
		stint, played := lineup.StintOf(actual, info, pf.PlayerID)
		if !played {
			logger.Debug().Str("player", pf.PlayerID).Msg("player did not come on; file skipped")
			continue
		}

		samples, err := telemetry.ReadFile(pf)
		if err != nil {
			return Result{}, err
		}
		players++
		rows = append(rows, p.playerRows(role, stint.Trim(samples), intervals)...)
	}

	table := features.Merge(intervals, rows, features.MergeOptions{Accelerations: p.accel != nil})
	features.JoinXG(table, p.filter.Apply(records))

	out := p.OutputPath(m)
	if err := features.WriteFile(out, table, p.precision); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", out, err)
	}

	if p.store != nil {
		if err := p.store.UpsertFeatureRows(ctx, m.ID, p.runID, table); err != nil {
			logger.Error().Err(err).Msg("failed to persist feature rows")
		}
	}

	res = Result{
		MatchID:      m.ID,
		OutputPath:   out,
		Intervals:    len(table.Rows),
		Players:      players,
		SkippedFiles: skipped,
		TotalXG:      totalXG(table),
		Table:        table,
	}
	logger.Info().
		Int("intervals", res.Intervals).
		Int("players", players).
		Str("total_xg", res.TotalXG).
		Str("output", out).
		Msg("match processed")
	return res, nil
}

func (p *Pipeline) playerRows(role roster.Role, samples []telemetry.Sample, intervals []window.Interval) []features.RoleRow {
	totals := p.aggregator.Aggregate(samples, intervals)
	rows := make([]features.RoleRow, len(intervals))
	for i, iv := range intervals {
		rows[i] = features.RoleRow{Role: role, Interval: iv, Totals: totals[i]}
		if p.accel != nil {
			rows[i].Accelerations, rows[i].Decelerations = p.accel.Count(zones.Within(samples, iv))
		}
	}
	return rows
}

func totalXG(table *features.Table) string {
	if len(table.Rows) == 0 {
		return "0.000"
	}
	sum := table.Rows[0].TotalXG
	for _, row := range table.Rows[1:] {
		sum = sum.Add(row.TotalXG)
	}
	return sum.StringFixed(3)
}
