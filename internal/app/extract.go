package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"matchfeatures/internal/metrics"
	"matchfeatures/internal/notify"
	"matchfeatures/internal/service"
	"matchfeatures/internal/storage"
)

// Extract builds the feature file of every selected match.
func (a *App) Extract(ctx context.Context, opts ExtractOptions) error {
	catalog, err := a.loadCatalog()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		// The pipeline reports every match as skipped without a catalog.
		a.Logger.Warn().Err(err).Msg("match metadata file missing")
	}

	var matches []service.Match
	if len(opts.Matches) > 0 {
		for _, arg := range opts.Matches {
			m, err := a.resolveMatch(arg)
			if err != nil {
				return err
			}
			matches = append(matches, m)
		}
	} else {
		if matches, err = a.discoverMatches(opts.Season); err != nil {
			return err
		}
	}
	if len(matches) == 0 {
		return errors.New("no matches found; check paths.gps_root or --season")
	}

	var store storage.FeatureStore
	if opts.DryRun {
		a.Logger.Warn().Msg("dry-run: feature rows will not be stored")
	} else {
		var closeStore func()
		store, closeStore, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			a.Logger.Info().Msg("database.dsn not configured; persistence disabled")
		}
		if closeStore != nil {
			defer closeStore()
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = a.Config.Features.Workers
	}
	if workers <= 0 {
		workers = 1
	}

	runID := uuid.NewString()
	logger := a.Logger.With().Str("run_id", runID).Logger()
	recorder := metrics.New()
	pipeline := service.New(a.Config, service.Deps{
		Catalog: catalog,
		Store:   store,
		Metrics: recorder,
		RunID:   runID,
	}, logger)

	summary := notify.RunSummary{
		RunID:     runID,
		Command:   "extract",
		Started:   time.Now().UTC(),
		OutputDir: a.Config.Paths.OutputDir,
	}
	var mu sync.Mutex

	logger.Info().Int("matches", len(matches)).Int("workers", workers).Msg("extraction started")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, m := range matches {
		g.Go(func() error {
			_, err := pipeline.ProcessMatch(gctx, m)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Processed++
			case errors.Is(err, service.ErrMissingInput):
				summary.Skipped++
				logger.Warn().Err(err).Str("match", m.ID).Msg("match skipped")
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				summary.Failed = append(summary.Failed, m.ID)
				logger.Error().Err(err).Str("match", m.ID).Msg("match failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	summary.Finished = time.Now().UTC()
	recorder.Finish(summary.Finished)
	if err := recorder.WriteTextfile(a.Config.Metrics.Textfile); err != nil {
		logger.Error().Err(err).Msg("failed to write metrics textfile")
	}
	if notifier := a.newNotifier(); notifier != nil {
		if err := notifier.Notify(ctx, summary); err != nil {
			logger.Error().Err(err).Msg("failed to send run summary")
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failed)).
		Msg("extraction finished")
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d matches failed, see log", len(summary.Failed), len(matches))
	}
	return nil
}
