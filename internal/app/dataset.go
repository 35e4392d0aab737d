package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"matchfeatures/internal/dataset"
	"matchfeatures/internal/events"
	"matchfeatures/internal/features"
	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/xpoints"
)

const (
	defaultHalvesFile = "dataset_halves.csv"
	defaultFullFile   = "dataset_full.csv"
)

// Dataset folds every feature file under the root into the halves and
// full-game datasets.
func (a *App) Dataset(ctx context.Context, opts DatasetOptions) error {
	root := opts.Root
	if root == "" {
		root = a.Config.Paths.OutputDir
	}
	if root == "" {
		root = a.Config.Paths.GPSRoot
	}
	if opts.HalvesPath == "" {
		opts.HalvesPath = filepath.Join(root, defaultHalvesFile)
	}
	if opts.FullPath == "" {
		opts.FullPath = filepath.Join(root, defaultFullFile)
	}
	team := opts.Team
	if team == "" {
		team = a.Config.Simulation.Team
	}

	catalog, err := a.loadCatalog()
	if err != nil {
		return err
	}
	paths, err := dataset.FindFeatureFiles(root)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no feature files under %s; run extract first", root)
	}

	var xpts dataset.XPtsFunc
	if team != "" {
		xpts = a.teamXPts(team)
	}
	builder := dataset.NewBuilder(xpts, a.Logger)

	added := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := dataset.MatchIDFromFile(path)
		info, err := catalog.Lookup(id)
		if err != nil {
			a.Logger.Warn().Err(err).Str("match", id).Msg("no usable metadata; match left out")
			continue
		}
		table, err := features.ReadFile(path)
		if err != nil {
			a.Logger.Error().Err(err).Str("match", id).Msg("unreadable feature file; match left out")
			continue
		}
		builder.Add(info, table)
		added++
	}

	if err := writeWith(opts.HalvesPath, builder.WriteHalves); err != nil {
		return err
	}
	if err := writeWith(opts.FullPath, builder.WriteFull); err != nil {
		return err
	}
	a.Logger.Info().
		Int("matches", added).
		Str("halves", opts.HalvesPath).
		Str("full", opts.FullPath).
		Msg("datasets written")
	return nil
}

// teamXPts simulates a match with the binomial model and returns the expected
// points of team.
func (a *App) teamXPts(team string) dataset.XPtsFunc {
	return func(info matchmeta.MatchInfo) (float64, error) {
		path := events.Path(a.Config.Paths.EventsRoot, a.season(info.Date), info.ID)
		res, err := a.simulateEventFile(path)
		if err != nil {
			return 0, err
		}
		if team != res.Home && team != res.Away {
			return 0, fmt.Errorf("%s did not play in %s", team, info.ID)
		}
		return xpoints.ExpectedPoints(team, res.Home, res.Binomial), nil
	}
}

func writeWith(path string, write func(w io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
