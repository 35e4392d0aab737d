package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"matchfeatures/internal/matchmeta"
	"matchfeatures/internal/projection"
	"matchfeatures/internal/telemetry"
)

func (a *App) stadium() (projection.Stadium, error) {
	cfg := a.Config.Projection
	if cfg.Stadium != "" {
		return projection.Lookup(cfg.Stadium)
	}
	if cfg.Lat == 0 && cfg.Lon == 0 {
		return projection.Stadium{}, errors.New("projection.stadium or projection.lat/lon must be set")
	}
	return projection.Stadium{Name: "custom", Lat: cfg.Lat, Lon: cfg.Lon, Rotation: cfg.Rotation}, nil
}

// Project writes one frame per player per second in pitch coordinates.
func (a *App) Project(ctx context.Context, opts ProjectOptions) error {
	m, err := a.resolveMatch(opts.Match)
	if err != nil {
		return err
	}
	st, err := a.stadium()
	if err != nil {
		return err
	}
	date, err := matchmeta.MatchDate(m.ID)
	if err != nil {
		return err
	}

	var win projection.Window
	if win.From, err = clockBound(date, opts.From); err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	if win.To, err = clockBound(date, opts.To); err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}

	files, skipped, err := telemetry.ListMatchFiles(m.Dir)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		a.Logger.Warn().Str("file", name).Msg("unexpected player file name; skipped")
	}

	var frames []projection.Frame
	for _, pf := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(opts.Players) > 0 && !slices.Contains(opts.Players, pf.PlayerID) {
			continue
		}
		samples, err := telemetry.ReadFile(pf)
		if err != nil {
			return err
		}
		frames = append(frames, projection.Frames(pf.PlayerID, samples, st, win)...)
	}
	projection.SortFrames(frames)

	out := opts.Output
	if out == "" {
		out = filepath.Join(m.Dir, "frames_"+m.ID+".csv")
	}
	if err := ensureDir(out); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := projection.WriteFrames(f, frames); err != nil {
		f.Close()
		return fmt.Errorf("write frames: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	a.Logger.Info().
		Str("match", m.ID).
		Str("stadium", st.Name).
		Int("frames", len(frames)).
		Str("output", out).
		Msg("frames written")
	return nil
}

func clockBound(date time.Time, clock string) (*time.Time, error) {
	if clock == "" {
		return nil, nil
	}
	t, err := matchmeta.AtClock(date, clock)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
