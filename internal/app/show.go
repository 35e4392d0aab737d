package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"matchfeatures/internal/features"
	"matchfeatures/internal/storage"
	"matchfeatures/internal/zones"
)

// Show prints stored feature rows, or a features CSV when CSVPath is set.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.CSVPath != "" {
		table, err := features.ReadFile(opts.CSVPath)
		if err != nil {
			return err
		}
		a.printIntervals(intervalsFromTable(table))
		return nil
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; use --csv to read a features file")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.Match == "" {
		matches, err := store.ListMatches(ctx)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintln(a.Stdout, "no matches stored")
			return nil
		}
		table := newTable(a.Stdout)
		table.Header("MATCH", "INTERVALS", "TOTAL XG", "RUN", "UPDATED (UTC)")
		for _, m := range matches {
			table.Append(
				m.MatchID,
				strconv.Itoa(m.Intervals),
				m.TotalXG.StringFixed(3),
				m.RunID,
				m.UpdatedAt.UTC().Format(time.DateTime),
			)
		}
		table.Render()
		return nil
	}

	rows, err := store.ListFeatureRows(ctx, opts.Match)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(a.Stdout, "no rows stored for %s\n", opts.Match)
		return nil
	}
	a.printIntervals(intervalsFromStore(rows))
	return nil
}

type intervalLine struct {
	start    time.Time
	duration time.Duration
	total    zones.Totals
	xg       decimal.Decimal
}

func intervalsFromTable(t *features.Table) []intervalLine {
	out := make([]intervalLine, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, intervalLine{start: r.Start, duration: r.Duration, total: r.Total, xg: r.TotalXG})
	}
	return out
}

func intervalsFromStore(rows []storage.FeatureRow) []intervalLine {
	out := make([]intervalLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, intervalLine{start: r.IntervalStart, duration: r.Duration, total: r.Total, xg: r.TotalXG})
	}
	return out
}

func (a *App) printIntervals(lines []intervalLine) {
	table := newTable(a.Stdout)
	table.Header("INTERVAL", "DURATION", "Z5 DIST", "Z5 TIME", "Z6 DIST", "Z6 TIME", "XG")
	for _, l := range lines {
		table.Append(
			l.start.Format(features.TimeLayout),
			l.duration.String(),
			fmt.Sprintf("%.1f", l.total.Zone5Distance),
			fmt.Sprintf("%.2f", l.total.Zone5Time),
			fmt.Sprintf("%.1f", l.total.Zone6Distance),
			fmt.Sprintf("%.2f", l.total.Zone6Time),
			l.xg.StringFixed(3),
		)
	}
	table.Render()
}
