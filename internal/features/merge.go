package features

import (
	"github.com/shopspring/decimal"

	"matchfeatures/internal/events"
	"matchfeatures/internal/window"
)

// MergeOptions control which optional columns the merged table carries.
type MergeOptions struct {
	Accelerations bool
}

// Merge sums role rows into one row per interval. The table has exactly the
// given intervals, in order; roles without data stay zero and role rows whose
// interval start is not in intervals are ignored. Totals span every role.
func Merge(intervals []window.Interval, rows []RoleRow, opts MergeOptions) *Table {
	table := &Table{Rows: make([]Row, len(intervals)), Accelerations: opts.Accelerations}
	index := make(map[int64]int, len(intervals))
	for i, iv := range intervals {
		table.Rows[i] = Row{Start: iv.Start, Duration: iv.Duration, Half: iv.Half, TotalXG: decimal.Zero}
		if _, dup := index[iv.Start.UnixNano()]; !dup {
			index[iv.Start.UnixNano()] = i
		}
	}

	for _, rr := range rows {
		i, ok := index[rr.Interval.Start.UnixNano()]
		if !ok {
			continue
		}
		ri, ok := roleIndex(rr.Role)
		if !ok {
			continue
		}
		vals := &table.Rows[i].Roles[ri]
		vals.Totals.Add(rr.Totals)
		vals.Accelerations += rr.Accelerations
		vals.Decelerations += rr.Decelerations
	}

	for i := range table.Rows {
		row := &table.Rows[i]
		for _, vals := range row.Roles {
			row.Total.Add(vals.Totals)
		}
	}
	return table
}

// JoinXG labels every row with the xG of the events inside its interval,
// rounded to three decimals. Event and telemetry clocks must already agree.
func JoinXG(table *Table, records []events.Record) {
	for i := range table.Rows {
		row := &table.Rows[i]
		end := row.Start.Add(row.Duration)
		sum := decimal.Zero
		for _, rec := range records {
			if rec.Time.IsZero() || rec.Time.Before(row.Start) || !rec.Time.Before(end) {
				continue
			}
			sum = sum.Add(rec.XG)
		}
		row.TotalXG = sum.Round(3)
	}
}
