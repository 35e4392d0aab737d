// Package features builds the per-match interval feature table.
package features

import (
	"time"

	"github.com/shopspring/decimal"

	"matchfeatures/internal/roster"
	"matchfeatures/internal/window"
	"matchfeatures/internal/zones"
)

// Column names shared by the CSV codec and downstream datasets.
const (
	ColIntervalStart    = "interval_start"
	ColIntervalDuration = "interval_duration"
	ColTotalXG          = "TotalxG"
)

// RoleRow is the contribution of one player of a role to one interval.
type RoleRow struct {
	Role          roster.Role
	Interval      window.Interval
	Totals        zones.Totals
	Accelerations int
	Decelerations int
}

// RoleValues are the summed features of a role in one interval.
type RoleValues struct {
	Totals        zones.Totals
	Accelerations int
	Decelerations int
}

// Row is one interval of the merged table.
type Row struct {
	Start    time.Time
	Duration time.Duration
	Half     window.Half
	Roles    [len(roleOrder)]RoleValues
	Total    zones.Totals
	TotalXG  decimal.Decimal
}

// Table is the merged feature table of a match, ordered by interval start.
type Table struct {
	Rows          []Row
	Accelerations bool
}

var roleOrder = [...]roster.Role{roster.Defender, roster.Midfielder, roster.Attacker, roster.Goalkeeper}

// Columns returns the CSV header in output order.
func (t *Table) Columns() []string {
	cols := []string{ColIntervalStart}
	return append(cols, t.ValueColumns()...)
}

// ValueColumns returns the numeric columns, i.e. Columns without interval_start.
func (t *Table) ValueColumns() []string {
	cols := []string{ColIntervalDuration}
	for _, role := range roleOrder {
		p := role.Plural()
		cols = append(cols,
			"zone_5_distance_"+p,
			"zone_5_time_"+p,
			"zone_6_distance_"+p,
			"zone_6_time_"+p,
		)
	}
	if t.Accelerations {
		for _, role := range roleOrder {
			cols = append(cols, "accelerations_"+role.Plural(), "decelerations_"+role.Plural())
		}
	}
	cols = append(cols,
		"total_zone_5_distance",
		"total_zone_5_time",
		"total_zone_6_distance",
		"total_zone_6_time",
		ColTotalXG,
	)
	return cols
}

// Values returns the numeric cells of r aligned with ValueColumns.
func (t *Table) Values(r Row) []float64 {
	vals := []float64{r.Duration.Seconds()}
	for i := range roleOrder {
		tot := r.Roles[i].Totals
		vals = append(vals, tot.Zone5Distance, tot.Zone5Time, tot.Zone6Distance, tot.Zone6Time)
	}
	if t.Accelerations {
		for i := range roleOrder {
			vals = append(vals, float64(r.Roles[i].Accelerations), float64(r.Roles[i].Decelerations))
		}
	}
	return append(vals,
		r.Total.Zone5Distance,
		r.Total.Zone5Time,
		r.Total.Zone6Distance,
		r.Total.Zone6Time,
		r.TotalXG.InexactFloat64(),
	)
}

// Role returns the values of a role in r.
func (r Row) Role(role roster.Role) RoleValues {
	for i, candidate := range roleOrder {
		if candidate == role {
			return r.Roles[i]
		}
	}
	return RoleValues{}
}

func roleIndex(role roster.Role) (int, bool) {
	for i, candidate := range roleOrder {
		if candidate == role {
			return i, true
		}
	}
	return 0, false
}
