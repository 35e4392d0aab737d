package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"matchfeatures/internal/features"
	"matchfeatures/internal/zones"
)

// FeatureRow is one persisted interval of a match.
type FeatureRow struct {
	MatchID       string
	IntervalStart time.Time
	Duration      time.Duration
	Total         zones.Totals
	TotalXG       decimal.Decimal
	Values        map[string]float64
	RunID         string
	UpdatedAt     time.Time
}

// MatchSummary describes the stored state of a match.
type MatchSummary struct {
	MatchID   string
	Intervals int
	TotalXG   decimal.Decimal
	RunID     string
	UpdatedAt time.Time
}

// FeatureStore persists merged feature tables.
type FeatureStore interface {
	UpsertFeatureRows(ctx context.Context, matchID, runID string, table *features.Table) error
	ListFeatureRows(ctx context.Context, matchID string) ([]FeatureRow, error)
	ListMatches(ctx context.Context) ([]MatchSummary, error)
	Close()
}

// RowsFromTable flattens a table into storable rows.
func RowsFromTable(matchID, runID string, table *features.Table) []FeatureRow {
	cols := table.ValueColumns()
	rows := make([]FeatureRow, 0, len(table.Rows))
	for _, r := range table.Rows {
		values := make(map[string]float64, len(cols))
		for i, v := range table.Values(r) {
			values[cols[i]] = v
		}
		rows = append(rows, FeatureRow{
			MatchID:       matchID,
			IntervalStart: r.Start.UTC(),
			Duration:      r.Duration,
			Total:         r.Total,
			TotalXG:       r.TotalXG,
			Values:        values,
			RunID:         runID,
		})
	}
	return rows
}
