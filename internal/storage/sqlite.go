package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"matchfeatures/internal/features"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps feature rows in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer; also keeps ":memory:" on one connection.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: conn}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

// UpsertFeatureRows replaces the stored rows of a match in one transaction.
func (s *SQLiteStore) UpsertFeatureRows(ctx context.Context, matchID, runID string, table *features.Table) error {
	if s == nil || s.db == nil {
		return ErrNotConfigured
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO feature_rows (
		match_id, interval_start, interval_seconds,
		total_zone_5_distance, total_zone_5_time, total_zone_6_distance, total_zone_6_time,
		total_xg, feature_values, run_id, updated_at
	) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(sqliteTimeLayout)
	for _, row := range RowsFromTable(matchID, runID, table) {
		values, err := json.Marshal(row.Values)
		if err != nil {
			return fmt.Errorf("marshal feature values: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			row.MatchID,
			row.IntervalStart.Format(sqliteTimeLayout),
			row.Duration.Seconds(),
			row.Total.Zone5Distance,
			row.Total.Zone5Time,
			row.Total.Zone6Distance,
			row.Total.Zone6Time,
			row.TotalXG.StringFixed(3),
			string(values),
			row.RunID,
			now,
		); err != nil {
			return fmt.Errorf("upsert feature row: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feature_rows WHERE match_id = ? AND run_id <> ?`, matchID, runID); err != nil {
		return fmt.Errorf("delete stale rows: %w", err)
	}
	return tx.Commit()
}

// ListFeatureRows lists the stored intervals of a match in order.
func (s *SQLiteStore) ListFeatureRows(ctx context.Context, matchID string) ([]FeatureRow, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		match_id, interval_start, interval_seconds,
		total_zone_5_distance, total_zone_5_time, total_zone_6_distance, total_zone_6_time,
		total_xg, feature_values, run_id, updated_at
	FROM feature_rows WHERE match_id = ? ORDER BY interval_start`, matchID)
	if err != nil {
		return nil, fmt.Errorf("list feature rows: %w", err)
	}
	defer rows.Close()

	var out []FeatureRow
	for rows.Next() {
		var (
			row            FeatureRow
			start, updated string
			seconds        float64
			xgStr, values  string
		)
		if err := rows.Scan(
			&row.MatchID, &start, &seconds,
			&row.Total.Zone5Distance, &row.Total.Zone5Time, &row.Total.Zone6Distance, &row.Total.Zone6Time,
			&xgStr, &values, &row.RunID, &updated,
		); err != nil {
			return nil, err
		}
		if row.IntervalStart, err = time.Parse(sqliteTimeLayout, start); err != nil {
			return nil, fmt.Errorf("parse interval start: %w", err)
		}
		if row.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
			return nil, fmt.Errorf("parse updated at: %w", err)
		}
		if row.TotalXG, err = decimal.NewFromString(xgStr); err != nil {
			return nil, fmt.Errorf("parse total xg: %w", err)
		}
		if err := json.Unmarshal([]byte(values), &row.Values); err != nil {
			return nil, fmt.Errorf("decode feature values: %w", err)
		}
		row.Duration = time.Duration(seconds * float64(time.Second))
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListMatches summarises every stored match.
func (s *SQLiteStore) ListMatches(ctx context.Context) ([]MatchSummary, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	rows, err := s.db.QueryContext(ctx, `SELECT match_id, total_xg, run_id, updated_at
		FROM feature_rows ORDER BY match_id, interval_start`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	// total_xg is summed in Go to keep decimal precision.
	var out []MatchSummary
	for rows.Next() {
		var matchID, xgStr, runID, updated string
		if err := rows.Scan(&matchID, &xgStr, &runID, &updated); err != nil {
			return nil, err
		}
		xg, err := decimal.NewFromString(xgStr)
		if err != nil {
			return nil, fmt.Errorf("parse total xg: %w", err)
		}
		ts, err := time.Parse(sqliteTimeLayout, updated)
		if err != nil {
			return nil, fmt.Errorf("parse updated at: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].MatchID != matchID {
			out = append(out, MatchSummary{MatchID: matchID})
		}
		m := &out[len(out)-1]
		m.Intervals++
		m.TotalXG = m.TotalXG.Add(xg)
		m.RunID = runID
		if ts.After(m.UpdatedAt) {
			m.UpdatedAt = ts
		}
	}
	return out, rows.Err()
}

var _ FeatureStore = (*SQLiteStore)(nil)
