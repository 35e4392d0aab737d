package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"matchfeatures/internal/features"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertFeatureRowPostgresSQL = `INSERT INTO feature_rows (
        match_id,
        interval_start,
        interval_seconds,
        total_zone_5_distance,
        total_zone_5_time,
        total_zone_6_distance,
        total_zone_6_time,
        total_xg,
        feature_values,
        run_id,
        updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    )
    ON CONFLICT (match_id, interval_start) DO UPDATE
    SET
        interval_seconds      = EXCLUDED.interval_seconds,
        total_zone_5_distance = EXCLUDED.total_zone_5_distance,
        total_zone_5_time     = EXCLUDED.total_zone_5_time,
        total_zone_6_distance = EXCLUDED.total_zone_6_distance,
        total_zone_6_time     = EXCLUDED.total_zone_6_time,
        total_xg              = EXCLUDED.total_xg,
        feature_values        = EXCLUDED.feature_values,
        run_id                = EXCLUDED.run_id,
        updated_at            = EXCLUDED.updated_at;`

	deleteStaleRowsPostgresSQL = `DELETE FROM feature_rows WHERE match_id = $1 AND run_id <> $2;`

	listFeatureRowsPostgresSQL = `SELECT
        match_id,
        interval_start,
        interval_seconds,
        total_zone_5_distance,
        total_zone_5_time,
        total_zone_6_distance,
        total_zone_6_time,
        total_xg,
        feature_values,
        run_id,
        updated_at
    FROM feature_rows
    WHERE match_id = $1
    ORDER BY interval_start;`

	listMatchesPostgresSQL = `SELECT
        match_id,
        COUNT(*),
        COALESCE(SUM(total_xg::numeric), 0)::text,
        MAX(run_id),
        MAX(updated_at)
    FROM feature_rows
    GROUP BY match_id
    ORDER BY match_id;`
)

// PostgresStore keeps feature rows in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wires a pgx pool into a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *PostgresStore) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// Migrate creates the feature table when it is missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertFeatureRows replaces the stored rows of a match in one transaction.
func (s *PostgresStore) UpsertFeatureRows(ctx context.Context, matchID, runID string, table *features.Table) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, row := range RowsFromTable(matchID, runID, table) {
		values, err := json.Marshal(row.Values)
		if err != nil {
			return fmt.Errorf("marshal feature values: %w", err)
		}
		batch.Queue(upsertFeatureRowPostgresSQL,
			row.MatchID,
			row.IntervalStart,
			row.Duration.Seconds(),
			row.Total.Zone5Distance,
			row.Total.Zone5Time,
			row.Total.Zone6Distance,
			row.Total.Zone6Time,
			row.TotalXG.StringFixed(3),
			values,
			row.RunID,
			now,
		)
	}
	batch.Queue(deleteStaleRowsPostgresSQL, matchID, runID)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert feature rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListFeatureRows lists the stored intervals of a match in order.
func (s *PostgresStore) ListFeatureRows(ctx context.Context, matchID string) ([]FeatureRow, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listFeatureRowsPostgresSQL, matchID)
	if queryErr != nil {
		return nil, fmt.Errorf("list feature rows: %w", queryErr)
	}
	defer rows.Close()

	out := make([]FeatureRow, 0)
	for rows.Next() {
		row, scanErr := scanFeatureRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// ListMatches summarises every stored match.
func (s *PostgresStore) ListMatches(ctx context.Context) ([]MatchSummary, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listMatchesPostgresSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list matches: %w", queryErr)
	}
	defer rows.Close()

	out := make([]MatchSummary, 0)
	for rows.Next() {
		var (
			m     MatchSummary
			xgStr string
		)
		if err := rows.Scan(&m.MatchID, &m.Intervals, &xgStr, &m.RunID, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if m.TotalXG, err = decimal.NewFromString(xgStr); err != nil {
			return nil, fmt.Errorf("parse total xg: %w", err)
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// rowScanner is satisfied by pgx.Rows and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeatureRow(rows rowScanner) (FeatureRow, error) {
	var (
		row     FeatureRow
		seconds float64
		xgStr   string
		values  []byte
	)
	if err := rows.Scan(
		&row.MatchID,
		&row.IntervalStart,
		&seconds,
		&row.Total.Zone5Distance,
		&row.Total.Zone5Time,
		&row.Total.Zone6Distance,
		&row.Total.Zone6Time,
		&xgStr,
		&values,
		&row.RunID,
		&row.UpdatedAt,
	); err != nil {
		return FeatureRow{}, err
	}

	xg, err := decimal.NewFromString(xgStr)
	if err != nil {
		return FeatureRow{}, fmt.Errorf("parse total xg: %w", err)
	}
	row.TotalXG = xg
	row.Duration = time.Duration(seconds * float64(time.Second))
	if len(values) > 0 {
		if err := json.Unmarshal(values, &row.Values); err != nil {
			return FeatureRow{}, fmt.Errorf("decode feature values: %w", err)
		}
	}
	row.IntervalStart = row.IntervalStart.UTC()
	return row, nil
}

var _ FeatureStore = (*PostgresStore)(nil)
