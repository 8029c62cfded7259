package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"cantonwatch/internal/metrics"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertSnapshotSQL = `INSERT INTO snapshots (
        ts,
        latest_gross,
        latest_traffic,
        hour_gross,
        hour_traffic,
        day_gross,
        day_traffic
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    );`

	listRecentSnapshotsSQL = `SELECT
        ts,
        latest_gross,
        latest_traffic,
        hour_gross,
        hour_traffic,
        day_gross,
        day_traffic,
        created_at
    FROM snapshots
    ORDER BY ts DESC
    LIMIT $1;`

	listSnapshotsBetweenSQL = `SELECT
        ts,
        latest_gross,
        latest_traffic,
        hour_gross,
        hour_traffic,
        day_gross,
        day_traffic,
        created_at
    FROM snapshots
    WHERE ts >= $1
      AND ts < $2
    ORDER BY ts;`

	getAlertStateSQL = `SELECT state FROM alert_states WHERE alert_id = $1;`

	setAlertStateSQL = `INSERT INTO alert_states (alert_id, state, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (alert_id) DO UPDATE
    SET state = EXCLUDED.state,
        updated_at = EXCLUDED.updated_at;`

	hasAPIKeySQL = `SELECT EXISTS(SELECT 1 FROM api_keys WHERE key = $1);`

	insertAPIKeySQL = `INSERT INTO api_keys (key, label) VALUES ($1, $2);`

	listAPIKeysSQL = `SELECT key, label, created_at FROM api_keys ORDER BY created_at;`
)

// SnapshotStore persists parsed fetch cycles.
type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, ts time.Time, snap metrics.Snapshot) error
	ListRecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error)
	ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]SnapshotRecord, error)
}

// AlertStateStore persists per-alert suppression state.
type AlertStateStore interface {
	GetAlertState(ctx context.Context, alertID string) (string, error)
	SetAlertState(ctx context.Context, alertID, state string) error
}

// APIKeyStore manages pre-generated query-surface keys.
type APIKeyStore interface {
	HasAPIKey(ctx context.Context, key string) (bool, error)
	InsertAPIKey(ctx context.Context, key, label string) error
	ListAPIKeys(ctx context.Context) ([]APIKeyRecord, error)
}

// Store aggregates access to snapshots, alert state, and API keys.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// AppendSnapshot inserts one fetch cycle. Snapshot history is
// append-only; there is no dedup key because every tick is a distinct
// observation.
func (s *Store) AppendSnapshot(ctx context.Context, ts time.Time, snap metrics.Snapshot) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	rec := FromSnapshot(ts, snap)
	_, execErr := pool.Exec(ctx, insertSnapshotSQL,
		rec.Ts,
		decimalArg(rec.LatestGross),
		decimalArg(rec.LatestTraffic),
		decimalArg(rec.HourGross),
		decimalArg(rec.HourTraffic),
		decimalArg(rec.DayGross),
		decimalArg(rec.DayTraffic),
	)
	if execErr != nil {
		return fmt.Errorf("append snapshot: %w", execErr)
	}
	return nil
}

// ListRecentSnapshots lists the most recent cycles, newest first.
func (s *Store) ListRecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSnapshotsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent snapshots: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows, limit)
}

// ListSnapshotsBetween lists cycles within a time window.
func (s *Store) ListSnapshotsBetween(ctx context.Context, from, to time.Time) ([]SnapshotRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSnapshotsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list snapshots between: %w", queryErr)
	}
	defer rows.Close()

	return collectSnapshots(rows, 0)
}

// GetAlertState returns the stored state for an alert, or "" when the
// alert has never been persisted.
func (s *Store) GetAlertState(ctx context.Context, alertID string) (string, error) {
	pool, err := s.getPool()
	if err != nil {
		return "", err
	}

	var state string
	scanErr := pool.QueryRow(ctx, getAlertStateSQL, alertID).Scan(&state)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return "", nil
	}
	if scanErr != nil {
		return "", fmt.Errorf("get alert state: %w", scanErr)
	}
	return state, nil
}

// SetAlertState upserts the state for an alert.
func (s *Store) SetAlertState(ctx context.Context, alertID, state string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, setAlertStateSQL, alertID, state); execErr != nil {
		return fmt.Errorf("set alert state: %w", execErr)
	}
	return nil
}

// HasAPIKey reports whether a presented key is in the pre-generated set.
func (s *Store) HasAPIKey(ctx context.Context, key string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	var exists bool
	if scanErr := pool.QueryRow(ctx, hasAPIKeySQL, key).Scan(&exists); scanErr != nil {
		return false, fmt.Errorf("check api key: %w", scanErr)
	}
	return exists, nil
}

// InsertAPIKey stores a newly generated key.
func (s *Store) InsertAPIKey(ctx context.Context, key, label string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, insertAPIKeySQL, key, label); execErr != nil {
		return fmt.Errorf("insert api key: %w", execErr)
	}
	return nil
}

// ListAPIKeys lists all generated keys.
func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKeyRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listAPIKeysSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list api keys: %w", queryErr)
	}
	defer rows.Close()

	var keys []APIKeyRecord
	for rows.Next() {
		var rec APIKeyRecord
		if err := rows.Scan(&rec.Key, &rec.Label, &rec.CreatedAt); err != nil {
			return nil, err
		}
		keys = append(keys, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return keys, nil
}

func collectSnapshots(rows pgx.Rows, sizeHint int) ([]SnapshotRecord, error) {
	records := make([]SnapshotRecord, 0, sizeHint)
	for rows.Next() {
		rec, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanSnapshot(rows pgx.Rows) (SnapshotRecord, error) {
	var (
		ts        time.Time
		values    [6]sql.NullString
		createdAt time.Time
	)

	if err := rows.Scan(&ts, &values[0], &values[1], &values[2], &values[3], &values[4], &values[5], &createdAt); err != nil {
		return SnapshotRecord{}, err
	}

	parsed := make([]*decimal.Decimal, 6)
	for i, v := range values {
		if !v.Valid {
			continue
		}
		d, err := decimal.NewFromString(v.String)
		if err != nil {
			return SnapshotRecord{}, fmt.Errorf("parse snapshot value: %w", err)
		}
		parsed[i] = &d
	}

	return SnapshotRecord{
		Ts:            ts,
		LatestGross:   parsed[0],
		LatestTraffic: parsed[1],
		HourGross:     parsed[2],
		HourTraffic:   parsed[3],
		DayGross:      parsed[4],
		DayTraffic:    parsed[5],
		CreatedAt:     createdAt,
	}, nil
}

func decimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
