package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iamasky/tx-observer/internal/market"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	upsertPriceSampleSQL = `INSERT INTO price_samples (
        ts,
        open,
        high,
        low,
        close,
        volume,
        session
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (ts) DO UPDATE
    SET
        open    = EXCLUDED.open,
        high    = EXCLUDED.high,
        low     = EXCLUDED.low,
        close   = EXCLUDED.close,
        volume  = EXCLUDED.volume,
        session = EXCLUDED.session;`

	listSamplesBetweenSQL = `SELECT
        ts, open, high, low, close, volume, session, created_at
    FROM price_samples
    WHERE ts >= $1
      AND ts < $2
    ORDER BY ts;`

	listRecentSamplesSQL = `SELECT
        ts, open, high, low, close, volume, session, created_at
    FROM price_samples
    ORDER BY ts DESC
    LIMIT $1;`

	countSamplesSQL = `SELECT COUNT(*) FROM price_samples;`
)

// PriceSampleStore defines operations for price sample persistence.
type PriceSampleStore interface {
	UpsertPricePoints(ctx context.Context, session string, points []market.PricePoint) error
	ListSamplesBetween(ctx context.Context, from, to time.Time) ([]PriceSample, error)
	ListRecentSamples(ctx context.Context, limit int) ([]PriceSample, error)
	CountSamples(ctx context.Context) (int64, error)
}

// Store provides Postgres-backed access to price samples.
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

// UpsertPricePoints persists a batch of ingested points in one round trip.
func (s *Store) UpsertPricePoints(ctx context.Context, session string, points []market.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		sample := FromPoint(p, session)
		batch.Queue(upsertPriceSampleSQL,
			sample.TS,
			sample.Open.String(),
			sample.High.String(),
			sample.Low.String(),
			sample.Close.String(),
			sample.Volume,
			sample.Session,
		)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, execErr := results.Exec(); execErr != nil {
			return fmt.Errorf("upsert price sample: %w", execErr)
		}
	}
	return nil
}

// ListSamplesBetween lists samples within a time window, ascending.
func (s *Store) ListSamplesBetween(ctx context.Context, from, to time.Time) ([]PriceSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSamplesBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list samples between: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, 0)
}

// ListRecentSamples lists the newest samples, descending by timestamp.
func (s *Store) ListRecentSamples(ctx context.Context, limit int) ([]PriceSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSamplesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent samples: %w", queryErr)
	}
	defer rows.Close()

	return collectSamples(rows, limit)
}

// CountSamples counts stored samples.
func (s *Store) CountSamples(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSamplesSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count samples: %w", scanErr)
	}
	return count, nil
}

func collectSamples(rows pgx.Rows, sizeHint int) ([]PriceSample, error) {
	samples := make([]PriceSample, 0, sizeHint)
	for rows.Next() {
		sample, scanErr := scanPriceSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

func scanPriceSample(rows pgx.Rows) (PriceSample, error) {
	var (
		ts        time.Time
		openStr   string
		highStr   string
		lowStr    string
		closeStr  string
		volume    int64
		session   string
		createdAt time.Time
	)

	if err := rows.Scan(&ts, &openStr, &highStr, &lowStr, &closeStr, &volume, &session, &createdAt); err != nil {
		return PriceSample{}, err
	}

	sample := PriceSample{
		TS:        ts,
		Volume:    volume,
		Session:   session,
		CreatedAt: createdAt,
	}

	var err error
	if sample.Open, err = decimal.NewFromString(openStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse open: %w", err)
	}
	if sample.High, err = decimal.NewFromString(highStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse high: %w", err)
	}
	if sample.Low, err = decimal.NewFromString(lowStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse low: %w", err)
	}
	if sample.Close, err = decimal.NewFromString(closeStr); err != nil {
		return PriceSample{}, fmt.Errorf("parse close: %w", err)
	}

	return sample, nil
}

var _ PriceSampleStore = (*Store)(nil)
