package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// Store persists the canonical observation dataset and the derived views.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const upsertObservationSQL = `INSERT INTO observations (
	date, year, month, city, region, station, lat, lon,
	temp_avg, temp_min, temp_max, precip, wind_dir, wind_avg, wind_gust,
	pressure, snow_depth, sunshine_minutes, humidity_percent, source, ingested_at
)
 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
 ON CONFLICT (date, city, station, source) DO UPDATE SET
   year = $2, month = $3, region = $5, lat = $7, lon = $8,
   temp_avg = $9, temp_min = $10, temp_max = $11, precip = $12, wind_dir = $13,
   wind_avg = $14, wind_gust = $15, pressure = $16, snow_depth = $17,
   sunshine_minutes = $18, humidity_percent = $19, ingested_at = $21`

// UpsertObservations loads a batch of canonical observations. The key
// (date, city, station, source) makes replays idempotent: a redelivered
// record overwrites its previous version instead of duplicating it, while
// distinct stations of the same city keep their own rows.
func (s *Store) UpsertObservations(ctx context.Context, observations []domain.Observation) error {
	batch := &pgx.Batch{}
	for _, o := range observations {
		batch.Queue(upsertObservationSQL,
			o.Date, o.Year, o.Month, o.City, o.Region, o.Station, o.Lat, o.Lon,
			o.TempAvg, o.TempMin, o.TempMax, o.Precip, o.WindDir, o.WindAvg, o.WindGust,
			o.Pressure, o.SnowDepth, o.SunshineMinutes, o.HumidityPercent, o.Source, o.IngestedAt,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range observations {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert observation: %w", err)
		}
	}
	return nil
}

// LoadObservations returns the full canonical dataset in a stable order so
// refreshes over the same data always see the same input sequence.
func (s *Store) LoadObservations(ctx context.Context) ([]domain.Observation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT date, year, month, city, region, station, lat, lon,
		        temp_avg, temp_min, temp_max, precip, wind_dir, wind_avg, wind_gust,
		        pressure, snow_depth, sunshine_minutes, humidity_percent, source, ingested_at
		 FROM observations
		 ORDER BY date, city, station, source`,
	)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	defer rows.Close()

	var result []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(
			&o.Date, &o.Year, &o.Month, &o.City, &o.Region, &o.Station, &o.Lat, &o.Lon,
			&o.TempAvg, &o.TempMin, &o.TempMax, &o.Precip, &o.WindDir, &o.WindAvg, &o.WindGust,
			&o.Pressure, &o.SnowDepth, &o.SunshineMinutes, &o.HumidityPercent, &o.Source, &o.IngestedAt,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// SnapshotObservations copies the current canonical dataset into the
// snapshot table under the given timestamp and reports the row count.
func (s *Store) SnapshotObservations(ctx context.Context, capturedAt time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO observation_snapshots (
			captured_at, date, year, month, city, region, station, lat, lon,
			temp_avg, temp_min, temp_max, precip, wind_dir, wind_avg, wind_gust,
			pressure, snow_depth, sunshine_minutes, humidity_percent, source, ingested_at
		)
		 SELECT $1, date, year, month, city, region, station, lat, lon,
		        temp_avg, temp_min, temp_max, precip, wind_dir, wind_avg, wind_gust,
		        pressure, snow_depth, sunshine_minutes, humidity_percent, source, ingested_at
		 FROM observations`,
		capturedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("snapshot observations: %w", err)
	}
	return tag.RowsAffected(), nil
}
