package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
)

// replaceView rewrites a view table inside one transaction: delete every
// row, then insert the recomputed ones. Readers see either the old view or
// the new one, never a mix.
func (s *Store) replaceView(ctx context.Context, table string, queue func(batch *pgx.Batch), rows int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", table, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	if rows > 0 {
		batch := &pgx.Batch{}
		queue(batch)
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < rows; i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert into %s: %w", table, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("flush %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace %s: %w", table, err)
	}
	return nil
}

func (s *Store) ReplaceYearlySummaries(ctx context.Context, rows []analytics.YearlySummary) error {
	return s.replaceView(ctx, "yearly_summary", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO yearly_summary (
					city, region, year, days_observed, avg_temp, avg_temp_min, avg_temp_max,
					coldest_day, hottest_day, total_precip, avg_wind, max_gust,
					avg_humidity, avg_pressure, total_sunshine
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
				r.City, r.Region, r.Year, r.DaysObserved, r.AvgTemp, r.AvgTempMin, r.AvgTempMax,
				r.ColdestDay, r.HottestDay, r.TotalPrecip, r.AvgWind, r.MaxGust,
				r.AvgHumidity, r.AvgPressure, r.TotalSunshine,
			)
		}
	}, len(rows))
}

func (s *Store) ReplaceMonthlyStats(ctx context.Context, rows []analytics.MonthlyStat) error {
	return s.replaceView(ctx, "monthly_stats", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO monthly_stats (
					city, region, station, year, month, days_observed,
					avg_temp, min_temp, max_temp, total_precip, avg_wind, avg_humidity
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				r.City, r.Region, r.Station, r.Year, r.Month, r.DaysObserved,
				r.AvgTemp, r.MinTemp, r.MaxTemp, r.TotalPrecip, r.AvgWind, r.AvgHumidity,
			)
		}
	}, len(rows))
}

func (s *Store) ReplaceSeasonalSummaries(ctx context.Context, rows []analytics.SeasonalSummary) error {
	return s.replaceView(ctx, "seasonal_summary", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO seasonal_summary (
					city, region, season, days_observed, avg_temp, temp_p25, temp_p75,
					min_temp, max_temp, total_precip, avg_humidity, avg_wind
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				r.City, r.Region, r.Season, r.DaysObserved, r.AvgTemp, r.TempP25, r.TempP75,
				r.MinTemp, r.MaxTemp, r.TotalPrecip, r.AvgHumidity, r.AvgWind,
			)
		}
	}, len(rows))
}

func (s *Store) ReplaceExtremeDays(ctx context.Context, rows []analytics.ExtremeDays) error {
	return s.replaceView(ctx, "extreme_days", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO extreme_days (
					city, region, year, total_days, hot_days, frost_days,
					heavy_rain_days, windy_days, humid_days, pct_hot_days, pct_frost_days
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				r.City, r.Region, r.Year, r.TotalDays, r.HotDays, r.FrostDays,
				r.HeavyRainDays, r.WindyDays, r.HumidDays, r.PctHotDays, r.PctFrostDays,
			)
		}
	}, len(rows))
}

// ReplaceCityProfiles stores the per-metric stat block as jsonb. The rank
// and percentile fields stay queryable through jsonb operators without a
// forty-column table.
func (s *Store) ReplaceCityProfiles(ctx context.Context, rows []analytics.CityStatProfile) error {
	type row struct {
		profile analytics.CityStatProfile
		metrics []byte
	}
	encoded := make([]row, 0, len(rows))
	for _, r := range rows {
		m, err := json.Marshal(metricsDocument(r))
		if err != nil {
			return fmt.Errorf("encode city profile metrics: %w", err)
		}
		encoded = append(encoded, row{profile: r, metrics: m})
	}
	return s.replaceView(ctx, "city_profiles", func(batch *pgx.Batch) {
		for _, r := range encoded {
			batch.Queue(
				`INSERT INTO city_profiles (
					city, region, metrics, climate_classification, climate_comfort
				) VALUES ($1, $2, $3, $4, $5)`,
				r.profile.City, r.profile.Region, r.metrics,
				r.profile.ClimateClass, r.profile.ComfortScore,
			)
		}
	}, len(encoded))
}

// metricsDocument keys the stat block by metric name instead of array index
// so the jsonb document is self-describing.
func metricsDocument(p analytics.CityStatProfile) map[string]analytics.MetricStats {
	doc := make(map[string]analytics.MetricStats, analytics.NumMetrics)
	for _, m := range analytics.Metrics() {
		doc[m.String()] = p.Metrics[m]
	}
	return doc
}

func (s *Store) ReplaceOutliers(ctx context.Context, rows []analytics.OutlierRecord) error {
	return s.replaceView(ctx, "outliers", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO outliers (
					city, region, outlier_score, outlier_level, dominant_variable
				) VALUES ($1, $2, $3, $4, $5)`,
				r.City, r.Region, r.OutlierScore, r.OutlierLevel, r.DominantVariable,
			)
		}
	}, len(rows))
}

func (s *Store) ReplaceSimilarity(ctx context.Context, rows []analytics.SimilarityEdge) error {
	return s.replaceView(ctx, "similarity", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO similarity (
					city, similar_city, similarity_distance, similarity_score, rank
				) VALUES ($1, $2, $3, $4, $5)`,
				r.City, r.SimilarCity, r.Distance, r.Score, r.Rank,
			)
		}
	}, len(rows))
}

func (s *Store) ReplaceAlerts(ctx context.Context, rows []analytics.AlertRecord) error {
	return s.replaceView(ctx, "alerts", func(batch *pgx.Batch) {
		for _, r := range rows {
			batch.Queue(
				`INSERT INTO alerts (
					date, city, region, station, source, temp_max, temp_min, precip, humidity,
					temperature_alert, precipitation_alert, humidity_alert, overall_alert, alert_severity
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
				r.Date, r.City, r.Region, r.Station, r.Source, r.TempMax, r.TempMin, r.Precip, r.Humidity,
				r.TemperatureAlert, r.PrecipitationAlert, r.HumidityAlert, r.OverallAlert, r.Severity,
			)
		}
	}, len(rows))
}
