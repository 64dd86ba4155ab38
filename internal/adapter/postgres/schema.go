package postgres

import (
	"context"
	"fmt"
)

// schemaStatements creates every table the service writes to. Statements are
// idempotent so startup can always run them.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS observations (
		date              date NOT NULL,
		year              integer NOT NULL,
		month             integer NOT NULL,
		city              text NOT NULL,
		region            text NOT NULL,
		station           text NOT NULL,
		lat               double precision,
		lon               double precision,
		temp_avg          double precision NOT NULL,
		temp_min          double precision NOT NULL,
		temp_max          double precision NOT NULL,
		precip            double precision,
		wind_dir          double precision,
		wind_avg          double precision,
		wind_gust         double precision,
		pressure          double precision,
		snow_depth        double precision,
		sunshine_minutes  double precision,
		humidity_percent  double precision,
		source            text NOT NULL,
		ingested_at       timestamptz NOT NULL,
		PRIMARY KEY (date, city, station, source)
	)`,
	`CREATE TABLE IF NOT EXISTS observation_snapshots (
		captured_at       timestamptz NOT NULL,
		date              date NOT NULL,
		year              integer NOT NULL,
		month             integer NOT NULL,
		city              text NOT NULL,
		region            text NOT NULL,
		station           text NOT NULL,
		lat               double precision,
		lon               double precision,
		temp_avg          double precision NOT NULL,
		temp_min          double precision NOT NULL,
		temp_max          double precision NOT NULL,
		precip            double precision,
		wind_dir          double precision,
		wind_avg          double precision,
		wind_gust         double precision,
		pressure          double precision,
		snow_depth        double precision,
		sunshine_minutes  double precision,
		humidity_percent  double precision,
		source            text NOT NULL,
		ingested_at       timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS observation_snapshots_captured_at_idx
		ON observation_snapshots (captured_at)`,
	`CREATE TABLE IF NOT EXISTS yearly_summary (
		city           text NOT NULL,
		region         text NOT NULL,
		year           integer NOT NULL,
		days_observed  integer NOT NULL,
		avg_temp       double precision NOT NULL,
		avg_temp_min   double precision NOT NULL,
		avg_temp_max   double precision NOT NULL,
		coldest_day    double precision NOT NULL,
		hottest_day    double precision NOT NULL,
		total_precip   double precision,
		avg_wind       double precision,
		max_gust       double precision,
		avg_humidity   double precision,
		avg_pressure   double precision,
		total_sunshine double precision,
		PRIMARY KEY (city, year)
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_stats (
		city          text NOT NULL,
		region        text NOT NULL,
		station       text NOT NULL,
		year          integer NOT NULL,
		month         integer NOT NULL,
		days_observed integer NOT NULL,
		avg_temp      double precision NOT NULL,
		min_temp      double precision NOT NULL,
		max_temp      double precision NOT NULL,
		total_precip  double precision,
		avg_wind      double precision,
		avg_humidity  double precision,
		PRIMARY KEY (city, station, year, month)
	)`,
	`CREATE TABLE IF NOT EXISTS seasonal_summary (
		city          text NOT NULL,
		region        text NOT NULL,
		season        text NOT NULL,
		days_observed integer NOT NULL,
		avg_temp      double precision NOT NULL,
		temp_p25      double precision NOT NULL,
		temp_p75      double precision NOT NULL,
		min_temp      double precision NOT NULL,
		max_temp      double precision NOT NULL,
		total_precip  double precision,
		avg_humidity  double precision,
		avg_wind      double precision,
		PRIMARY KEY (city, season)
	)`,
	`CREATE TABLE IF NOT EXISTS extreme_days (
		city            text NOT NULL,
		region          text NOT NULL,
		year            integer NOT NULL,
		total_days      integer NOT NULL,
		hot_days        integer NOT NULL,
		frost_days      integer NOT NULL,
		heavy_rain_days integer NOT NULL,
		windy_days      integer NOT NULL,
		humid_days      integer NOT NULL,
		pct_hot_days    double precision NOT NULL,
		pct_frost_days  double precision NOT NULL,
		PRIMARY KEY (city, year)
	)`,
	`CREATE TABLE IF NOT EXISTS city_profiles (
		city                   text NOT NULL,
		region                 text NOT NULL,
		metrics                jsonb NOT NULL,
		climate_classification text NOT NULL,
		climate_comfort        integer NOT NULL,
		PRIMARY KEY (city)
	)`,
	`CREATE TABLE IF NOT EXISTS outliers (
		city              text NOT NULL,
		region            text NOT NULL,
		outlier_score     double precision NOT NULL,
		outlier_level     text NOT NULL,
		dominant_variable text NOT NULL,
		PRIMARY KEY (city)
	)`,
	`CREATE TABLE IF NOT EXISTS similarity (
		city                text NOT NULL,
		similar_city        text NOT NULL,
		similarity_distance double precision NOT NULL,
		similarity_score    double precision NOT NULL,
		rank                integer NOT NULL,
		PRIMARY KEY (city, similar_city)
	)`,
	`CREATE TABLE IF NOT EXISTS alerts (
		date                date NOT NULL,
		city                text NOT NULL,
		region              text NOT NULL,
		station             text NOT NULL,
		source              text NOT NULL,
		temp_max            double precision NOT NULL,
		temp_min            double precision NOT NULL,
		precip              double precision,
		humidity            double precision,
		temperature_alert   text NOT NULL,
		precipitation_alert text NOT NULL,
		humidity_alert      text NOT NULL,
		overall_alert       text NOT NULL,
		alert_severity      integer NOT NULL,
		PRIMARY KEY (date, city, station, source)
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
