package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SourceRecord is one station-day record in the unified raw schema, after
// per-source field reconciliation but before canonical validation. Field
// names follow the Meteostat daily endpoint; optional measurements stay
// nil rather than being coerced to zero.
type SourceRecord struct {
	Date    string   `json:"date"`
	City    string   `json:"city"`
	Region  string   `json:"region"`
	Station string   `json:"station"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	TAvg    *float64 `json:"tavg"`
	TMin    *float64 `json:"tmin"`
	TMax    *float64 `json:"tmax"`
	Prcp    *float64 `json:"prcp"`
	WDir    *float64 `json:"wdir"`
	WSpd    *float64 `json:"wspd"`
	WPgt    *float64 `json:"wpgt"`
	Pres    *float64 `json:"pres"`
	Snow    *float64 `json:"snow"`
	TSun    *float64 `json:"tsun"`
	RHum    *float64 `json:"rhum"`
	Source  string   `json:"source"`
}

// Observation is one validated station-day record in the canonical dataset.
// Date, TempAvg, TempMin, and TempMax are guaranteed non-null by
// BuildCanonical; every other measurement may be nil and downstream
// aggregates must skip nil values instead of treating them as zero.
// Observations are immutable once built; a pipeline re-run supersedes the
// whole set rather than mutating rows.
type Observation struct {
	Date    time.Time `json:"date"`
	Year    int       `json:"year"`
	Month   int       `json:"month"`
	City    string    `json:"city"`
	Region  string    `json:"region"`
	Station string    `json:"station"`

	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`

	TempAvg float64 `json:"temp_avg"`
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`

	Precip          *float64 `json:"precip,omitempty"`
	WindDir         *float64 `json:"wind_dir,omitempty"`
	WindAvg         *float64 `json:"wind_avg,omitempty"`
	WindGust        *float64 `json:"wind_gust,omitempty"`
	Pressure        *float64 `json:"pressure,omitempty"`
	SnowDepth       *float64 `json:"snow_depth,omitempty"`
	SunshineMinutes *float64 `json:"sunshine_minutes,omitempty"`
	HumidityPercent *float64 `json:"humidity_percent,omitempty"`

	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingestion_timestamp"`
}
