package domain

import (
	"time"
)

// DateLayout is the wire format for observation dates. Meteostat timestamps
// like "2023-07-14 00:00:00" are truncated to the date portion before parse.
const DateLayout = "2006-01-02"

// BuildObservation validates one reconciled record against the canonical
// contract. A record missing its date or any of the three core temperatures
// is rejected (hard filter, no partial-record repair); the boolean reports
// whether the record survived. The ingestion timestamp is stamped from the
// package clock at build time.
func BuildObservation(rec SourceRecord) (Observation, bool) {
	if rec.TAvg == nil || rec.TMin == nil || rec.TMax == nil {
		return Observation{}, false
	}

	dateStr := rec.Date
	if len(dateStr) > len(DateLayout) {
		dateStr = dateStr[:len(DateLayout)]
	}
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return Observation{}, false
	}

	return Observation{
		Date:    date,
		Year:    date.Year(),
		Month:   int(date.Month()),
		City:    rec.City,
		Region:  rec.Region,
		Station: rec.Station,

		Lat: rec.Lat,
		Lon: rec.Lon,

		TempAvg: *rec.TAvg,
		TempMin: *rec.TMin,
		TempMax: *rec.TMax,

		Precip:          rec.Prcp,
		WindDir:         rec.WDir,
		WindAvg:         rec.WSpd,
		WindGust:        rec.WPgt,
		Pressure:        rec.Pres,
		SnowDepth:       rec.Snow,
		SunshineMinutes: rec.TSun,
		HumidityPercent: rec.RHum,

		Source:     rec.Source,
		IngestedAt: clock.Now().UTC(),
	}, true
}

// BuildCanonical applies BuildObservation across a reconciled batch,
// keeping input order. Zero conforming records yields an empty (non-nil)
// set, not an error; every downstream stage accepts an empty canonical set.
func BuildCanonical(recs []SourceRecord) []Observation {
	observations := make([]Observation, 0, len(recs))
	for _, rec := range recs {
		obs, ok := BuildObservation(rec)
		if !ok {
			continue
		}
		observations = append(observations, obs)
	}
	return observations
}
