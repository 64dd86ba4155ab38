package analytics

import (
	"time"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// alertTier orders alert colors by severity for the overall roll-up.
type alertTier int

const (
	tierNormal alertTier = iota
	tierYellow
	tierOrange
	tierRed
)

func (t alertTier) String() string {
	switch t {
	case tierYellow:
		return "yellow"
	case tierOrange:
		return "orange"
	case tierRed:
		return "red"
	default:
		return "normal"
	}
}

// AlertLabelNone marks a dimension that tripped nothing on a row that is
// in the view because another dimension tripped.
const AlertLabelNone = "normal"

// AlertRecord is one row of the weather_alerts view. The view is a
// filtered projection: observations tripping no threshold are absent
// entirely, so a missing row means "no alert", not "unknown".
type AlertRecord struct {
	Date    time.Time `json:"date"`
	City    string    `json:"city"`
	Region  string    `json:"region"`
	Station string    `json:"station"`
	Source  string    `json:"source"`

	TempMax  float64  `json:"temp_max"`
	TempMin  float64  `json:"temp_min"`
	Precip   *float64 `json:"precip,omitempty"`
	Humidity *float64 `json:"humidity,omitempty"`

	TemperatureAlert   string `json:"temperature_alert"`
	PrecipitationAlert string `json:"precipitation_alert"`
	HumidityAlert      string `json:"humidity_alert"`
	OverallAlert       string `json:"overall_alert"`
	Severity           int    `json:"alert_severity"`
}

// thresholdRule is one rung of a first-match-wins ladder. Keeping the
// ladders as ordered slices (instead of nested conditionals) makes the
// ordering contract auditable and testable in isolation.
type thresholdRule struct {
	match func(o domain.Observation) bool
	label string
	tier  alertTier
}

func above(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}

func below(v *float64, threshold float64) bool {
	return v != nil && *v < threshold
}

var temperatureLadder = []thresholdRule{
	{func(o domain.Observation) bool { return o.TempMax > 40 }, "red/extreme-high", tierRed},
	{func(o domain.Observation) bool { return o.TempMax > 35 }, "red/very-high", tierRed},
	{func(o domain.Observation) bool { return o.TempMax > 30 }, "orange/high", tierOrange},
	{func(o domain.Observation) bool { return o.TempMax > 25 }, "yellow/elevated", tierYellow},
	{func(o domain.Observation) bool { return o.TempMin < -10 }, "red/extreme-low", tierRed},
	{func(o domain.Observation) bool { return o.TempMin < -5 }, "orange/low", tierOrange},
	{func(o domain.Observation) bool { return o.TempMin < 0 }, "yellow/cold", tierYellow},
}

var precipitationLadder = []thresholdRule{
	{func(o domain.Observation) bool { return above(o.Precip, 100) }, "red/torrential", tierRed},
	{func(o domain.Observation) bool { return above(o.Precip, 50) }, "orange/heavy", tierOrange},
	{func(o domain.Observation) bool { return above(o.Precip, 25) }, "yellow/moderate", tierYellow},
}

var humidityLadder = []thresholdRule{
	{func(o domain.Observation) bool { return above(o.HumidityPercent, 95) }, "yellow/very-humid", tierYellow},
	{func(o domain.Observation) bool { return below(o.HumidityPercent, 20) }, "yellow/very-dry", tierYellow},
}

// severityLadder maps the same threshold boundaries onto the 1–5 numeric
// scale. Severity 1 ("nothing tripped") never reaches the view because the
// projection filter removes those rows first.
var severityLadder = []struct {
	match    func(o domain.Observation) bool
	severity int
}{
	{func(o domain.Observation) bool {
		return o.TempMax > 40 || o.TempMin < -10 || above(o.Precip, 100)
	}, 5},
	{func(o domain.Observation) bool { return o.TempMax > 35 }, 4},
	{func(o domain.Observation) bool {
		return o.TempMax > 30 || o.TempMin < -5 || above(o.Precip, 50)
	}, 3},
	{func(o domain.Observation) bool {
		return o.TempMax > 25 || o.TempMin < 0 || above(o.Precip, 25) ||
			above(o.HumidityPercent, 95) || below(o.HumidityPercent, 20)
	}, 2},
}

func evalLadder(ladder []thresholdRule, o domain.Observation) string {
	for _, rule := range ladder {
		if rule.match(o) {
			return rule.label
		}
	}
	return AlertLabelNone
}

// overallTier rolls up every tripped condition, not just the first match
// per dimension. A day can be only mildly hot yet brutally cold overnight;
// the overall color must reflect the worst condition anywhere on the row.
func overallTier(o domain.Observation) alertTier {
	worst := tierNormal
	for _, ladder := range [][]thresholdRule{temperatureLadder, precipitationLadder, humidityLadder} {
		for _, rule := range ladder {
			if rule.tier > worst && rule.match(o) {
				worst = rule.tier
			}
		}
	}
	return worst
}

// tripsAnyThreshold is the projection filter for the alert view.
func tripsAnyThreshold(o domain.Observation) bool {
	return o.TempMax > 25 || o.TempMin < 0 || above(o.Precip, 25) ||
		above(o.HumidityPercent, 95) || below(o.HumidityPercent, 20)
}

// AlertFor classifies a single observation. The boolean is false when the
// observation trips nothing and therefore belongs outside the view. Pure
// per-observation function: no state, no ordering dependence.
func AlertFor(o domain.Observation) (AlertRecord, bool) {
	if !tripsAnyThreshold(o) {
		return AlertRecord{}, false
	}

	tempLabel := evalLadder(temperatureLadder, o)
	precipLabel := evalLadder(precipitationLadder, o)
	humidityLabel := evalLadder(humidityLadder, o)

	overall := overallTier(o)

	severity := 1
	for _, rung := range severityLadder {
		if rung.match(o) {
			severity = rung.severity
			break
		}
	}

	return AlertRecord{
		Date:               o.Date,
		City:               o.City,
		Region:             o.Region,
		Station:            o.Station,
		Source:             o.Source,
		TempMax:            o.TempMax,
		TempMin:            o.TempMin,
		Precip:             o.Precip,
		Humidity:           o.HumidityPercent,
		TemperatureAlert:   tempLabel,
		PrecipitationAlert: precipLabel,
		HumidityAlert:      humidityLabel,
		OverallAlert:       overall.String(),
		Severity:           severity,
	}, true
}

// Alerts computes the weather_alerts view in canonical-set order.
func Alerts(obs []domain.Observation) []AlertRecord {
	records := make([]AlertRecord, 0, len(obs))
	for _, o := range obs {
		if rec, ok := AlertFor(o); ok {
			records = append(records, rec)
		}
	}
	return records
}
