package analytics

import (
	"sort"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// MetricStats is the descriptive-statistics vector for one metric of one
// city. Count is the number of non-nil daily values behind it; all other
// fields are zero when Count is 0. Ranks are 1-based, descending by mean,
// dense within their partition.
type MetricStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	StdDev float64 `json:"stddev"`

	RankGlobal int `json:"rank_global"`
	RankRegion int `json:"rank_region"`
}

// CityStatProfile is one row of the city_stat_profiles view: the full
// cross-city comparison basis for a single city, plus its climate
// classification and comfort score.
type CityStatProfile struct {
	City   string `json:"city"`
	Region string `json:"region"`

	Metrics [NumMetrics]MetricStats `json:"metrics"`

	ClimateClass string `json:"climate_classification"`
	ComfortScore int    `json:"climate_comfort"`
}

// climateRule is one rung of the classification ladder. Rules are
// evaluated in order and the first match wins, so warmer and drier
// classes must precede cooler and wetter ones.
type climateRule struct {
	label string
	match func(avgTemp, totalPrecip float64) bool
}

// Thresholds tuned for Iberian station data, spanning the five classes
// from dry Mediterranean through cold.
var climateLadder = []climateRule{
	{"dry mediterranean", func(t, p float64) bool { return t > 18 && p < 400 }},
	{"mediterranean", func(t, p float64) bool { return t > 15 && p < 700 }},
	{"temperate", func(t, p float64) bool { return t > 12 }},
	{"cool", func(t, p float64) bool { return t > 8 }},
	{"cold", func(t, p float64) bool { return true }},
}

func classifyClimate(avgTemp, totalPrecip float64) string {
	for _, rule := range climateLadder {
		if rule.match(avgTemp, totalPrecip) {
			return rule.label
		}
	}
	return climateLadder[len(climateLadder)-1].label
}

// comfortScore buckets a city into one of four discrete comfort levels
// from nested range rules over mean temperature, total precipitation, and
// mean humidity. First match wins.
func comfortScore(avgTemp, totalPrecip, avgHumidity float64) int {
	switch {
	case avgTemp >= 15 && avgTemp <= 25 && totalPrecip < 800 &&
		avgHumidity >= 40 && avgHumidity <= 70:
		return 100
	case avgTemp >= 10 && avgTemp <= 28 && totalPrecip < 1200 &&
		avgHumidity >= 30 && avgHumidity <= 85:
		return 80
	case avgTemp >= 5 && avgTemp <= 32:
		return 60
	default:
		return 40
	}
}

// neutralHumidity substitutes for cities whose stations never report
// humidity, so a missing sensor does not read as "uncomfortable".
const neutralHumidity = 55.0

// CityProfiles computes the city_stat_profiles view. Cities appear in
// first-appearance order of the canonical set; rank assignment sorts
// stably, so exactly tied means rank in that same order (the multiset of
// ranks is always a permutation of 1..N per partition).
//
// Ranking is two-pass by design: descriptive statistics are computed per
// city first, then each rank ordering joins every profile against its
// partition, avoiding any reliance on a windowing primitive.
func CityProfiles(obs []domain.Observation) []CityStatProfile {
	type cityAcc struct {
		region string
		values [NumMetrics][]float64
	}

	var order []string
	accs := make(map[string]*cityAcc)
	for _, o := range obs {
		acc, ok := accs[o.City]
		if !ok {
			acc = &cityAcc{region: o.Region}
			accs[o.City] = acc
			order = append(order, o.City)
		}
		for _, m := range Metrics() {
			if v := metricValue(o, m); v != nil {
				acc.values[m] = append(acc.values[m], *v)
			}
		}
	}

	profiles := make([]CityStatProfile, 0, len(order))
	for _, city := range order {
		acc := accs[city]
		p := CityStatProfile{City: city, Region: acc.region}
		for _, m := range Metrics() {
			p.Metrics[m] = describe(acc.values[m])
		}

		avgTemp := p.Metrics[MetricTemperature].Mean
		totalPrecip := p.Metrics[MetricPrecipitation].Sum
		avgHumidity := neutralHumidity
		if p.Metrics[MetricHumidity].Count > 0 {
			avgHumidity = p.Metrics[MetricHumidity].Mean
		}
		p.ClimateClass = classifyClimate(avgTemp, totalPrecip)
		p.ComfortScore = comfortScore(avgTemp, totalPrecip, avgHumidity)

		profiles = append(profiles, p)
	}

	for _, m := range Metrics() {
		assignRanks(profiles, m)
	}
	return profiles
}

func describe(values []float64) MetricStats {
	if len(values) == 0 {
		return MetricStats{}
	}
	s := MetricStats{
		Count:  len(values),
		Mean:   mean(values),
		Min:    values[0],
		Max:    values[0],
		P10:    percentile(values, 10),
		P90:    percentile(values, 90),
		StdDev: sampleStdDev(values),
	}
	for _, v := range values {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// assignRanks writes the global and region-partitioned rank for metric m
// into each profile. Both orderings are descending by mean with stable
// tie order.
func assignRanks(profiles []CityStatProfile, m Metric) {
	idx := make([]int, len(profiles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return profiles[idx[a]].Metrics[m].Mean > profiles[idx[b]].Metrics[m].Mean
	})
	for rank, i := range idx {
		profiles[i].Metrics[m].RankGlobal = rank + 1
	}

	regionRank := make(map[string]int)
	for _, i := range idx {
		region := profiles[i].Region
		regionRank[region]++
		profiles[i].Metrics[m].RankRegion = regionRank[region]
	}
}
