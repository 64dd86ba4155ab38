package analytics

import (
	"sort"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// Extreme-day thresholds applied per row before aggregation. Fixed
// literals; units match the canonical schema (°C, mm, km/h, percent).
const (
	hotDayTempMax    = 30.0
	frostDayTempMin  = 0.0
	heavyRainPrecip  = 10.0
	windyDayWindAvg  = 30.0
	humidDayHumidity = 80.0
)

// YearlySummary is one row of the city_yearly_summary view: descriptive
// aggregates over all observations of a (city, region, year) group.
// Pointer fields derive from nullable measurements and stay nil when the
// group has no data for them.
type YearlySummary struct {
	City   string `json:"city"`
	Region string `json:"region"`
	Year   int    `json:"year"`

	DaysObserved int     `json:"days_observed"`
	AvgTemp      float64 `json:"avg_temp"`
	AvgTempMin   float64 `json:"avg_temp_min"`
	AvgTempMax   float64 `json:"avg_temp_max"`
	ColdestDay   float64 `json:"coldest_day"`
	HottestDay   float64 `json:"hottest_day"`

	TotalPrecip   *float64 `json:"total_precip,omitempty"`
	AvgWind       *float64 `json:"avg_wind,omitempty"`
	MaxGust       *float64 `json:"max_gust,omitempty"`
	AvgHumidity   *float64 `json:"avg_humidity,omitempty"`
	AvgPressure   *float64 `json:"avg_pressure,omitempty"`
	TotalSunshine *float64 `json:"total_sunshine,omitempty"`
}

// MonthlyStat is one row of the city_monthly_stats view, keyed by
// (city, region, station, year, month).
type MonthlyStat struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Station string `json:"station"`
	Year    int    `json:"year"`
	Month   int    `json:"month"`

	DaysObserved int     `json:"days_observed"`
	AvgTemp      float64 `json:"avg_temp"`
	MinTemp      float64 `json:"min_temp"`
	MaxTemp      float64 `json:"max_temp"`

	TotalPrecip *float64 `json:"total_precip,omitempty"`
	AvgWind     *float64 `json:"avg_wind,omitempty"`
	AvgHumidity *float64 `json:"avg_humidity,omitempty"`
}

// SeasonalSummary is one row of the seasonal_summary view, keyed by
// (city, region, season). Temperature spread carries the 25th/75th
// percentiles with linear interpolation.
type SeasonalSummary struct {
	City   string `json:"city"`
	Region string `json:"region"`
	Season string `json:"season"`

	DaysObserved int     `json:"days_observed"`
	AvgTemp      float64 `json:"avg_temp"`
	TempP25      float64 `json:"temp_p25"`
	TempP75      float64 `json:"temp_p75"`
	MinTemp      float64 `json:"min_temp"`
	MaxTemp      float64 `json:"max_temp"`

	TotalPrecip *float64 `json:"total_precip,omitempty"`
	AvgHumidity *float64 `json:"avg_humidity,omitempty"`
	AvgWind     *float64 `json:"avg_wind,omitempty"`
}

// ExtremeDays is one row of the city_extreme_days view: per (city, region,
// year) counts of days tripping the fixed extreme-condition thresholds,
// plus percentage-of-total metrics guarded against empty groups.
type ExtremeDays struct {
	City   string `json:"city"`
	Region string `json:"region"`
	Year   int    `json:"year"`

	TotalDays     int `json:"total_days"`
	HotDays       int `json:"hot_days"`
	FrostDays     int `json:"frost_days"`
	HeavyRainDays int `json:"heavy_rain_days"`
	WindyDays     int `json:"windy_days"`
	HumidDays     int `json:"humid_days"`

	PctHotDays   float64 `json:"pct_hot_days"`
	PctFrostDays float64 `json:"pct_frost_days"`
}

// seasonOf classifies a month into one of four fixed buckets. Boundaries
// are Northern-hemisphere meteorological seasons (Dec–Feb winter), a
// documented limitation inherited from the source data's Spanish stations.
func seasonOf(month int) string {
	switch month {
	case 12, 1, 2:
		return "winter"
	case 3, 4, 5:
		return "spring"
	case 6, 7, 8:
		return "summer"
	default:
		return "autumn"
	}
}

type yearKey struct {
	city   string
	region string
	year   int
}

type yearlyAcc struct {
	days                      int
	tempAvg, tempMin, tempMax nullableAgg
	precip, wind, gust        nullableAgg
	humidity, pressure        nullableAgg
	sunshine                  nullableAgg
	coldest, hottest          float64
}

// YearlySummaries computes the city_yearly_summary view. Output rows are
// ordered by (city, region, year) so identical inputs produce identical
// views.
func YearlySummaries(obs []domain.Observation) []YearlySummary {
	groups := make(map[yearKey]*yearlyAcc)
	for _, o := range obs {
		k := yearKey{o.City, o.Region, o.Year}
		acc, ok := groups[k]
		if !ok {
			acc = &yearlyAcc{coldest: o.TempMin, hottest: o.TempMax}
			groups[k] = acc
		}
		acc.days++
		acc.tempAvg.add(&o.TempAvg)
		acc.tempMin.add(&o.TempMin)
		acc.tempMax.add(&o.TempMax)
		acc.precip.add(o.Precip)
		acc.wind.add(o.WindAvg)
		acc.gust.add(o.WindGust)
		acc.humidity.add(o.HumidityPercent)
		acc.pressure.add(o.Pressure)
		acc.sunshine.add(o.SunshineMinutes)
		if o.TempMin < acc.coldest {
			acc.coldest = o.TempMin
		}
		if o.TempMax > acc.hottest {
			acc.hottest = o.TempMax
		}
	}

	summaries := make([]YearlySummary, 0, len(groups))
	for k, acc := range groups {
		summaries = append(summaries, YearlySummary{
			City:          k.city,
			Region:        k.region,
			Year:          k.year,
			DaysObserved:  acc.days,
			AvgTemp:       acc.tempAvg.sum / float64(acc.days),
			AvgTempMin:    acc.tempMin.sum / float64(acc.days),
			AvgTempMax:    acc.tempMax.sum / float64(acc.days),
			ColdestDay:    acc.coldest,
			HottestDay:    acc.hottest,
			TotalPrecip:   acc.precip.total(),
			AvgWind:       acc.wind.avg(),
			MaxGust:       maxOrNil(&acc.gust),
			AvgHumidity:   acc.humidity.avg(),
			AvgPressure:   acc.pressure.avg(),
			TotalSunshine: acc.sunshine.total(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Year < b.Year
	})
	return summaries
}

func maxOrNil(a *nullableAgg) *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.max
	return &v
}

type monthKey struct {
	city    string
	region  string
	station string
	year    int
	month   int
}

type monthlyAcc struct {
	days             int
	tempSum          float64
	minTemp, maxTemp float64
	precip, wind     nullableAgg
	humidity         nullableAgg
}

// MonthlyStats computes the city_monthly_stats view, ordered by
// (city, region, station, year, month).
func MonthlyStats(obs []domain.Observation) []MonthlyStat {
	groups := make(map[monthKey]*monthlyAcc)
	for _, o := range obs {
		k := monthKey{o.City, o.Region, o.Station, o.Year, o.Month}
		acc, ok := groups[k]
		if !ok {
			acc = &monthlyAcc{minTemp: o.TempMin, maxTemp: o.TempMax}
			groups[k] = acc
		}
		acc.days++
		acc.tempSum += o.TempAvg
		acc.precip.add(o.Precip)
		acc.wind.add(o.WindAvg)
		acc.humidity.add(o.HumidityPercent)
		if o.TempMin < acc.minTemp {
			acc.minTemp = o.TempMin
		}
		if o.TempMax > acc.maxTemp {
			acc.maxTemp = o.TempMax
		}
	}

	stats := make([]MonthlyStat, 0, len(groups))
	for k, acc := range groups {
		stats = append(stats, MonthlyStat{
			City:         k.city,
			Region:       k.region,
			Station:      k.station,
			Year:         k.year,
			Month:        k.month,
			DaysObserved: acc.days,
			AvgTemp:      acc.tempSum / float64(acc.days),
			MinTemp:      acc.minTemp,
			MaxTemp:      acc.maxTemp,
			TotalPrecip:  acc.precip.total(),
			AvgWind:      acc.wind.avg(),
			AvgHumidity:  acc.humidity.avg(),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})
	return stats
}

type seasonKey struct {
	city   string
	region string
	season string
}

type seasonalAcc struct {
	temps            []float64
	minTemp, maxTemp float64
	precip, humidity nullableAgg
	wind             nullableAgg
}

// SeasonalSummaries computes the seasonal_summary view, ordered by
// (city, region, season).
func SeasonalSummaries(obs []domain.Observation) []SeasonalSummary {
	groups := make(map[seasonKey]*seasonalAcc)
	for _, o := range obs {
		k := seasonKey{o.City, o.Region, seasonOf(o.Month)}
		acc, ok := groups[k]
		if !ok {
			acc = &seasonalAcc{minTemp: o.TempMin, maxTemp: o.TempMax}
			groups[k] = acc
		}
		acc.temps = append(acc.temps, o.TempAvg)
		acc.precip.add(o.Precip)
		acc.humidity.add(o.HumidityPercent)
		acc.wind.add(o.WindAvg)
		if o.TempMin < acc.minTemp {
			acc.minTemp = o.TempMin
		}
		if o.TempMax > acc.maxTemp {
			acc.maxTemp = o.TempMax
		}
	}

	summaries := make([]SeasonalSummary, 0, len(groups))
	for k, acc := range groups {
		summaries = append(summaries, SeasonalSummary{
			City:         k.city,
			Region:       k.region,
			Season:       k.season,
			DaysObserved: len(acc.temps),
			AvgTemp:      mean(acc.temps),
			TempP25:      percentile(acc.temps, 25),
			TempP75:      percentile(acc.temps, 75),
			MinTemp:      acc.minTemp,
			MaxTemp:      acc.maxTemp,
			TotalPrecip:  acc.precip.total(),
			AvgHumidity:  acc.humidity.avg(),
			AvgWind:      acc.wind.avg(),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Season < b.Season
	})
	return summaries
}

// ExtremeDayCounts computes the city_extreme_days view, ordered by
// (city, region, year). Percentages are 0 when a group has no days, never
// a division error.
func ExtremeDayCounts(obs []domain.Observation) []ExtremeDays {
	groups := make(map[yearKey]*ExtremeDays)
	for _, o := range obs {
		k := yearKey{o.City, o.Region, o.Year}
		row, ok := groups[k]
		if !ok {
			row = &ExtremeDays{City: k.city, Region: k.region, Year: k.year}
			groups[k] = row
		}
		row.TotalDays++
		if o.TempMax > hotDayTempMax {
			row.HotDays++
		}
		if o.TempMin < frostDayTempMin {
			row.FrostDays++
		}
		if o.Precip != nil && *o.Precip > heavyRainPrecip {
			row.HeavyRainDays++
		}
		if o.WindAvg != nil && *o.WindAvg > windyDayWindAvg {
			row.WindyDays++
		}
		if o.HumidityPercent != nil && *o.HumidityPercent > humidDayHumidity {
			row.HumidDays++
		}
	}

	rows := make([]ExtremeDays, 0, len(groups))
	for _, row := range groups {
		if row.TotalDays > 0 {
			row.PctHotDays = 100 * float64(row.HotDays) / float64(row.TotalDays)
			row.PctFrostDays = 100 * float64(row.FrostDays) / float64(row.TotalDays)
		}
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.City != b.City {
			return a.City < b.City
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.Year < b.Year
	})
	return rows
}
