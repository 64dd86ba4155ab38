package analytics

import "math"

// ZScoreVector is a city's standardized position in the five-metric space.
// Every component is defined: metrics with zero cross-city variance (or no
// data for the city) standardize to 0 rather than an infinity, which
// deliberately suppresses outlier signal for degenerate metrics.
type ZScoreVector struct {
	City   string              `json:"city"`
	Region string              `json:"region"`
	Scores [NumMetrics]float64 `json:"scores"`
}

// Outlier level bands over the max-|z| score. Closed above: a score of
// exactly 3 is "very extreme".
type outlierBand struct {
	cutoff float64
	label  string
}

var outlierBands = []outlierBand{
	{3, "very extreme"},
	{2, "extreme"},
	{1.5, "moderate"},
}

// OutlierRecord is one row of the city_outliers view.
type OutlierRecord struct {
	City             string  `json:"city"`
	Region           string  `json:"region"`
	OutlierScore     float64 `json:"outlier_score"`
	OutlierLevel     string  `json:"outlier_level"`
	DominantVariable string  `json:"dominant_variable"`
}

// ZScoreVectors standardizes each city's per-metric mean against the
// cross-city distribution of those means. Cities whose stations never
// report a metric are excluded from that metric's mean and deviation and
// receive z=0 for it.
func ZScoreVectors(profiles []CityStatProfile) []ZScoreVector {
	vectors := make([]ZScoreVector, len(profiles))
	for i, p := range profiles {
		vectors[i] = ZScoreVector{City: p.City, Region: p.Region}
	}

	for _, m := range Metrics() {
		var values []float64
		for _, p := range profiles {
			if p.Metrics[m].Count > 0 {
				values = append(values, p.Metrics[m].Mean)
			}
		}
		mu := mean(values)
		sigma := sampleStdDev(values)
		if sigma == 0 {
			continue // constant metric: every z stays 0
		}
		for i, p := range profiles {
			if p.Metrics[m].Count > 0 {
				vectors[i].Scores[m] = (p.Metrics[m].Mean - mu) / sigma
			}
		}
	}
	return vectors
}

// Outliers scores each city by its largest absolute z-score and attributes
// it to the metric attaining that maximum. Exact ties resolve to the first
// metric in priority order (temperature before precipitation, and so on).
// Output preserves the input vector order.
func Outliers(vectors []ZScoreVector) []OutlierRecord {
	records := make([]OutlierRecord, 0, len(vectors))
	for _, v := range vectors {
		dominant := MetricTemperature
		score := math.Abs(v.Scores[MetricTemperature])
		ms := Metrics()
		for _, m := range ms[1:] {
			if abs := math.Abs(v.Scores[m]); abs > score {
				score = abs
				dominant = m
			}
		}
		records = append(records, OutlierRecord{
			City:             v.City,
			Region:           v.Region,
			OutlierScore:     score,
			OutlierLevel:     outlierLevel(score),
			DominantVariable: dominant.String(),
		})
	}
	return records
}

func outlierLevel(score float64) string {
	for _, band := range outlierBands {
		if score >= band.cutoff {
			return band.label
		}
	}
	return "normal"
}
