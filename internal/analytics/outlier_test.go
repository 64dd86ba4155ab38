package analytics

import (
	"testing"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// profileWith builds a profile whose five metric means are the given values,
// each backed by a nonzero count.
func profileWith(city, region string, temp, prcp, hum, sun, wind float64) CityStatProfile {
	p := CityStatProfile{City: city, Region: region}
	means := [NumMetrics]float64{temp, prcp, hum, sun, wind}
	for _, m := range Metrics() {
		p.Metrics[m] = MetricStats{Count: 10, Mean: means[m]}
	}
	return p
}

func TestZScoreVectors(t *testing.T) {
	t.Run("standardized scores have mean 0 and sample stddev 1", func(t *testing.T) {
		profiles := []CityStatProfile{
			profileWith("a", "r", 10, 1, 40, 300, 10),
			profileWith("b", "r", 15, 2, 55, 400, 12),
			profileWith("c", "r", 20, 3, 70, 500, 14),
			profileWith("d", "r", 25, 5, 85, 600, 20),
		}

		vectors := ZScoreVectors(profiles)
		require.Len(t, vectors, 4)

		for _, m := range Metrics() {
			var zs []float64
			for _, v := range vectors {
				zs = append(zs, v.Scores[m])
			}
			assert.InDelta(t, 0, mean(zs), 1e-9, "metric %s", m)
			assert.InDelta(t, 1, sampleStdDev(zs), 1e-9, "metric %s", m)
		}
	})

	t.Run("constant metric across cities yields all-zero z", func(t *testing.T) {
		// Temperature means identical everywhere (the [10,20,30] vs
		// [20,20,20] daily series both average 20); wind varies.
		profiles := []CityStatProfile{
			profileWith("a", "r", 20, 1, 50, 400, 10),
			profileWith("b", "r", 20, 2, 60, 450, 30),
		}

		vectors := ZScoreVectors(profiles)

		for _, v := range vectors {
			assert.Zero(t, v.Scores[MetricTemperature])
		}
		assert.NotZero(t, vectors[0].Scores[MetricWind])
	})

	t.Run("city without data for a metric gets z 0", func(t *testing.T) {
		noHum := profileWith("dry", "r", 18, 1, 0, 400, 10)
		noHum.Metrics[MetricHumidity] = MetricStats{} // Count 0
		profiles := []CityStatProfile{
			noHum,
			profileWith("b", "r", 20, 2, 60, 450, 12),
			profileWith("c", "r", 22, 3, 80, 500, 14),
		}

		vectors := ZScoreVectors(profiles)

		assert.Zero(t, vectors[0].Scores[MetricHumidity])
		assert.NotZero(t, vectors[1].Scores[MetricHumidity])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ZScoreVectors(nil))
	})
}

func TestOutliers(t *testing.T) {
	t.Run("score is max absolute z with dominant attribution", func(t *testing.T) {
		v := ZScoreVector{City: "x", Region: "r"}
		v.Scores[MetricTemperature] = 0.4
		v.Scores[MetricPrecipitation] = -2.2
		v.Scores[MetricWind] = 1.1

		records := Outliers([]ZScoreVector{v})

		require.Len(t, records, 1)
		assert.InDelta(t, 2.2, records[0].OutlierScore, 1e-9)
		assert.Equal(t, "extreme", records[0].OutlierLevel)
		assert.Equal(t, "precipitation", records[0].DominantVariable)
	})

	t.Run("exact ties resolve by metric priority", func(t *testing.T) {
		v := ZScoreVector{City: "x"}
		v.Scores[MetricPrecipitation] = 1.8
		v.Scores[MetricHumidity] = -1.8
		v.Scores[MetricWind] = 1.8

		records := Outliers([]ZScoreVector{v})

		assert.Equal(t, "precipitation", records[0].DominantVariable)
	})

	t.Run("all-zero vector is a normal temperature record", func(t *testing.T) {
		records := Outliers([]ZScoreVector{{City: "flat"}})

		require.Len(t, records, 1)
		assert.Zero(t, records[0].OutlierScore)
		assert.Equal(t, "normal", records[0].OutlierLevel)
		assert.Equal(t, "temperature", records[0].DominantVariable)
	})
}

func TestOutlierLevel_BandsClosedAbove(t *testing.T) {
	tests := []struct {
		score float64
		level string
	}{
		{0, "normal"},
		{1.49, "normal"},
		{1.5, "moderate"},
		{1.99, "moderate"},
		{2, "extreme"},
		{2.99, "extreme"},
		{3, "very extreme"},
		{7.5, "very extreme"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, outlierLevel(tt.score), "score %v", tt.score)
	}
}

// TestZScorePipeline_FromObservations exercises the documented example:
// city A's temperature series varies while city B's is constant, so B's
// per-city stddev is 0 while its cross-city z follows the usual formula.
func TestZScorePipeline_FromObservations(t *testing.T) {
	var obs []domain.Observation
	for i, temp := range []float64{10, 20, 30} {
		obs = append(obs, obsDay("a", "r", 2023, i+1, 1, temp, temp-5, temp+5))
	}
	for i := 0; i < 3; i++ {
		obs = append(obs, obsDay("b", "r", 2023, i+1, 1, 20, 15, 25))
	}

	profiles := CityProfiles(obs)
	require.Len(t, profiles, 2)
	assert.Greater(t, profiles[0].Metrics[MetricTemperature].StdDev, 0.0)
	assert.Zero(t, profiles[1].Metrics[MetricTemperature].StdDev)

	// Both cities average 20 °C, so the cross-city temperature variance is
	// degenerate and every z is exactly 0.
	vectors := ZScoreVectors(profiles)
	assert.Zero(t, vectors[0].Scores[MetricTemperature])
	assert.Zero(t, vectors[1].Scores[MetricTemperature])
}
