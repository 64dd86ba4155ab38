package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
)

func TestMetricsDocument(t *testing.T) {
	var profile analytics.CityStatProfile
	profile.City = "madrid"
	profile.Metrics[analytics.MetricTemperature] = analytics.MetricStats{Count: 365, Mean: 15.2}
	profile.Metrics[analytics.MetricPrecipitation] = analytics.MetricStats{Count: 300, Sum: 420.5}

	doc := metricsDocument(profile)

	assert.Len(t, doc, analytics.NumMetrics)
	assert.Equal(t, 365, doc["temperature"].Count)
	assert.InEpsilon(t, 15.2, doc["temperature"].Mean, 0.0001)
	assert.InEpsilon(t, 420.5, doc["precipitation"].Sum, 0.0001)
	assert.Zero(t, doc["wind"].Count)
}
