package analytics

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticCanonical builds a varied multi-city canonical set with a fixed
// seed so repeated builds are identical.
func syntheticCanonical(t *testing.T) []domain.Observation {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	cities := []struct {
		name, region string
		baseTemp     float64
	}{
		{"sevilla", "andalucia", 20},
		{"cordoba", "andalucia", 19},
		{"bilbao", "euskadi", 13},
		{"valencia", "valencia", 18},
		{"burgos", "castilla y leon", 10},
		{"murcia", "murcia", 19},
		{"oviedo", "asturias", 12},
	}

	var obs []domain.Observation
	for _, c := range cities {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= 5; day++ {
				seasonal := 10 * float64(month-7) / 6
				tavg := c.baseTemp + seasonal + rng.Float64()*4
				o := obsDay(c.name, c.region, 2023, month, day, tavg, tavg-6, tavg+7)
				if rng.Float64() < 0.8 {
					o.Precip = f(rng.Float64() * 12)
				}
				if rng.Float64() < 0.9 {
					o.HumidityPercent = f(35 + rng.Float64()*50)
				}
				if rng.Float64() < 0.7 {
					o.WindAvg = f(rng.Float64() * 35)
				}
				if rng.Float64() < 0.5 {
					o.SunshineMinutes = f(rng.Float64() * 700)
				}
				obs = append(obs, o)
			}
		}
	}
	return obs
}

// allViews runs the full derivation chain in dependency order.
func allViews(obs []domain.Observation) map[string]any {
	profiles := CityProfiles(obs)
	vectors := ZScoreVectors(profiles)
	return map[string]any{
		"yearly":     YearlySummaries(obs),
		"monthly":    MonthlyStats(obs),
		"seasonal":   SeasonalSummaries(obs),
		"extreme":    ExtremeDayCounts(obs),
		"profiles":   profiles,
		"outliers":   Outliers(vectors),
		"similarity": SimilarityEdges(vectors, DefaultTopK),
		"alerts":     Alerts(obs),
	}
}

// TestDerivedViews_Deterministic re-runs the whole pipeline on identical
// canonical input and requires byte-identical serialized views.
func TestDerivedViews_Deterministic(t *testing.T) {
	obs := syntheticCanonical(t)

	first, err := json.Marshal(allViews(obs))
	require.NoError(t, err)
	second, err := json.Marshal(allViews(obs))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestDerivedViews_EmptyCanonicalSet checks the whole chain degrades to
// empty views without errors.
func TestDerivedViews_EmptyCanonicalSet(t *testing.T) {
	views := allViews(nil)

	assert.Empty(t, views["yearly"])
	assert.Empty(t, views["seasonal"])
	assert.Empty(t, views["profiles"])
	assert.Empty(t, views["outliers"])
	assert.Empty(t, views["similarity"])
	assert.Empty(t, views["alerts"])
}

// TestSimilarity_TopKProperty checks the retention invariant over a larger
// synthetic set: exactly min(K, N-1) ascending-distance edges per city.
func TestSimilarity_TopKProperty(t *testing.T) {
	obs := syntheticCanonical(t)
	vectors := ZScoreVectors(CityProfiles(obs))

	edges := SimilarityEdges(vectors, DefaultTopK)

	perCity := map[string][]SimilarityEdge{}
	for _, e := range edges {
		assert.NotEqual(t, e.City, e.SimilarCity)
		perCity[e.City] = append(perCity[e.City], e)
	}
	require.Len(t, perCity, len(vectors))
	for city, es := range perCity {
		require.Len(t, es, DefaultTopK, "city %s", city)
		for i := 1; i < len(es); i++ {
			assert.GreaterOrEqual(t, es[i].Distance, es[i-1].Distance)
			assert.Equal(t, i+1, es[i].Rank)
		}
	}
}
