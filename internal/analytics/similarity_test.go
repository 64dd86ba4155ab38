package analytics

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorAt(city string, scores ...float64) ZScoreVector {
	v := ZScoreVector{City: city}
	copy(v.Scores[:], scores)
	return v
}

func TestSimilarityEdges(t *testing.T) {
	t.Run("retains min(k, N-1) neighbors per city", func(t *testing.T) {
		var vectors []ZScoreVector
		for i := 0; i < 8; i++ {
			vectors = append(vectors, vectorAt(fmt.Sprintf("c%d", i), float64(i)))
		}

		edges := SimilarityEdges(vectors, DefaultTopK)

		perCity := map[string][]SimilarityEdge{}
		for _, e := range edges {
			perCity[e.City] = append(perCity[e.City], e)
		}
		require.Len(t, perCity, 8)
		for city, es := range perCity {
			assert.Len(t, es, 5, "city %s", city)
		}
	})

	t.Run("fewer cities than k", func(t *testing.T) {
		vectors := []ZScoreVector{
			vectorAt("a", 0),
			vectorAt("b", 1),
			vectorAt("c", 3),
		}

		edges := SimilarityEdges(vectors, DefaultTopK)

		perCity := map[string]int{}
		for _, e := range edges {
			perCity[e.City]++
			assert.NotEqual(t, e.City, e.SimilarCity, "a city never neighbors itself")
		}
		for _, n := range perCity {
			assert.Equal(t, 2, n)
		}
	})

	t.Run("neighbors ordered by non-decreasing distance with ranks 1..k", func(t *testing.T) {
		vectors := []ZScoreVector{
			vectorAt("origin", 0, 0, 0, 0, 0),
			vectorAt("near", 1, 0, 0, 0, 0),
			vectorAt("mid", 0, 2, 0, 0, 0),
			vectorAt("far", 0, 0, 5, 0, 0),
			vectorAt("farther", 3, 4, 0, 0, 0),
		}

		edges := SimilarityEdges(vectors, 3)

		var origin []SimilarityEdge
		for _, e := range edges {
			if e.City == "origin" {
				origin = append(origin, e)
			}
		}
		require.Len(t, origin, 3)
		assert.Equal(t, []string{"near", "mid", "far"},
			[]string{origin[0].SimilarCity, origin[1].SimilarCity, origin[2].SimilarCity})
		for i, e := range origin {
			assert.Equal(t, i+1, e.Rank)
			if i > 0 {
				assert.GreaterOrEqual(t, e.Distance, origin[i-1].Distance)
			}
		}
		assert.InDelta(t, 1.0, origin[0].Distance, 1e-9)
		assert.InDelta(t, 2.0, origin[1].Distance, 1e-9)
		assert.InDelta(t, 5.0, origin[2].Distance, 1e-9)
	})

	t.Run("identical vectors score finite", func(t *testing.T) {
		vectors := []ZScoreVector{vectorAt("a", 1, 1), vectorAt("b", 1, 1)}

		edges := SimilarityEdges(vectors, DefaultTopK)

		require.Len(t, edges, 2)
		assert.Zero(t, edges[0].Distance)
		assert.False(t, math.IsInf(edges[0].Score, 1))
		assert.InDelta(t, 1/distanceEpsilon, edges[0].Score, 1)
	})

	t.Run("score is inverse of epsilon-shifted distance", func(t *testing.T) {
		vectors := []ZScoreVector{vectorAt("a", 0), vectorAt("b", 3)}

		edges := SimilarityEdges(vectors, 1)

		require.NotEmpty(t, edges)
		assert.InDelta(t, 1/(distanceEpsilon+3), edges[0].Score, 1e-9)
	})

	t.Run("empty and single-city inputs", func(t *testing.T) {
		assert.Empty(t, SimilarityEdges(nil, DefaultTopK))
		assert.Empty(t, SimilarityEdges([]ZScoreVector{vectorAt("alone", 1)}, DefaultTopK))
	})
}

func TestEuclidean(t *testing.T) {
	a := [NumMetrics]float64{3, 4, 0, 0, 0}
	var b [NumMetrics]float64

	assert.InDelta(t, 5.0, euclidean(a, b), 1e-9)
	assert.Zero(t, euclidean(a, a))
}
