package analytics

import (
	"container/heap"
	"math"
	"sort"
)

// DefaultTopK is the number of nearest neighbors retained per city.
const DefaultTopK = 5

// distanceEpsilon keeps the similarity score finite when two cities have
// identical z-score vectors.
const distanceEpsilon = 1e-6

// SimilarityEdge is one row of the city_similarity view: a directed
// nearest-neighbor edge from City to SimilarCity. Rank 1 is the nearest
// neighbor; ranks ascend with distance.
type SimilarityEdge struct {
	City        string  `json:"city"`
	SimilarCity string  `json:"similar_city"`
	Distance    float64 `json:"similarity_distance"`
	Score       float64 `json:"similarity_score"`
	Rank        int     `json:"rank"`
}

// neighbor is a candidate edge during top-K selection.
type neighbor struct {
	index    int // position of the target city in the vector slice
	distance float64
}

// neighborHeap is a bounded max-heap on distance: the root is the worst
// retained candidate, so a closer city evicts it in O(log k).
type neighborHeap []neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return h[i].distance > h[j].distance }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// SimilarityEdges computes the all-pairs similarity search over the
// z-score space and retains the k nearest neighbors per source city.
// A city never neighbors itself. The scan is O(N²) in city count, which is
// fine for the tens-to-low-hundreds of cities this runs on; revisit with a
// spatial index before pointing it at thousands.
//
// Output is ordered by source city (input order), then ascending distance;
// exactly tied distances keep the target's input order for deterministic
// re-runs.
func SimilarityEdges(vectors []ZScoreVector, k int) []SimilarityEdge {
	if k <= 0 {
		k = DefaultTopK
	}

	edges := make([]SimilarityEdge, 0, len(vectors)*k)
	for i, src := range vectors {
		h := make(neighborHeap, 0, k+1)
		heap.Init(&h)
		for j, dst := range vectors {
			if i == j {
				continue
			}
			d := euclidean(src.Scores, dst.Scores)
			if len(h) < k {
				heap.Push(&h, neighbor{index: j, distance: d})
				continue
			}
			if d < h[0].distance {
				h[0] = neighbor{index: j, distance: d}
				heap.Fix(&h, 0)
			}
		}

		retained := []neighbor(h)
		sort.SliceStable(retained, func(a, b int) bool {
			if retained[a].distance != retained[b].distance {
				return retained[a].distance < retained[b].distance
			}
			return retained[a].index < retained[b].index
		})
		for rank, n := range retained {
			edges = append(edges, SimilarityEdge{
				City:        src.City,
				SimilarCity: vectors[n.index].City,
				Distance:    n.distance,
				Score:       1 / (distanceEpsilon + n.distance),
				Rank:        rank + 1,
			})
		}
	}
	return edges
}

func euclidean(a, b [NumMetrics]float64) float64 {
	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq)
}
