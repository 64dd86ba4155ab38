// Command validate performs end-to-end data integrity checks over the mock
// fixtures: it replays the raw fixture through the reconciliation code,
// compares the result against the canonical fixture, and verifies the
// structural invariants of every derived view computed from it.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/observations_raw.json \
//	  -canonical-json data/mock/observations_canonical.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	rawJSON := flag.String("raw-json", "", "path to the raw JSON fixture")
	canonicalJSON := flag.String("canonical-json", "", "path to the expected canonical JSON fixture")
	flag.Parse()

	if *rawJSON == "" || *canonicalJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*rawJSON, *canonicalJSON); code != 0 {
		os.Exit(code)
	}
}

func run(rawJSONPath, canonicalJSONPath string) int {
	// Fixed clock matching genmock so ingestion timestamps line up.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Weather Analytics Integrity Validation ===")
	fmt.Println()

	rawRecords, err := loadJSON[json.RawMessage](rawJSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	canonical, err := loadJSON[domain.Observation](canonicalJSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load canonical JSON: %v\n", err)
		return 1
	}

	profiles := analytics.CityProfiles(canonical)
	vectors := analytics.ZScoreVectors(profiles)

	phases := []*phase{
		validateCanonicalParity(rawRecords, canonical),
		validateAggregates(canonical),
		validateRanks(profiles),
		validateZScores(vectors),
		validateSimilarity(vectors),
		validateAlerts(canonical),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw JSON, %d canonical, %d cities\n",
		len(rawRecords), len(canonical), len(profiles))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Validation phases ──

// validateCanonicalParity replays the raw fixture through the actual
// reconciliation code and checks the result matches the canonical fixture
// row for row.
func validateCanonicalParity(rawRecords []json.RawMessage, canonical []domain.Observation) *phase {
	p := &phase{name: "Raw-to-canonical parity"}

	var rebuilt []domain.Observation
	for i, raw := range rawRecords {
		rec, err := domain.Reconcile(domain.RawEvent{Value: raw})
		if err != nil {
			p.errorf("raw[%d]: reconcile failed: %v", i, err)
			continue
		}
		obs, ok := domain.BuildObservation(rec)
		if !ok {
			continue
		}
		rebuilt = append(rebuilt, obs)
	}

	if len(rebuilt) != len(canonical) {
		p.errorf("canonical count mismatch: rebuilt %d, fixture %d", len(rebuilt), len(canonical))
		return p
	}

	for i := range rebuilt {
		got, _ := json.Marshal(rebuilt[i])
		want, _ := json.Marshal(canonical[i])
		if string(got) != string(want) {
			p.errorf("canonical[%d] (%s %s): rebuilt record differs from fixture",
				i, canonical[i].City, canonical[i].Date.Format(time.DateOnly))
		}
	}
	return p
}

// validateAggregates checks that the grouped views are consistent with the
// canonical row count: every observation lands in exactly one yearly group
// and one seasonal group.
func validateAggregates(canonical []domain.Observation) *phase {
	p := &phase{name: "Aggregate view consistency"}

	yearly := analytics.YearlySummaries(canonical)
	daysInYearly := 0
	for _, y := range yearly {
		if y.DaysObserved <= 0 {
			p.errorf("yearly %s/%d: non-positive days_observed %d", y.City, y.Year, y.DaysObserved)
		}
		daysInYearly += y.DaysObserved
	}
	if daysInYearly != len(canonical) {
		p.errorf("yearly days_observed sum %d != canonical rows %d", daysInYearly, len(canonical))
	}

	seasonal := analytics.SeasonalSummaries(canonical)
	daysInSeasons := 0
	for _, s := range seasonal {
		daysInSeasons += s.DaysObserved
	}
	if daysInSeasons != len(canonical) {
		p.errorf("seasonal days_observed sum %d != canonical rows %d", daysInSeasons, len(canonical))
	}

	for _, e := range analytics.ExtremeDayCounts(canonical) {
		if e.HotDays > e.TotalDays || e.FrostDays > e.TotalDays {
			p.errorf("extreme days %s/%d: flagged days exceed total", e.City, e.Year)
		}
	}
	return p
}

// validateRanks checks that every metric's global ranks form a permutation
// of 1..N and region ranks a permutation of 1..size within each region.
func validateRanks(profiles []analytics.CityStatProfile) *phase {
	p := &phase{name: "Rank permutations"}

	regionSize := map[string]int{}
	for _, prof := range profiles {
		regionSize[prof.Region]++
	}

	for _, m := range analytics.Metrics() {
		seen := map[int]bool{}
		regionSeen := map[string]map[int]bool{}
		for _, prof := range profiles {
			rank := prof.Metrics[m].RankGlobal
			if rank < 1 || rank > len(profiles) || seen[rank] {
				p.errorf("%s: %s global rank %d invalid or duplicated", m, prof.City, rank)
			}
			seen[rank] = true

			rr := prof.Metrics[m].RankRegion
			if regionSeen[prof.Region] == nil {
				regionSeen[prof.Region] = map[int]bool{}
			}
			if rr < 1 || rr > regionSize[prof.Region] || regionSeen[prof.Region][rr] {
				p.errorf("%s: %s region rank %d invalid or duplicated in %s", m, prof.City, rr, prof.Region)
			}
			regionSeen[prof.Region][rr] = true
		}
	}
	return p
}

// validateZScores checks every score is finite and that each metric with
// cross-city variance standardizes to mean 0.
func validateZScores(vectors []analytics.ZScoreVector) *phase {
	p := &phase{name: "Z-score standardization"}

	for _, m := range analytics.Metrics() {
		sum := 0.0
		for _, v := range vectors {
			z := v.Scores[m]
			if math.IsNaN(z) || math.IsInf(z, 0) {
				p.errorf("%s: %s has non-finite z-score", m, v.City)
			}
			sum += z
		}
		if len(vectors) > 0 {
			if mean := sum / float64(len(vectors)); math.Abs(mean) > 1e-6 {
				p.errorf("%s: z-score mean %.8f, want 0", m, mean)
			}
		}
	}
	return p
}

// validateSimilarity checks the neighbor graph topology: no self edges,
// contiguous 1-based ranks per city, and non-decreasing distances.
func validateSimilarity(vectors []analytics.ZScoreVector) *phase {
	p := &phase{name: "Similarity graph topology"}

	edges := analytics.SimilarityEdges(vectors, analytics.DefaultTopK)
	perCity := map[string][]analytics.SimilarityEdge{}
	for _, e := range edges {
		if e.City == e.SimilarCity {
			p.errorf("%s: self edge", e.City)
		}
		perCity[e.City] = append(perCity[e.City], e)
	}

	want := analytics.DefaultTopK
	if len(vectors)-1 < want {
		want = len(vectors) - 1
	}

	for city, es := range perCity {
		if len(es) != want {
			p.errorf("%s: %d neighbors, want %d", city, len(es), want)
		}
		for i, e := range es {
			if e.Rank != i+1 {
				p.errorf("%s: neighbor %d has rank %d", city, i, e.Rank)
			}
			if i > 0 && e.Distance < es[i-1].Distance {
				p.errorf("%s: distances not sorted at rank %d", city, e.Rank)
			}
		}
	}
	return p
}

// validateAlerts checks the projection filter and the label/severity scale.
func validateAlerts(canonical []domain.Observation) *phase {
	p := &phase{name: "Alert projection"}

	alerts := analytics.Alerts(canonical)
	validOverall := map[string]bool{"yellow": true, "orange": true, "red": true}

	for _, a := range alerts {
		if a.Severity < 2 || a.Severity > 5 {
			p.errorf("%s %s: severity %d out of range", a.City, a.Date.Format(time.DateOnly), a.Severity)
		}
		if !validOverall[a.OverallAlert] {
			p.errorf("%s %s: overall alert %q", a.City, a.Date.Format(time.DateOnly), a.OverallAlert)
		}
	}

	// Every alert row must correspond to a canonical observation.
	byKey := map[string]bool{}
	for i := range canonical {
		byKey[canonical[i].City+"|"+canonical[i].Date.Format(time.DateOnly)] = true
	}
	for _, a := range alerts {
		if !byKey[a.City+"|"+a.Date.Format(time.DateOnly)] {
			p.errorf("%s %s: alert without canonical row", a.City, a.Date.Format(time.DateOnly))
		}
	}
	return p
}

// ── Data loading ──

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var result []T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}
