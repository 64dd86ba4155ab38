// Command genmock reads provider CSV exports and generates mock data
// fixtures for the test suites. It runs the actual reconciliation and
// canonical-build code so the expected output matches real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-dir ../weather-data-system/mock-server/data \
//	  -raw-out data/mock/observations_raw.json \
//	  -canonical-out data/mock/observations_canonical.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// csvDef maps a provider CSV file to its source tag.
type csvDef struct {
	file   string
	source string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvDir := flag.String("csv-dir", "", "directory containing provider CSV files")
	rawOut := flag.String("raw-out", "", "output path for the raw JSON fixture")
	canonicalOut := flag.String("canonical-out", "", "output path for the expected canonical JSON fixture")
	flag.Parse()

	if *csvDir == "" || *rawOut == "" || *canonicalOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-dir, -raw-out, -canonical-out")
	}

	defs := []csvDef{
		{file: "meteostat_daily.csv", source: domain.SourceMeteostat},
		{file: "aemet_daily.csv", source: domain.SourceAEMET},
	}

	// Fixed clock for reproducible ingestion timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.January, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	var rawRecords []json.RawMessage   //nolint:prealloc // size depends on CSV file contents
	var canonical []domain.Observation //nolint:prealloc // size depends on CSV file contents

	for _, d := range defs {
		path := filepath.Join(*csvDir, d.file)
		raws, obs, err := processCSV(path, d.source)
		if err != nil {
			return fmt.Errorf("processing %s: %w", d.file, err)
		}
		rawRecords = append(rawRecords, raws...)
		canonical = append(canonical, obs...)
		log.Printf("%s: %d raw records, %d canonical", d.source, len(raws), len(obs))
	}

	log.Printf("total: %d raw, %d canonical", len(rawRecords), len(canonical))

	if err := writeJSON(*rawOut, rawRecords); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*canonicalOut, canonical); err != nil {
		return fmt.Errorf("writing canonical fixture: %w", err)
	}
	log.Printf("wrote canonical fixture: %s", *canonicalOut)

	printStats(canonical)
	return nil
}

// processCSV converts every CSV row into the provider's raw JSON shape,
// then runs the ETL reconciliation over it to produce the expected
// canonical records. Rows the pipeline would drop are kept in the raw
// fixture but excluded from the canonical one.
func processCSV(path, source string) ([]json.RawMessage, []domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("no data rows")
	}

	header := rows[0]
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[h] = i
	}

	var raws []json.RawMessage
	var canonical []domain.Observation

	for _, row := range rows[1:] {
		if len(row) < len(header) {
			continue
		}

		record := map[string]any{"source": source}
		for col, i := range colIdx {
			record[col] = cellValue(col, strings.TrimSpace(row[i]))
		}

		rawJSON, err := json.Marshal(record)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal record: %w", err)
		}
		raws = append(raws, rawJSON)

		// Run the actual reconciliation and canonical build.
		rec, err := domain.Reconcile(domain.RawEvent{Value: rawJSON})
		if err != nil {
			return nil, nil, fmt.Errorf("reconcile record: %w", err)
		}
		obs, ok := domain.BuildObservation(rec)
		if !ok {
			continue
		}
		canonical = append(canonical, obs)
	}

	return raws, canonical, nil
}

// identityColumns are always strings on the wire. Station codes like
// "08221" would otherwise lose their leading zero as numbers.
var identityColumns = map[string]bool{
	"date":    true,
	"fecha":   true,
	"city":    true,
	"region":  true,
	"station": true,
}

// cellValue maps a CSV cell onto the JSON type the collectors publish:
// empty cells become null, measurement cells numbers, identity cells strings.
func cellValue(col, s string) any {
	if s == "" {
		return nil
	}
	if identityColumns[col] {
		return s
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(canonical []domain.Observation) {
	cities := map[string]int{}
	sources := map[string]int{}
	for i := range canonical {
		cities[canonical[i].City]++
		sources[canonical[i].Source]++
	}
	alerts := analytics.Alerts(canonical)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total canonical: %d\n", len(canonical))
	fmt.Printf("Cities: %d\n", len(cities))
	fmt.Printf("By source: meteostat=%d, aemet=%d\n",
		sources[domain.SourceMeteostat], sources[domain.SourceAEMET])
	fmt.Printf("Tripped alerts: %d\n", len(alerts))
	for _, a := range alerts {
		if a.Severity >= 4 {
			fmt.Printf("  severity %d: %s %s (%s)\n",
				a.Severity, a.City, a.Date.Format(time.DateOnly), a.OverallAlert)
		}
	}
}
