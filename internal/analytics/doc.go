// Package analytics derives every reporting view from the canonical
// observation set.
//
// All functions are pure: each view is a function of the full canonical
// dataset, recomputed wholesale on every refresh (no incremental update),
// and persistence is the caller's concern. Given identical input the
// output is byte-identical: group keys are emitted in sorted order, rank
// and neighbor ties resolve by stable input order, and no stage consults
// the clock or randomness.
//
// Stage dependencies: aggregates (aggregate.go), city profiles (stats.go)
// and alerts (alerts.go) each depend only on the canonical set and may run
// concurrently; z-scores, outliers, and similarity (outlier.go,
// similarity.go) consume the city profiles. Every stage accepts an empty
// input and produces an empty output.
package analytics
