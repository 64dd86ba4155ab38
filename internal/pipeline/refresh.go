package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
	"github.com/couchcryptid/weather-analytics-etl/internal/observability"
)

// ErrNotReady is returned by CheckReadiness until the first refresh completes.
var ErrNotReady = errors.New("no successful refresh yet")

// ObservationSource loads the full canonical dataset.
type ObservationSource interface {
	LoadObservations(ctx context.Context) ([]domain.Observation, error)
}

// ViewStore replaces derived views wholesale. Each Replace call swaps the
// old rows for the new ones atomically.
type ViewStore interface {
	ReplaceYearlySummaries(ctx context.Context, rows []analytics.YearlySummary) error
	ReplaceMonthlyStats(ctx context.Context, rows []analytics.MonthlyStat) error
	ReplaceSeasonalSummaries(ctx context.Context, rows []analytics.SeasonalSummary) error
	ReplaceExtremeDays(ctx context.Context, rows []analytics.ExtremeDays) error
	ReplaceCityProfiles(ctx context.Context, rows []analytics.CityStatProfile) error
	ReplaceOutliers(ctx context.Context, rows []analytics.OutlierRecord) error
	ReplaceSimilarity(ctx context.Context, rows []analytics.SimilarityEdge) error
	ReplaceAlerts(ctx context.Context, rows []analytics.AlertRecord) error
}

// Snapshotter captures the canonical dataset as of a point in time.
type Snapshotter interface {
	SnapshotObservations(ctx context.Context, capturedAt time.Time) (int64, error)
}

// Refresher rebuilds every derived view from the canonical dataset. Each
// refresh is a full recomputation; views never update incrementally.
type Refresher struct {
	source      ObservationSource
	store       ViewStore
	snapshotter Snapshotter
	logger      *slog.Logger
	metrics     *observability.Metrics
	interval    time.Duration
	topK        int

	stale atomic.Bool
	ready atomic.Bool
}

// NewRefresher creates a Refresher that rebuilds views every interval while
// new observations keep arriving.
func NewRefresher(source ObservationSource, store ViewStore, snapshotter Snapshotter,
	logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, topK int) *Refresher {
	return &Refresher{
		source:      source,
		store:       store,
		snapshotter: snapshotter,
		logger:      logger,
		metrics:     metrics,
		interval:    interval,
		topK:        topK,
	}
}

// MarkStale flags the derived views as out of date with the canonical data.
func (r *Refresher) MarkStale() {
	r.stale.Store(true)
}

// CheckReadiness reports whether at least one refresh has completed.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return ErrNotReady
	}
	return nil
}

// Run refreshes once at startup, then on every tick while the views are
// stale, until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	if err := r.refreshAndLog(ctx); err != nil && ctx.Err() != nil {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if !r.stale.Load() && r.ready.Load() {
				continue
			}
			if err := r.refreshAndLog(ctx); err != nil && ctx.Err() != nil {
				return nil
			}
		}
	}
}

func (r *Refresher) refreshAndLog(ctx context.Context) error {
	r.metrics.RefreshesTotal.Inc()
	if err := r.Refresh(ctx); err != nil {
		r.metrics.RefreshFailures.Inc()
		r.logger.Error("view refresh failed", "error", err)
		return err
	}
	return nil
}

// Refresh rebuilds all derived views from the canonical dataset. The
// aggregate views, the profile chain, and the alert view have no data
// dependencies on each other and run concurrently; outliers and similarity
// wait on the city profiles they derive from.
func (r *Refresher) Refresh(ctx context.Context) error {
	start := time.Now()

	observations, err := r.source.LoadObservations(ctx)
	if err != nil {
		return fmt.Errorf("loading canonical observations: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.refreshAggregates(gctx, observations) })
	g.Go(func() error { return r.refreshProfileChain(gctx, observations) })
	g.Go(func() error { return r.refreshAlerts(gctx, observations) })

	if err := g.Wait(); err != nil {
		return err
	}

	r.stale.Store(false)
	r.ready.Store(true)
	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("views refreshed", "observations", len(observations), "elapsed", time.Since(start))
	return nil
}

func (r *Refresher) refreshAggregates(ctx context.Context, observations []domain.Observation) error {
	yearly := analytics.YearlySummaries(observations)
	if err := r.store.ReplaceYearlySummaries(ctx, yearly); err != nil {
		return fmt.Errorf("replacing yearly summaries: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("yearly_summary").Set(float64(len(yearly)))

	monthly := analytics.MonthlyStats(observations)
	if err := r.store.ReplaceMonthlyStats(ctx, monthly); err != nil {
		return fmt.Errorf("replacing monthly stats: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("monthly_stats").Set(float64(len(monthly)))

	seasonal := analytics.SeasonalSummaries(observations)
	if err := r.store.ReplaceSeasonalSummaries(ctx, seasonal); err != nil {
		return fmt.Errorf("replacing seasonal summaries: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("seasonal_summary").Set(float64(len(seasonal)))

	extremes := analytics.ExtremeDayCounts(observations)
	if err := r.store.ReplaceExtremeDays(ctx, extremes); err != nil {
		return fmt.Errorf("replacing extreme day counts: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("extreme_days").Set(float64(len(extremes)))
	return nil
}

// refreshProfileChain rebuilds city profiles, then the outlier and
// similarity views derived from them.
func (r *Refresher) refreshProfileChain(ctx context.Context, observations []domain.Observation) error {
	profiles := analytics.CityProfiles(observations)
	if err := r.store.ReplaceCityProfiles(ctx, profiles); err != nil {
		return fmt.Errorf("replacing city profiles: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("city_profiles").Set(float64(len(profiles)))

	vectors := analytics.ZScoreVectors(profiles)

	outliers := analytics.Outliers(vectors)
	if err := r.store.ReplaceOutliers(ctx, outliers); err != nil {
		return fmt.Errorf("replacing outliers: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("outliers").Set(float64(len(outliers)))

	similar := analytics.SimilarityEdges(vectors, r.topK)
	if err := r.store.ReplaceSimilarity(ctx, similar); err != nil {
		return fmt.Errorf("replacing similarity edges: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("similarity").Set(float64(len(similar)))
	return nil
}

func (r *Refresher) refreshAlerts(ctx context.Context, observations []domain.Observation) error {
	alerts := analytics.Alerts(observations)
	if err := r.store.ReplaceAlerts(ctx, alerts); err != nil {
		return fmt.Errorf("replacing alerts: %w", err)
	}
	r.metrics.ViewRows.WithLabelValues("alerts").Set(float64(len(alerts)))
	return nil
}

// TriggerSnapshot captures the current canonical dataset under a snapshot
// timestamp and returns the captured timestamp and row count.
func (r *Refresher) TriggerSnapshot(ctx context.Context) (time.Time, int64, error) {
	capturedAt := domain.Now().UTC()
	rows, err := r.snapshotter.SnapshotObservations(ctx, capturedAt)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("capturing snapshot: %w", err)
	}
	r.metrics.SnapshotsTotal.Inc()
	r.logger.Info("snapshot captured", "captured_at", capturedAt, "rows", rows)
	return capturedAt, rows, nil
}
