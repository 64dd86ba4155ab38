package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-analytics-etl/internal/analytics"
	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
	"github.com/couchcryptid/weather-analytics-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer reconciles and validates a raw event into a canonical observation.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Observation, error)
}

// CanonicalLoader persists a batch of canonical observations.
type CanonicalLoader interface {
	UpsertObservations(ctx context.Context, obs []domain.Observation) error
}

// AlertPublisher pushes tripped alert records to the notification sink.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []analytics.AlertRecord) error
}

// Staleness is notified whenever new observations land, so the refresher
// knows the derived views are out of date.
type Staleness interface {
	MarkStale()
}

// Pipeline orchestrates the ingest loop: extract raw provider records,
// reconcile into canonical observations, load them, and flag the derived
// views stale. Tripped alerts for freshly ingested observations are pushed
// to the alert topic immediately rather than waiting for the next refresh.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      CanonicalLoader
	alerts      AlertPublisher
	staleness   Staleness
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l CanonicalLoader, a AlertPublisher, s Staleness,
	logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		alerts:      a,
		staleness:   s,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// Run executes the ingest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("ingest pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("ingest pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.RecordsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.IngestBatchDuration.Observe(time.Since(start).Seconds())
		p.staleness.MarkStale()
	}
	return true
}

// transformAndLoad reconciles each raw record, loads the survivors into
// the canonical store, publishes any tripped alerts, and commits offsets.
// Dropped records (schema mismatch, validation failure) are counted and
// committed so they are never redelivered.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawEvent, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	observations := make([]domain.Observation, 0, len(rawBatch))
	successfulRaws := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		obs, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("record dropped",
				"reason", dropReason(err),
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.RecordsDropped.WithLabelValues(dropReason(err)).Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		observations = append(observations, obs)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(observations) == 0 {
		return 0, true
	}

	if err := p.loader.UpsertObservations(ctx, observations); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(observations))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.ObservationsStored.Add(float64(len(observations)))
	p.publishAlerts(ctx, observations)

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(observations), true
}

// publishAlerts classifies the freshly ingested observations and pushes
// tripped ones to the alert sink. Publish failures are logged, not fatal:
// the full alert view is rebuilt on the next refresh regardless.
func (p *Pipeline) publishAlerts(ctx context.Context, observations []domain.Observation) {
	tripped := analytics.Alerts(observations)
	if len(tripped) == 0 {
		return
	}
	if err := p.alerts.PublishAlerts(ctx, tripped); err != nil {
		p.logger.Warn("alert publish failed", "error", err, "alerts", len(tripped))
		return
	}
	p.metrics.AlertsPublished.Add(float64(len(tripped)))
}

func dropReason(err error) string {
	if errors.Is(err, ErrValidationFailure) {
		return "validation"
	}
	return "schema"
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
