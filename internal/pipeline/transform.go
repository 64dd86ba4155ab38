package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// Drop reasons distinguished for metrics. Both are data-quality filters,
// never run failures.
var (
	// ErrSchemaMismatch marks a raw record that could not be reconciled
	// into the unified schema (unknown source, malformed payload).
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrValidationFailure marks a reconciled record missing a mandatory
	// canonical field (date or a core temperature).
	ErrValidationFailure = errors.New("validation failure")
)

// ObservationTransformer implements Transformer using the domain
// reconciliation and canonical-build functions.
type ObservationTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates an ObservationTransformer.
func NewTransformer(logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{logger: logger}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.Observation, error) {
	rec, err := domain.Reconcile(raw)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}

	obs, ok := domain.BuildObservation(rec)
	if !ok {
		return domain.Observation{}, fmt.Errorf("%w: %s/%s on %q", ErrValidationFailure, rec.Source, rec.City, rec.Date)
	}
	return obs, nil
}
