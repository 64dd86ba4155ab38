package analytics

import (
	"math"
	"sort"

	"github.com/couchcryptid/weather-analytics-etl/internal/domain"
)

// Metric identifies one of the five tracked observation measurements.
// Declaration order is the fixed tie-break priority used wherever two
// metrics compete (dominant-variable attribution): temperature wins over
// precipitation, precipitation over humidity, and so on.
type Metric int

const (
	MetricTemperature Metric = iota
	MetricPrecipitation
	MetricHumidity
	MetricSunshine
	MetricWind
	numMetrics
)

// NumMetrics is the dimensionality of every z-score vector.
const NumMetrics = int(numMetrics)

// Metrics lists the tracked metrics in priority order.
func Metrics() [NumMetrics]Metric {
	return [NumMetrics]Metric{
		MetricTemperature,
		MetricPrecipitation,
		MetricHumidity,
		MetricSunshine,
		MetricWind,
	}
}

func (m Metric) String() string {
	switch m {
	case MetricTemperature:
		return "temperature"
	case MetricPrecipitation:
		return "precipitation"
	case MetricHumidity:
		return "humidity"
	case MetricSunshine:
		return "sunshine"
	case MetricWind:
		return "wind"
	default:
		return "unknown"
	}
}

// metricValue extracts a metric's daily value from an observation.
// Temperature is always present in the canonical set; the rest may be nil.
func metricValue(o domain.Observation, m Metric) *float64 {
	switch m {
	case MetricTemperature:
		v := o.TempAvg
		return &v
	case MetricPrecipitation:
		return o.Precip
	case MetricHumidity:
		return o.HumidityPercent
	case MetricSunshine:
		return o.SunshineMinutes
	case MetricWind:
		return o.WindAvg
	default:
		return nil
	}
}

// nullableAgg accumulates sum and count over non-nil values so that
// averages and totals exclude missing measurements instead of coercing
// them to zero.
type nullableAgg struct {
	sum   float64
	count int
	min   float64
	max   float64
}

func (a *nullableAgg) add(v *float64) {
	if v == nil {
		return
	}
	if a.count == 0 || *v < a.min {
		a.min = *v
	}
	if a.count == 0 || *v > a.max {
		a.max = *v
	}
	a.sum += *v
	a.count++
}

// avg returns nil when no values were observed.
func (a *nullableAgg) avg() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.sum / float64(a.count)
	return &v
}

// total returns nil when no values were observed.
func (a *nullableAgg) total() *float64 {
	if a.count == 0 {
		return nil
	}
	v := a.sum
	return &v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev returns the n-1 standard deviation, or 0 when fewer than
// two values exist (degenerate statistics resolve to a defined sentinel,
// never an error).
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// percentile computes the pth continuous percentile with linear
// interpolation between closest ranks. The input need not be sorted.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}
