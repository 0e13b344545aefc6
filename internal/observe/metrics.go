// Package observe provides OpenTelemetry instruments for gameplay events.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is bound to
// the global meter provider, which is a no-op until the host installs one.
// Tests should use [NewMetrics] with their own provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/verte-zerg/kanabake"

// Metrics holds the gameplay instruments. All fields are safe for concurrent use.
type Metrics struct {
	// UnitsCompleted counts kana units typed correctly.
	UnitsCompleted metric.Int64Counter

	// Misses counts rejected keystrokes.
	Misses metric.Int64Counter

	// CriticalHits counts rewards that rolled a critical.
	CriticalHits metric.Int64Counter

	// ModifierFailures counts modifiers skipped during scoring. Use with
	// attribute.String("modifier", id).
	ModifierFailures metric.Int64Counter

	// RewardMagnitude records log10 of every reward.
	RewardMagnitude metric.Float64Histogram
}

var magnitudeBuckets = []float64{0, 1, 2, 3, 5, 8, 12, 16, 24, 32, 48, 64}

// NewMetrics creates the instruments on the given provider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.UnitsCompleted, err = m.Int64Counter("kanabake.units.completed",
		metric.WithDescription("Kana units typed correctly."),
	); err != nil {
		return nil, err
	}
	if met.Misses, err = m.Int64Counter("kanabake.misses",
		metric.WithDescription("Keystrokes that matched no candidate."),
	); err != nil {
		return nil, err
	}
	if met.CriticalHits, err = m.Int64Counter("kanabake.critical_hits",
		metric.WithDescription("Rewards that rolled a critical hit."),
	); err != nil {
		return nil, err
	}
	if met.ModifierFailures, err = m.Int64Counter("kanabake.modifier.failures",
		metric.WithDescription("Scoring modifiers skipped after failing."),
	); err != nil {
		return nil, err
	}
	if met.RewardMagnitude, err = m.Float64Histogram("kanabake.reward.magnitude",
		metric.WithDescription("Base-10 logarithm of each reward."),
		metric.WithExplicitBucketBoundaries(magnitudeBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance bound to the global
// provider. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordModifierFailure counts one skipped modifier.
func (m *Metrics) RecordModifierFailure(ctx context.Context, modifier string) {
	m.ModifierFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("modifier", modifier)),
	)
}
