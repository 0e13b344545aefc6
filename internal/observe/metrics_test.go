package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestModifierFailureCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordModifierFailure(ctx, "broken")
	m.RecordModifierFailure(ctx, "broken")
	m.RecordModifierFailure(ctx, "other")

	met := findMetric(collect(t, reader), "kanabake.modifier.failures")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "modifier" && kv.Value.AsString() == "broken" {
				if dp.Value != 2 {
					t.Fatalf("counter value = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Fatal("data point for modifier=broken not found")
}

func TestRewardMagnitudeHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RewardMagnitude.Record(ctx, 0.5)
	m.RewardMagnitude.Record(ctx, 17)

	met := findMetric(collect(t, reader), "kanabake.reward.magnitude")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 2 {
		t.Fatalf("unexpected data points %+v", hist.DataPoints)
	}
}

func TestDefaultMetricsIsShared(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Fatal("expected the same default instance")
	}
}
