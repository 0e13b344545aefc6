package observe

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ProviderConfig configures the metrics SDK.
type ProviderConfig struct {
	// ServiceName is reported as the service.name resource attribute.
	// Default: "kanabake".
	ServiceName string

	// Logger receives the metric totals on every Report. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// Provider is the installed meter provider. Metrics are pulled with a manual
// reader and written to the log; there is no network exporter.
type Provider struct {
	mp     *sdkmetric.MeterProvider
	reader *sdkmetric.ManualReader
	logger *slog.Logger
}

// InitProvider builds an SDK meter provider and registers it as the global
// provider, so [DefaultMetrics] records into it. Call Shutdown in a defer
// from main.
func InitProvider(cfg ProviderConfig) *Provider {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "kanabake"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)
	return &Provider{mp: mp, reader: reader, logger: cfg.Logger}
}

// Collect returns cumulative totals keyed by instrument name. Counters are
// summed across attributes; histograms contribute name.count and name.sum.
func (p *Provider) Collect(ctx context.Context) (map[string]float64, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	return Totals(rm), nil
}

// Report logs the current totals at info level.
func (p *Provider) Report(ctx context.Context) {
	totals, err := p.Collect(ctx)
	if err != nil {
		p.logger.Warn("collect metrics", "err", err)
		return
	}
	if len(totals) == 0 {
		return
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	attrs := make([]slog.Attr, 0, len(names))
	for _, name := range names {
		attrs = append(attrs, slog.Float64(name, totals[name]))
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "metrics", attrs...)
}

// Shutdown reports a final time and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	p.Report(ctx)
	return p.mp.Shutdown(ctx)
}

// Totals flattens collected metrics into one value per instrument.
func Totals(rm metricdata.ResourceMetrics) map[string]float64 {
	out := map[string]float64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if !strings.HasPrefix(m.Name, "kanabake.") {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					out[m.Name] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					out[m.Name+".count"] += float64(dp.Count)
					out[m.Name+".sum"] += dp.Sum
				}
			}
		}
	}
	return out
}
