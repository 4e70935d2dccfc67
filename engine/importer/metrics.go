package importer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Carmen-Shannon/oxy-blend/engine/importer"

func defaultMeter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// bakeMetrics holds the importer's instruments. They are no-ops unless the host installs a MeterProvider.
type bakeMetrics struct {
	tracks      metric.Int64Counter
	frames      metric.Int64Counter
	unsupported metric.Int64Counter
	duration    metric.Float64Histogram
}

func newBakeMetrics(m metric.Meter) (*bakeMetrics, error) {
	var (
		bm  bakeMetrics
		err error
	)
	bm.tracks, err = m.Int64Counter(
		"bake.tracks",
		metric.WithDescription("Total tracks baked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracks counter: %w", err)
	}

	bm.frames, err = m.Int64Counter(
		"bake.frames",
		metric.WithDescription("Total keyframes baked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frames counter: %w", err)
	}

	bm.unsupported, err = m.Int64Counter(
		"bake.unsupported_constraints",
		metric.WithDescription("Constraints skipped because their kind cannot be baked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unsupported constraints counter: %w", err)
	}

	bm.duration, err = m.Float64Histogram(
		"bake.duration",
		metric.WithDescription("Time spent baking one action"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	return &bm, nil
}

func (bm *bakeMetrics) record(action string, r *jobResult) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("action", action))
	bm.tracks.Add(ctx, int64(r.tracks), attrs)
	bm.frames.Add(ctx, int64(r.frames), attrs)
	if r.unsupported > 0 {
		bm.unsupported.Add(ctx, int64(r.unsupported), attrs)
	}
	bm.duration.Record(ctx, r.elapsed.Seconds(), attrs)
}
