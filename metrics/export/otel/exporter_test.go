package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/authcore"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	counters map[authcore.MetricID]uint64
	verify   []uint64
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := authcore.MetricsSnapshot{
		Counters:   make(map[authcore.MetricID]uint64, len(f.counters)),
		Histograms: map[authcore.MetricID][]uint64{},
	}
	for k, v := range f.counters {
		out.Counters[k] = v
	}
	if f.verify != nil {
		out.Histograms[authcore.MetricVerifyLatency] = append([]uint64(nil), f.verify...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestExporterCollectsCounters(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{
		counters: map[authcore.MetricID]uint64{authcore.MetricLoginSuccess: 3},
		dropped:  1,
	}

	exp, err := NewExporter(provider.Meter("authcore-test"), src)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	got := collect(t, reader)
	m, ok := got["authcore.login.success"]
	if !ok {
		t.Fatal("missing authcore.login.success")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 3 {
		t.Fatalf("unexpected login success data %+v", m.Data)
	}

	dropped, ok := got["authcore.audit.dropped"].Data.(metricdata.Sum[int64])
	if !ok || len(dropped.DataPoints) != 1 || dropped.DataPoints[0].Value != 1 {
		t.Fatalf("unexpected audit dropped data %+v", got["authcore.audit.dropped"].Data)
	}
}

func TestExporterHistogramBuckets(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{
		counters: map[authcore.MetricID]uint64{},
		verify:   []uint64{1, 1, 0, 0, 0, 0, 0, 2},
	}

	exp, err := NewExporter(provider.Meter("authcore-test"), src)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer exp.Close()

	got := collect(t, reader)
	gauge, ok := got["authcore.verify.latency.bucket"].Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("missing bucket gauge, got %+v", got["authcore.verify.latency.bucket"])
	}
	if len(gauge.DataPoints) != 8 {
		t.Fatalf("expected 8 bucket points, got %d", len(gauge.DataPoints))
	}
	for _, dp := range gauge.DataPoints {
		le, _ := dp.Attributes.Value(attribute.Key("le"))
		if le.AsString() == "+Inf" && dp.Value != 4 {
			t.Fatalf("expected +Inf bucket 4, got %d", dp.Value)
		}
		if le.AsString() == "0.01" && dp.Value != 2 {
			t.Fatalf("expected 0.01 bucket 2, got %d", dp.Value)
		}
	}

	if _, ok := got["authcore.login.latency.bucket"]; ok {
		t.Fatal("histogram absent from snapshot must not be observed")
	}
}

func TestExporterRejectsNilArguments(t *testing.T) {
	_, provider := newReader(t)

	if _, err := NewExporter(provider.Meter("authcore-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporter(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollect(t *testing.T) {
	reader, provider := newReader(t)
	src := &fakeSource{counters: map[authcore.MetricID]uint64{authcore.MetricLoginSuccess: 1}}

	exp, err := NewExporter(provider.Meter("authcore-test"), src)
	if err != nil {
		t.Fatalf("NewExporter failed: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.counters[authcore.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
