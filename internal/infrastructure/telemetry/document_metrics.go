package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is given
var ErrMeterNil = errors.New("meter cannot be nil")

// Metric attribute keys
var (
	AttrDelivery = attribute.Key("delivery")
	AttrOutcome  = attribute.Key("outcome")
	AttrMode     = attribute.Key("mode")
)

// Outcomes recorded on document metrics
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RenderDurationBuckets are bucket boundaries for PDF rendering (seconds)
var RenderDurationBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60}

// DocumentMetrics records generated documents and inlined signatures
type DocumentMetrics struct {
	generated      metric.Int64Counter
	renderDuration metric.Float64Histogram
	documentBytes  metric.Int64Histogram
	inlined        metric.Int64Counter
}

// NewDocumentMetrics registers the document instruments on meter
func NewDocumentMetrics(meter metric.Meter) (*DocumentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &DocumentMetrics{}
	var err error

	if m.generated, err = meter.Int64Counter("docgen_documents_total",
		metric.WithDescription("Documents generated, by delivery and outcome"),
		metric.WithUnit("{documents}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter docgen_documents_total: %w", err)
	}

	if m.renderDuration, err = meter.Float64Histogram("docgen_render_duration_seconds",
		metric.WithDescription("Time spent rendering a PDF"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(RenderDurationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram docgen_render_duration_seconds: %w", err)
	}

	if m.documentBytes, err = meter.Int64Histogram("docgen_document_bytes",
		metric.WithDescription("Size of generated PDFs"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, fmt.Errorf("failed to create histogram docgen_document_bytes: %w", err)
	}

	if m.inlined, err = meter.Int64Counter("docgen_signatures_inlined_total",
		metric.WithDescription("Signature images converted to data URLs, by outcome"),
		metric.WithUnit("{images}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create counter docgen_signatures_inlined_total: %w", err)
	}

	return m, nil
}

// RecordDocument records one finished generate action
func (m *DocumentMetrics) RecordDocument(ctx context.Context, delivery, mode string, d time.Duration, size int, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	attrs := metric.WithAttributes(AttrDelivery.String(delivery), AttrMode.String(mode), AttrOutcome.String(outcome))

	m.generated.Add(ctx, 1, attrs)
	m.renderDuration.Record(ctx, d.Seconds(), attrs)
	if err == nil {
		m.documentBytes.Record(ctx, int64(size), metric.WithAttributes(AttrDelivery.String(delivery)))
	}
}

// RecordInlined records signature conversions of one session
func (m *DocumentMetrics) RecordInlined(ctx context.Context, succeeded, failed int) {
	if m == nil {
		return
	}
	if succeeded > 0 {
		m.inlined.Add(ctx, int64(succeeded), metric.WithAttributes(AttrOutcome.String(OutcomeSuccess)))
	}
	if failed > 0 {
		m.inlined.Add(ctx, int64(failed), metric.WithAttributes(AttrOutcome.String(OutcomeFailure)))
	}
}
