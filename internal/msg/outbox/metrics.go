package outbox

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type dispatcherMetrics struct {
	eventsSent        metric.Int64Counter
	eventsFailed      metric.Int64Counter
	eventsExhausted   metric.Int64Counter
	eventsStateFailed metric.Int64Counter
	dispatchLatency   metric.Float64Histogram
	batchSize         metric.Int64Gauge
}

func newDispatcherMetrics(provider metric.MeterProvider) (dispatcherMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter("withdrawal-service.outbox.dispatcher")

	var (
		metrics dispatcherMetrics
		err     error
	)

	metrics.eventsSent, err = meter.Int64Counter(
		"outbox.events.sent",
		metric.WithDescription("Number of withdrawal events delivered to the channel"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.events.sent counter: %w", err)
	}

	metrics.eventsFailed, err = meter.Int64Counter(
		"outbox.events.failed",
		metric.WithDescription("Number of failed delivery attempts"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.events.failed counter: %w", err)
	}

	metrics.eventsExhausted, err = meter.Int64Counter(
		"outbox.events.exhausted",
		metric.WithDescription("Number of events that reached the retry ceiling"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.events.exhausted counter: %w", err)
	}

	metrics.eventsStateFailed, err = meter.Int64Counter(
		"outbox.events.state_update_failed",
		metric.WithDescription("Number of events whose delivery state could not be persisted"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.events.state_update_failed counter: %w", err)
	}

	metrics.dispatchLatency, err = meter.Float64Histogram(
		"outbox.dispatch.latency",
		metric.WithDescription("Time taken per dispatch cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.dispatch.latency histogram: %w", err)
	}

	metrics.batchSize, err = meter.Int64Gauge(
		"outbox.batch.size",
		metric.WithDescription("Number of events selected in a dispatch cycle"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return dispatcherMetrics{}, fmt.Errorf("create outbox.batch.size gauge: %w", err)
	}

	return metrics, nil
}
