package dispatcher

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/gymjs/muscle-selector/internal/dispatcher"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics holds the command instruments. Every instrument carries a
// "command" attribute.
type metrics struct {
	handled  metric.Int64Counter
	duration metric.Float64Histogram
	dropped  metric.Int64Counter
	queued   metric.Int64ObservableGauge
}

func newMetrics(m metric.Meter, queueLengths func() map[string]int) (*metrics, error) {
	var (
		out metrics
		err error
	)

	out.handled, err = m.Int64Counter(
		"selector.commands.handled",
		metric.WithDescription("Commands run by a handler, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating handled counter: %w", err)
	}

	out.duration, err = m.Float64Histogram(
		"selector.commands.duration",
		metric.WithDescription("Handler run time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	out.dropped, err = m.Int64Counter(
		"selector.commands.dropped",
		metric.WithDescription("Commands rejected because their queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	out.queued, err = m.Int64ObservableGauge(
		"selector.commands.queued",
		metric.WithDescription("Commands waiting in buffered handler queues"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			for cmd, n := range queueLengths() {
				o.ObserveInt64(out.queued, int64(n), metric.WithAttributes(attribute.String("command", cmd)))
			}
			return nil
		},
		out.queued,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}
	return &out, nil
}

func (m *metrics) observe(command string, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ctx := context.Background()
	m.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, float64(took.Microseconds())/1000, metric.WithAttributes(attribute.String("command", command)))
}

func (m *metrics) drop(command string) {
	m.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("command", command)))
}
