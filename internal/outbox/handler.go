package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/obs/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

// AccountPublisher delivers account events to the message broker.
type AccountPublisher interface {
	PublishAccountEvent(ctx context.Context, ev outbox.AccountEvent) error
}

var (
	outboxHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_handler_latency_seconds",
		Help:    "Latency of outbox handlers, retries included.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outboxHandlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_handler_errors_total",
		Help: "Errors in outbox handlers (after retries).",
	}, []string{"kind"})
)

func instrument(kind string, h outbox.KindHandler, pol retry.Policy) outbox.KindHandler {
	tr := otel.Tracer("outbox.handler")
	if pol.Name == "" {
		pol.Name = "outbox_" + kind
	}
	return func(ctx context.Context, data []byte) error {
		ctx, span := tr.Start(ctx, "outbox.handle "+kind)
		defer span.End()

		start := time.Now()
		err := retry.Do(ctx, func() error { return h(ctx, data) }, pol)
		outboxHandlerLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			outboxHandlerErrors.WithLabelValues(kind).Inc()
		}
		return err
	}
}

// MakeGlobalOutboxHandler routes every account event kind to pub.
func MakeGlobalOutboxHandler(pub AccountPublisher, pol retry.Policy) outbox.GlobalHandler {
	return func(kind outbox.Kind) (outbox.KindHandler, error) {
		switch kind {
		case outbox.KindAccountRegistered, outbox.KindAccountDeleted, outbox.KindReconcileRequired:
			base := func(ctx context.Context, data []byte) error {
				var ev outbox.AccountEvent
				if err := json.Unmarshal(data, &ev); err != nil {
					return fmt.Errorf("unmarshal %s payload: %w", kind, err)
				}
				return pub.PublishAccountEvent(ctx, ev)
			}
			return instrument(kind.String(), base, pol), nil
		default:
			return nil, fmt.Errorf("unsupported outbox kind: %d", kind)
		}
	}
}
