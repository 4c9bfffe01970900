package notify

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink counts send outcomes by kind and status.
type PrometheusSink struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_notifications_total",
			Help: "Total number of waitlist notification send attempts.",
		},
		[]string{"kind", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waitlist_notification_duration_seconds",
			Help:    "Waitlist notification send duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind", "status"},
	)

	var err error
	if total, err = registerOrReuse(reg, total); err != nil {
		return nil, err
	}
	if duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}

	return &PrometheusSink{total: total, duration: duration}, nil
}

func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PrometheusSink) Record(_ context.Context, outcome Outcome) {
	kind, status := string(outcome.Kind), outcome.Status()
	s.total.WithLabelValues(kind, status).Inc()
	s.duration.WithLabelValues(kind, status).Observe(outcome.Duration.Seconds())
}
