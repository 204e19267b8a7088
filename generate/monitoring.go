package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CompletionSubject is the NATS subject completion events are published on.
const CompletionSubject = "lexdef.generation.completed"

// PrometheusSink records completion events as prometheus metrics.
type PrometheusSink struct {
	generations *prometheus.CounterVec
	enhanced    prometheus.Counter
	tokens      prometheus.Counter
	duration    prometheus.Histogram
}

// NewPrometheusSink registers the generation metrics on reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdef_generations_total",
			Help: "Completed generation attempts by outcome.",
		}, []string{"success"}),
		enhanced: factory.NewCounter(prometheus.CounterOpts{
			Name: "lexdef_enhancements_total",
			Help: "Generation attempts that ran the enhancement cycle.",
		}),
		tokens: factory.NewCounter(prometheus.CounterOpts{
			Name: "lexdef_generation_tokens_total",
			Help: "Model tokens consumed by generation attempts.",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lexdef_generation_duration_seconds",
			Help:    "Wall time of generation attempts.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// Completion records the event.
func (s *PrometheusSink) Completion(_ context.Context, ev CompletionEvent) error {
	s.generations.WithLabelValues(strconv.FormatBool(ev.Success)).Inc()
	if ev.Enhanced {
		s.enhanced.Inc()
	}
	s.tokens.Add(float64(ev.TokensUsed))
	s.duration.Observe(ev.Elapsed.Seconds())
	return nil
}

// NATSSink publishes completion events for downstream consumers.
type NATSSink struct {
	nc *nats.Conn
}

// NewNATSSink creates a sink over an established connection.
func NewNATSSink(nc *nats.Conn) *NATSSink {
	return &NATSSink{nc: nc}
}

// Completion publishes the event as JSON.
func (s *NATSSink) Completion(_ context.Context, ev CompletionEvent) error {
	if s.nc == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal completion event: %w", err)
	}
	if err := s.nc.Publish(CompletionSubject, data); err != nil {
		return fmt.Errorf("publish completion event: %w", err)
	}
	return nil
}

// MultiSink fans an event out to several sinks; the first error is returned
// after all sinks ran.
type MultiSink []MonitoringSink

// Completion delivers the event to every sink.
func (m MultiSink) Completion(ctx context.Context, ev CompletionEvent) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Completion(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
