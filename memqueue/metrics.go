package memqueue

import (
	"github.com/rcrowley/go-metrics"
)

// Metric names reported by the queue.
const (
	MetricEnqueued      = "pulseq.enqueued"
	MetricDelivered     = "pulseq.delivered"
	MetricRedelivered   = "pulseq.redelivered"
	MetricAcked         = "pulseq.acked"
	MetricAckRejected   = "pulseq.ack_rejected"
	MetricPending       = "pulseq.pending"
	MetricInFlight      = "pulseq.in_flight"
	MetricLeaseDuration = "pulseq.lease_duration"
)

type queueMetrics struct {
	enqueued    metrics.Counter
	delivered   metrics.Counter
	redelivered metrics.Counter
	acked       metrics.Counter
	ackRejected metrics.Counter

	pending  metrics.Gauge
	inFlight metrics.Gauge

	// leaseDuration measures time from delivery to a successful ack.
	leaseDuration metrics.Timer
}

func newQueueMetrics(r metrics.Registry) *queueMetrics {
	return &queueMetrics{
		enqueued:      metrics.GetOrRegisterCounter(MetricEnqueued, r),
		delivered:     metrics.GetOrRegisterCounter(MetricDelivered, r),
		redelivered:   metrics.GetOrRegisterCounter(MetricRedelivered, r),
		acked:         metrics.GetOrRegisterCounter(MetricAcked, r),
		ackRejected:   metrics.GetOrRegisterCounter(MetricAckRejected, r),
		pending:       metrics.GetOrRegisterGauge(MetricPending, r),
		inFlight:      metrics.GetOrRegisterGauge(MetricInFlight, r),
		leaseDuration: metrics.GetOrRegisterTimer(MetricLeaseDuration, r),
	}
}
