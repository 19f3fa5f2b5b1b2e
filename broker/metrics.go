package broker

import "github.com/rcrowley/go-metrics"

// Metric names reported by the broker.
const (
	MetricConnections     = "broker.connections"
	MetricAccepted        = "broker.accepted"
	MetricRequests        = "broker.requests"
	MetricProtocolErrors  = "broker.protocol_errors"
	MetricRequestDuration = "broker.request_duration"
)

type brokerMetrics struct {
	connections     metrics.Gauge
	accepted        metrics.Counter
	requests        metrics.Counter
	protocolErrors  metrics.Counter
	requestDuration metrics.Timer
}

func newBrokerMetrics(r metrics.Registry) *brokerMetrics {
	return &brokerMetrics{
		connections:     metrics.GetOrRegisterGauge(MetricConnections, r),
		accepted:        metrics.GetOrRegisterCounter(MetricAccepted, r),
		requests:        metrics.GetOrRegisterCounter(MetricRequests, r),
		protocolErrors:  metrics.GetOrRegisterCounter(MetricProtocolErrors, r),
		requestDuration: metrics.GetOrRegisterTimer(MetricRequestDuration, r),
	}
}
