package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultIgnored = "ignored"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movapp_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movapp_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "path"},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movapp_auth_events_total",
			Help: "Session operations by action and result",
		},
		[]string{"action", "result"},
	)

	GatewayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movapp_gateway_events_total",
			Help: "Payment gateway webhook events by type and result",
		},
		[]string{"type", "result"},
	)
)

func AuthEvent(action string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	AuthEventsTotal.WithLabelValues(action, result).Inc()
}
