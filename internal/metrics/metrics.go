package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "avatar_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	ChatResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_chat_responses_total",
			Help: "Chat responses by path taken (intent or scripted scenario) and outcome",
		},
		[]string{"path", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "avatar_segment_stage_duration_seconds",
			Help:    "Duration of synthesize/transcode/extract stages per segment",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"stage", "state"},
	)

	ZoomSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_zoom_signals_total",
			Help: "Zoom flag sets and polls that observed the flag",
		},
		[]string{"event"},
	)

	RelayPeers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "avatar_relay_peers",
			Help: "Number of connected relay peers",
		},
	)

	RelayFanout = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_relay_deliveries_total",
			Help: "Relay deliveries by result",
		},
		[]string{"result"},
	)
)

// Middleware records request count and latency per route
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			RequestCount.WithLabelValues(method, endpoint, status).Inc()
			RequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
